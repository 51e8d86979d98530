package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in-progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

var BookingStatuses = []BookingStatus{
	BookingPending,
	BookingConfirmed,
	BookingInProgress,
	BookingCompleted,
	BookingCancelled,
}

func (s BookingStatus) Valid() bool {
	for _, v := range BookingStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further work is expected on the booking.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentHeld     PaymentStatus = "held-in-escrow"
	PaymentReleased PaymentStatus = "released"
	PaymentRefunded PaymentStatus = "refunded"
)

var PaymentStatuses = []PaymentStatus{
	PaymentPending,
	PaymentHeld,
	PaymentReleased,
	PaymentRefunded,
}

func (s PaymentStatus) Valid() bool {
	for _, v := range PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ServiceSnapshot is copied into the booking at creation time and never
// follows later edits to the provider's catalogue.
type ServiceSnapshot struct {
	Name        string  `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Price       float64 `json:"price" bson:"price" validate:"gte=0,lte=10000000"`
	Description string  `json:"description,omitempty" bson:"description,omitempty" validate:"max=1000"`
}

type Booking struct {
	ID            string          `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID    string          `json:"customer_id" bson:"customer_id"`
	ProviderID    string          `json:"provider_id" bson:"provider_id"`
	Service       ServiceSnapshot `json:"service" bson:"service"`
	ScheduledDate time.Time       `json:"scheduled_date" bson:"scheduled_date"`
	ScheduledTime string          `json:"scheduled_time" bson:"scheduled_time"`
	Address       string          `json:"address" bson:"address"`
	ContactPhone  string          `json:"contact_phone,omitempty" bson:"contact_phone,omitempty"`
	ContactEmail  string          `json:"contact_email,omitempty" bson:"contact_email,omitempty"`
	Notes         string          `json:"notes,omitempty" bson:"notes,omitempty"`
	Status        BookingStatus   `json:"status" bson:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status" bson:"payment_status"`
	PlatformFee   float64         `json:"platform_fee" bson:"platform_fee"`
	TotalAmount   float64         `json:"total_amount" bson:"total_amount"`
	HasReview     bool            `json:"has_review" bson:"has_review"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

type BookingRequest struct {
	ProviderID    string          `json:"provider_id" validate:"required,mongodb"`
	Service       ServiceSnapshot `json:"service"`
	ScheduledDate time.Time       `json:"scheduled_date" validate:"required"`
	ScheduledTime string          `json:"scheduled_time" validate:"required,max=50"`
	Address       string          `json:"address" validate:"required,min=3,max=300"`
	ContactPhone  string          `json:"contact_phone,omitempty" validate:"omitempty,e164"`
	ContactEmail  string          `json:"contact_email,omitempty" validate:"omitempty,email"`
	Notes         string          `json:"notes,omitempty" validate:"max=1000"`
}

type BookingUpdate struct {
	Status        BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed in-progress completed cancelled"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty" validate:"omitempty,oneof=pending held-in-escrow released refunded"`
}

func (u *BookingUpdate) Empty() bool {
	return u.Status == "" && u.PaymentStatus == ""
}

// BookingView is a booking with its parties expanded.
type BookingView struct {
	*Booking
	Customer *UserSummary `json:"customer,omitempty"`
	Provider *UserSummary `json:"provider,omitempty"`
}
