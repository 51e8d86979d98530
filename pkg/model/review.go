package model

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewFlagged  ReviewStatus = "flagged"
	ReviewRemoved  ReviewStatus = "removed"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewFlagged, ReviewRemoved:
		return true
	}
	return false
}

type ReviewResponse struct {
	Text string    `json:"text" bson:"text"`
	Date time.Time `json:"date" bson:"date"`
}

type Review struct {
	ID         string          `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID  string          `json:"booking_id" bson:"booking_id"`
	CustomerID string          `json:"customer_id" bson:"customer_id"`
	ProviderID string          `json:"provider_id" bson:"provider_id"`
	Rating     int             `json:"rating" bson:"rating"`
	Comment    string          `json:"comment" bson:"comment"`
	Response   *ReviewResponse `json:"response,omitempty" bson:"response,omitempty"`
	Status     ReviewStatus    `json:"status" bson:"status"`
	CreatedAt  time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" bson:"updated_at"`
}

type ReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required,mongodb"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required,min=1,max=1000"`
}

type ReviewReply struct {
	Response string `json:"response" validate:"required,min=1,max=1000"`
}

type ReviewModeration struct {
	Status ReviewStatus `json:"status" validate:"required,oneof=pending approved flagged removed"`
}

type ReviewView struct {
	*Review
	Customer *UserSummary `json:"customer,omitempty"`
	Provider *UserSummary `json:"provider,omitempty"`
}

// RatingSummary is the aggregate over a provider's approved reviews.
type RatingSummary struct {
	Average float64 `bson:"average"`
	Count   int     `bson:"count"`
}
