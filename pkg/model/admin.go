package model

import "time"

type PlatformStats struct {
	TotalUsers         int64   `json:"total_users"`
	TotalCustomers     int64   `json:"total_customers"`
	TotalProviders     int64   `json:"total_providers"`
	ActiveProviders    int64   `json:"active_providers"`
	VerifiedProviders  int64   `json:"verified_providers"`
	TotalBookings      int64   `json:"total_bookings"`
	PendingBookings    int64   `json:"pending_bookings"`
	InProgressBookings int64   `json:"in_progress_bookings"`
	CompletedBookings  int64   `json:"completed_bookings"`
	CancelledBookings  int64   `json:"cancelled_bookings"`
	TotalReviews       int64   `json:"total_reviews"`
	TotalRevenue       float64 `json:"total_revenue"`
	MonthlyRevenue     float64 `json:"monthly_revenue"`
}

const (
	ActivityUser    = "user"
	ActivityBooking = "booking"
	ActivityReview  = "review"
)

type ActivityItem struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RelatedID   string    `json:"related_id"`
	Timestamp   time.Time `json:"timestamp"`
}

type UserFilter struct {
	Role     Role
	Roles    []Role
	Active   *bool
	Verified *bool
	Search   string
}
