package model

import "time"

type NotificationType string

const (
	NotificationBooking NotificationType = "booking"
	NotificationMessage NotificationType = "message"
	NotificationReview  NotificationType = "review"
	NotificationPayment NotificationType = "payment"
	NotificationSystem  NotificationType = "system"
)

const (
	RelatedBooking = "Booking"
	RelatedMessage = "Message"
	RelatedReview  = "Review"
)

type Notification struct {
	ID           string           `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       string           `json:"user_id" bson:"user_id"`
	Type         NotificationType `json:"type" bson:"type"`
	Title        string           `json:"title" bson:"title"`
	Message      string           `json:"message" bson:"message"`
	RelatedID    string           `json:"related_id,omitempty" bson:"related_id,omitempty"`
	RelatedModel string           `json:"related_model,omitempty" bson:"related_model,omitempty"`
	Read         bool             `json:"read" bson:"read"`
	Link         string           `json:"link,omitempty" bson:"link,omitempty"`
	CreatedAt    time.Time        `json:"created_at" bson:"created_at"`
}
