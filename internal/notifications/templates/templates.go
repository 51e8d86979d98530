// Package templates builds the notification records emitted by marketplace
// events. Builders are pure; persistence and delivery happen elsewhere.
package templates

import (
	"fmt"
	"strconv"

	"fixify/pkg/model"
)

const (
	LinkCustomerDashboard = "/dashboard"
	LinkProviderDashboard = "/provider-dashboard"
)

func bookingNotice(userID, title, message, bookingID, link string) *model.Notification {
	return &model.Notification{
		UserID:       userID,
		Type:         model.NotificationBooking,
		Title:        title,
		Message:      message,
		RelatedID:    bookingID,
		RelatedModel: model.RelatedBooking,
		Link:         link,
	}
}

func BookingCreated(b *model.Booking) []*model.Notification {
	return []*model.Notification{
		bookingNotice(b.CustomerID, "Booking Confirmed",
			fmt.Sprintf("Your booking for %s has been created and sent to the provider.", b.Service.Name),
			b.ID, LinkCustomerDashboard),
		bookingNotice(b.ProviderID, "New Booking Request",
			fmt.Sprintf("You have a new booking request for %s.", b.Service.Name),
			b.ID, LinkProviderDashboard),
	}
}

// BookingStatusChanged returns the notices for b having moved to b.Status.
// actorID selects the wording for cancellations. Statuses without a template,
// such as a reset to pending, produce nothing.
func BookingStatusChanged(b *model.Booking, actorID string) []*model.Notification {
	switch b.Status {
	case model.BookingConfirmed:
		return []*model.Notification{
			bookingNotice(b.CustomerID, "Booking Confirmed", "Your booking has been confirmed by the provider!", b.ID, LinkCustomerDashboard),
		}
	case model.BookingInProgress:
		return []*model.Notification{
			bookingNotice(b.CustomerID, "Service Started", "Your service provider has started working on your request.", b.ID, LinkCustomerDashboard),
		}
	case model.BookingCompleted:
		return []*model.Notification{
			bookingNotice(b.CustomerID, "Service Completed", "Your service has been completed. Please leave a review!", b.ID, LinkCustomerDashboard),
			bookingNotice(b.ProviderID, "Service Marked Complete", "Customer marked the service as complete. Payment will be released.", b.ID, LinkProviderDashboard),
		}
	case model.BookingCancelled:
		customerMsg := "Your booking has been cancelled."
		providerMsg := "The booking has been cancelled."
		switch actorID {
		case b.CustomerID:
			providerMsg = "The booking has been cancelled by the customer."
		case b.ProviderID:
			customerMsg = "Your booking has been cancelled by the provider."
		}
		return []*model.Notification{
			bookingNotice(b.CustomerID, "Booking Cancelled", customerMsg, b.ID, LinkCustomerDashboard),
			bookingNotice(b.ProviderID, "Booking Cancelled", providerMsg, b.ID, LinkProviderDashboard),
		}
	default:
		return nil
	}
}

func PaymentReleased(b *model.Booking) []*model.Notification {
	return []*model.Notification{{
		UserID:       b.ProviderID,
		Type:         model.NotificationPayment,
		Title:        "Payment Released",
		Message:      fmt.Sprintf("Payment of ₱%s has been released for your completed service.", formatAmount(b.Service.Price)),
		RelatedID:    b.ID,
		RelatedModel: model.RelatedBooking,
		Link:         LinkProviderDashboard,
	}}
}

func NewMessage(senderID, receiverID, senderName string) []*model.Notification {
	return []*model.Notification{{
		UserID:       receiverID,
		Type:         model.NotificationMessage,
		Title:        "New Message",
		Message:      fmt.Sprintf("You have a new message from %s.", senderName),
		RelatedID:    senderID,
		RelatedModel: model.RelatedMessage,
		Link:         "/messages/" + senderID,
	}}
}

func NewReview(r *model.Review, customerName string) []*model.Notification {
	return []*model.Notification{{
		UserID:       r.ProviderID,
		Type:         model.NotificationReview,
		Title:        "New Review Received",
		Message:      fmt.Sprintf("%s left a %d-star review for your service.", customerName, r.Rating),
		RelatedID:    r.ID,
		RelatedModel: model.RelatedReview,
		Link:         LinkProviderDashboard,
	}}
}

func ProviderVerified(providerID string) []*model.Notification {
	return []*model.Notification{{
		UserID:  providerID,
		Type:    model.NotificationSystem,
		Title:   "Profile Verified",
		Message: "Your provider profile has been verified by the Fixify team.",
		Link:    LinkProviderDashboard,
	}}
}

// formatAmount drops a zero fraction: 1000 -> "1000", 1234.5 -> "1234.50".
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
