package validators

import (
	"fixify/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	BookingStatuses = []string{
		string(model.BookingPending),
		string(model.BookingConfirmed),
		string(model.BookingInProgress),
		string(model.BookingCompleted),
		string(model.BookingCancelled),
	}

	PaymentStatuses = []string{
		string(model.PaymentPending),
		string(model.PaymentHeld),
		string(model.PaymentReleased),
		string(model.PaymentRefunded),
	}

	ReviewStatuses = []string{
		string(model.ReviewPending),
		string(model.ReviewApproved),
		string(model.ReviewFlagged),
		string(model.ReviewRemoved),
	}

	Roles = []string{
		string(model.RoleCustomer),
		string(model.RoleProvider),
		string(model.RoleAdmin),
	}

	NotificationTypes = []string{
		string(model.NotificationBooking),
		string(model.NotificationMessage),
		string(model.NotificationReview),
		string(model.NotificationPayment),
		string(model.NotificationSystem),
	}
)

// Ids of other documents are stored as their 24 character hex form.
var objectIDHex = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}

var money = bson.M{
	"bsonType": []string{"double", "int", "long"},
	"minimum":  0,
}
