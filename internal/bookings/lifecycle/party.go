package lifecycle

import (
	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"
)

// Actor is the caller acting on a booking.
type Actor struct {
	UserID string
	Role   model.Role
}

// Party is a bit set of the relations an actor holds to one booking.
type Party uint8

const (
	Customer Party = 1 << iota
	Provider
	Admin

	Nobody Party = 0
	Anyone       = Customer | Provider | Admin
)

func (p Party) Has(q Party) bool {
	return p&q != 0
}

func PartyOf(b *model.Booking, a Actor) Party {
	var p Party
	if a.UserID == "" {
		return Nobody
	}
	if b.CustomerID == a.UserID {
		p |= Customer
	}
	if b.ProviderID == a.UserID {
		p |= Provider
	}
	if a.Role == model.RoleAdmin {
		p |= Admin
	}
	return p
}

func AuthorizeRead(b *model.Booking, a Actor) error {
	if !PartyOf(b, a).Has(Anyone) {
		return apperrors.Forbidden("Not authorized to view this booking")
	}
	return nil
}

func AuthorizeUpdate(b *model.Booking, a Actor) error {
	if !PartyOf(b, a).Has(Anyone) {
		return apperrors.Forbidden("Not authorized to update this booking")
	}
	return nil
}

// AuthorizeCancel admits only the two parties of the booking. Admins are
// deliberately not included.
func AuthorizeCancel(b *model.Booking, a Actor) error {
	if !PartyOf(b, a).Has(Customer | Provider) {
		return apperrors.Forbidden("Not authorized to cancel this booking")
	}
	return nil
}
