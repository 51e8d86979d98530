package lifecycle

import (
	"testing"

	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"
)

const (
	customerID = "64b7f0c2a1b2c3d4e5f60001"
	providerID = "64b7f0c2a1b2c3d4e5f60002"
	adminID    = "64b7f0c2a1b2c3d4e5f60003"
	strangerID = "64b7f0c2a1b2c3d4e5f60004"
)

var (
	customer = Actor{UserID: customerID, Role: model.RoleCustomer}
	provider = Actor{UserID: providerID, Role: model.RoleProvider}
	admin    = Actor{UserID: adminID, Role: model.RoleAdmin}
	stranger = Actor{UserID: strangerID, Role: model.RoleCustomer}
)

func booking(status model.BookingStatus, payment model.PaymentStatus) *model.Booking {
	return &model.Booking{
		ID:            "64b7f0c2a1b2c3d4e5f6aaaa",
		CustomerID:    customerID,
		ProviderID:    providerID,
		Status:        status,
		PaymentStatus: payment,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestPartyOf(t *testing.T) {
	b := booking(model.BookingPending, model.PaymentPending)

	tests := []struct {
		name  string
		actor Actor
		want  Party
	}{
		{"customer", customer, Customer},
		{"provider", provider, Provider},
		{"admin", admin, Admin},
		{"stranger", stranger, Nobody},
		{"anonymous", Actor{}, Nobody},
		{"admin who is also customer", Actor{UserID: customerID, Role: model.RoleAdmin}, Customer | Admin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PartyOf(b, tt.actor); got != tt.want {
				t.Errorf("PartyOf() = %b, want %b", got, tt.want)
			}
		})
	}
}

func TestGate(t *testing.T) {
	b := booking(model.BookingPending, model.PaymentPending)

	tests := []struct {
		name     string
		actor    Actor
		readOK   bool
		updateOK bool
		cancelOK bool
	}{
		{"customer", customer, true, true, true},
		{"provider", provider, true, true, true},
		{"admin", admin, true, true, false},
		{"stranger", stranger, false, false, false},
	}

	check := func(t *testing.T, err error, ok bool) {
		t.Helper()
		if ok && err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			assertCode(t, err, apperrors.CodeForbidden)
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, AuthorizeRead(b, tt.actor), tt.readOK)
			check(t, AuthorizeUpdate(b, tt.actor), tt.updateOK)
			check(t, AuthorizeCancel(b, tt.actor), tt.cancelOK)
		})
	}
}

// Every (from, to, actor) combination for the lenient table.
func TestLenient_StatusTable(t *testing.T) {
	policy := Lenient()
	actors := map[string]Actor{"customer": customer, "provider": provider, "admin": admin, "stranger": stranger}

	for _, from := range model.BookingStatuses {
		for _, to := range model.BookingStatuses {
			for actorName, actor := range actors {
				name := string(from) + "->" + string(to) + "/" + actorName
				t.Run(name, func(t *testing.T) {
					d, err := policy.Decide(booking(from, model.PaymentPending), actor, model.BookingUpdate{Status: to})

					switch {
					case actorName == "stranger":
						assertCode(t, err, apperrors.CodeForbidden)
					case to == model.BookingConfirmed && actorName != "provider":
						assertCode(t, err, apperrors.CodeForbidden)
					case to == model.BookingCompleted && actorName != "customer":
						assertCode(t, err, apperrors.CodeForbidden)
					default:
						if err != nil {
							t.Fatalf("unexpected error: %v", err)
						}
						if d.Status != to {
							t.Errorf("Status = %s, want %s", d.Status, to)
						}
						if d.StatusChanged != (from != to) {
							t.Errorf("StatusChanged = %v", d.StatusChanged)
						}
						if from == to && len(d.Effects) != 0 {
							t.Errorf("same-status request produced effects %v", d.Effects)
						}
						if from != to && !d.Has(NotifyStatusChange) {
							t.Errorf("status change without notification effect")
						}
						wantInc := from != to && to == model.BookingCompleted
						if d.Has(IncrementCompletedJobs) != wantInc {
							t.Errorf("IncrementCompletedJobs = %v, want %v", d.Has(IncrementCompletedJobs), wantInc)
						}
					}
				})
			}
		}
	}
}

func TestStrict_StatusTable(t *testing.T) {
	policy := Strict()
	allowed := map[model.BookingStatus][]model.BookingStatus{
		model.BookingPending:    {model.BookingConfirmed, model.BookingCancelled},
		model.BookingConfirmed:  {model.BookingInProgress, model.BookingCancelled},
		model.BookingInProgress: {model.BookingCompleted, model.BookingCancelled},
	}
	// the party each edge needs
	actorFor := map[model.BookingStatus]Actor{
		model.BookingPending:    customer,
		model.BookingConfirmed:  provider,
		model.BookingInProgress: provider,
		model.BookingCompleted:  customer,
		model.BookingCancelled:  customer,
	}

	for _, from := range model.BookingStatuses {
		for _, to := range model.BookingStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				d, err := policy.Decide(booking(from, model.PaymentPending), actorFor[to], model.BookingUpdate{Status: to})

				if from == to {
					if err != nil || d.Changed() {
						t.Fatalf("same-status request: decision %+v err %v", d, err)
					}
					return
				}

				ok := false
				for _, s := range allowed[from] {
					ok = ok || s == to
				}
				if ok {
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					if d.Status != to {
						t.Errorf("Status = %s, want %s", d.Status, to)
					}
					return
				}
				assertCode(t, err, apperrors.CodeConflict)
			})
		}
	}
}

func TestStrict_PartyGateBeforeEdge(t *testing.T) {
	_, err := Strict().Decide(booking(model.BookingCompleted, model.PaymentPending), customer, model.BookingUpdate{Status: model.BookingConfirmed})
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestPaymentStatus(t *testing.T) {
	tests := []struct {
		name     string
		policy   *Policy
		from     model.PaymentStatus
		to       model.PaymentStatus
		wantCode string
		released bool
	}{
		{"lenient backwards", Lenient(), model.PaymentReleased, model.PaymentPending, "", false},
		{"lenient release", Lenient(), model.PaymentPending, model.PaymentReleased, "", true},
		{"strict hold", Strict(), model.PaymentPending, model.PaymentHeld, "", false},
		{"strict release", Strict(), model.PaymentHeld, model.PaymentReleased, "", true},
		{"strict refund held", Strict(), model.PaymentHeld, model.PaymentRefunded, "", false},
		{"strict skip hold", Strict(), model.PaymentPending, model.PaymentReleased, apperrors.CodeConflict, false},
		{"strict backwards", Strict(), model.PaymentReleased, model.PaymentPending, apperrors.CodeConflict, false},
		{"strict refund released", Strict(), model.PaymentReleased, model.PaymentRefunded, apperrors.CodeConflict, false},
		{"unknown", Lenient(), model.PaymentPending, model.PaymentStatus("paid"), apperrors.CodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.policy.Decide(booking(model.BookingConfirmed, tt.from), admin, model.BookingUpdate{PaymentStatus: tt.to})
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.PaymentStatus != tt.to || !d.PaymentChanged {
				t.Errorf("decision = %+v", d)
			}
			if d.Has(NotifyPaymentReleased) != tt.released {
				t.Errorf("NotifyPaymentReleased = %v, want %v", d.Has(NotifyPaymentReleased), tt.released)
			}
			if d.StatusChanged {
				t.Error("payment update changed status")
			}
		})
	}
}

func TestDecide_CombinedUpdateIsAllOrNothing(t *testing.T) {
	_, err := Strict().Decide(booking(model.BookingPending, model.PaymentPending), provider, model.BookingUpdate{
		Status:        model.BookingConfirmed,
		PaymentStatus: model.PaymentReleased,
	})
	assertCode(t, err, apperrors.CodeConflict)
}

func TestDecide_UnknownStatus(t *testing.T) {
	_, err := Lenient().Decide(booking(model.BookingPending, model.PaymentPending), customer, model.BookingUpdate{Status: "archived"})
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestDecideCancel(t *testing.T) {
	tests := []struct {
		name     string
		policy   *Policy
		actor    Actor
		from     model.BookingStatus
		wantCode string
		changed  bool
	}{
		{"customer cancels pending", Lenient(), customer, model.BookingPending, "", true},
		{"provider cancels in-progress", Lenient(), provider, model.BookingInProgress, "", true},
		{"admin cannot cancel", Lenient(), admin, model.BookingPending, apperrors.CodeForbidden, false},
		{"stranger cannot cancel", Lenient(), stranger, model.BookingPending, apperrors.CodeForbidden, false},
		{"completed is final", Lenient(), customer, model.BookingCompleted, apperrors.CodeConflict, false},
		{"completed is final strict", Strict(), customer, model.BookingCompleted, apperrors.CodeConflict, false},
		{"lenient re-cancel", Lenient(), customer, model.BookingCancelled, "", false},
		{"strict re-cancel", Strict(), customer, model.BookingCancelled, apperrors.CodeConflict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.policy.DecideCancel(booking(tt.from, model.PaymentHeld), tt.actor)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Status != model.BookingCancelled || d.PaymentStatus != model.PaymentRefunded {
				t.Errorf("decision = %+v", d)
			}
			if d.StatusChanged != tt.changed {
				t.Errorf("StatusChanged = %v, want %v", d.StatusChanged, tt.changed)
			}
			if d.Has(NotifyStatusChange) != tt.changed {
				t.Errorf("NotifyStatusChange = %v, want %v", d.Has(NotifyStatusChange), tt.changed)
			}
		})
	}
}

func TestDecideCancel_LenientReCancelRefundsAgain(t *testing.T) {
	d, err := Lenient().DecideCancel(booking(model.BookingCancelled, model.PaymentPending), provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.PaymentChanged || d.PaymentStatus != model.PaymentRefunded {
		t.Errorf("decision = %+v", d)
	}
}
