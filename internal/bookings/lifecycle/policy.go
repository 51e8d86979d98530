package lifecycle

import (
	"fmt"
	"slices"

	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"
)

type Effect string

const (
	IncrementCompletedJobs Effect = "increment_completed_jobs"
	NotifyStatusChange     Effect = "notify_status_change"
	NotifyPaymentReleased  Effect = "notify_payment_released"
)

// StatusRule admits a move to To when the actor holds one of Parties and the
// current status is in From (or AnyFrom is set).
type StatusRule struct {
	To      model.BookingStatus
	AnyFrom bool
	From    []model.BookingStatus
	Parties Party
	Denied  string
	Effects []Effect
}

func (r StatusRule) allowsFrom(s model.BookingStatus) bool {
	return r.AnyFrom || slices.Contains(r.From, s)
}

type PaymentRule struct {
	To      model.PaymentStatus
	AnyFrom bool
	From    []model.PaymentStatus
	Effects []Effect
}

func (r PaymentRule) allowsFrom(s model.PaymentStatus) bool {
	return r.AnyFrom || slices.Contains(r.From, s)
}

type Policy struct {
	name    string
	status  map[model.BookingStatus]StatusRule
	payment map[model.PaymentStatus]PaymentRule
}

func newPolicy(name string, status []StatusRule, payment []PaymentRule) *Policy {
	p := &Policy{
		name:    name,
		status:  make(map[model.BookingStatus]StatusRule, len(status)),
		payment: make(map[model.PaymentStatus]PaymentRule, len(payment)),
	}
	for _, r := range status {
		p.status[r.To] = r
	}
	for _, r := range payment {
		p.payment[r.To] = r
	}
	return p
}

const (
	deniedConfirm  = "Only provider can confirm booking"
	deniedComplete = "Only customer can mark as completed"
)

// Lenient reproduces the marketplace's historical behaviour: only confirm and
// complete are party-gated, every other status and every payment status may
// be set from any state by any authorised party.
func Lenient() *Policy {
	return newPolicy("lenient",
		[]StatusRule{
			{To: model.BookingPending, AnyFrom: true, Parties: Anyone, Effects: []Effect{NotifyStatusChange}},
			{To: model.BookingConfirmed, AnyFrom: true, Parties: Provider, Denied: deniedConfirm, Effects: []Effect{NotifyStatusChange}},
			{To: model.BookingInProgress, AnyFrom: true, Parties: Anyone, Effects: []Effect{NotifyStatusChange}},
			{To: model.BookingCompleted, AnyFrom: true, Parties: Customer, Denied: deniedComplete, Effects: []Effect{IncrementCompletedJobs, NotifyStatusChange}},
			{To: model.BookingCancelled, AnyFrom: true, Parties: Anyone, Effects: []Effect{NotifyStatusChange}},
		},
		[]PaymentRule{
			{To: model.PaymentPending, AnyFrom: true},
			{To: model.PaymentHeld, AnyFrom: true},
			{To: model.PaymentReleased, AnyFrom: true, Effects: []Effect{NotifyPaymentReleased}},
			{To: model.PaymentRefunded, AnyFrom: true},
		},
	)
}

// Strict keeps the same party gates and adds ordered edges. Completed and
// cancelled bookings are frozen.
func Strict() *Policy {
	active := []model.BookingStatus{model.BookingPending, model.BookingConfirmed, model.BookingInProgress}

	return newPolicy("strict",
		[]StatusRule{
			{To: model.BookingPending, Parties: Anyone},
			{To: model.BookingConfirmed, From: []model.BookingStatus{model.BookingPending}, Parties: Provider, Denied: deniedConfirm, Effects: []Effect{NotifyStatusChange}},
			{To: model.BookingInProgress, From: []model.BookingStatus{model.BookingConfirmed}, Parties: Anyone, Effects: []Effect{NotifyStatusChange}},
			{To: model.BookingCompleted, From: []model.BookingStatus{model.BookingInProgress}, Parties: Customer, Denied: deniedComplete, Effects: []Effect{IncrementCompletedJobs, NotifyStatusChange}},
			{To: model.BookingCancelled, From: active, Parties: Anyone, Effects: []Effect{NotifyStatusChange}},
		},
		[]PaymentRule{
			{To: model.PaymentPending},
			{To: model.PaymentHeld, From: []model.PaymentStatus{model.PaymentPending}},
			{To: model.PaymentReleased, From: []model.PaymentStatus{model.PaymentHeld}, Effects: []Effect{NotifyPaymentReleased}},
			{To: model.PaymentRefunded, From: []model.PaymentStatus{model.PaymentPending, model.PaymentHeld}},
		},
	)
}

func ForMode(strict bool) *Policy {
	if strict {
		return Strict()
	}
	return Lenient()
}

func (p *Policy) Name() string {
	return p.name
}

// Decision is the outcome of applying an update to a booking snapshot.
// FromStatus and FromPayment are the values the write must still find.
type Decision struct {
	FromStatus     model.BookingStatus
	FromPayment    model.PaymentStatus
	Status         model.BookingStatus
	PaymentStatus  model.PaymentStatus
	StatusChanged  bool
	PaymentChanged bool
	Effects        []Effect
}

func (d Decision) Changed() bool {
	return d.StatusChanged || d.PaymentChanged
}

func (d Decision) Has(e Effect) bool {
	return slices.Contains(d.Effects, e)
}

func newDecision(b *model.Booking) Decision {
	return Decision{
		FromStatus:    b.Status,
		FromPayment:   b.PaymentStatus,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
	}
}

// Decide checks an update request against the gate and the transition table.
// Requesting the current value is accepted after the party check and
// produces no change and no effects.
func (p *Policy) Decide(b *model.Booking, a Actor, u model.BookingUpdate) (Decision, error) {
	if err := AuthorizeUpdate(b, a); err != nil {
		return Decision{}, err
	}

	d := newDecision(b)
	party := PartyOf(b, a)

	if u.Status != "" {
		rule, ok := p.status[u.Status]
		if !ok {
			return Decision{}, apperrors.InvalidInput(fmt.Sprintf("Invalid booking status: %s", u.Status))
		}
		if !party.Has(rule.Parties) {
			return Decision{}, apperrors.Forbidden(deniedMessage(rule))
		}
		if u.Status != b.Status {
			if !rule.allowsFrom(b.Status) {
				return Decision{}, apperrors.Conflict(fmt.Sprintf("Cannot change booking status from %s to %s", b.Status, u.Status))
			}
			d.Status = u.Status
			d.StatusChanged = true
			d.Effects = append(d.Effects, rule.Effects...)
		}
	}

	if u.PaymentStatus != "" {
		rule, ok := p.payment[u.PaymentStatus]
		if !ok {
			return Decision{}, apperrors.InvalidInput(fmt.Sprintf("Invalid payment status: %s", u.PaymentStatus))
		}
		if u.PaymentStatus != b.PaymentStatus {
			if !rule.allowsFrom(b.PaymentStatus) {
				return Decision{}, apperrors.Conflict(fmt.Sprintf("Cannot change payment status from %s to %s", b.PaymentStatus, u.PaymentStatus))
			}
			d.PaymentStatus = u.PaymentStatus
			d.PaymentChanged = true
			d.Effects = append(d.Effects, rule.Effects...)
		}
	}

	return d, nil
}

// DecideCancel handles the dedicated cancel operation: status becomes
// cancelled and payment becomes refunded regardless of the payment table.
func (p *Policy) DecideCancel(b *model.Booking, a Actor) (Decision, error) {
	if err := AuthorizeCancel(b, a); err != nil {
		return Decision{}, err
	}

	if b.Status == model.BookingCompleted {
		return Decision{}, apperrors.Conflict("Cannot cancel completed booking")
	}

	rule := p.status[model.BookingCancelled]
	if b.Status != model.BookingCancelled && !rule.allowsFrom(b.Status) {
		return Decision{}, apperrors.Conflict(fmt.Sprintf("Cannot cancel booking in status %s", b.Status))
	}
	if b.Status == model.BookingCancelled && !rule.allowsFrom(model.BookingCancelled) {
		return Decision{}, apperrors.Conflict("Booking is already cancelled")
	}

	d := newDecision(b)
	d.Status = model.BookingCancelled
	d.PaymentStatus = model.PaymentRefunded
	d.StatusChanged = b.Status != model.BookingCancelled
	d.PaymentChanged = b.PaymentStatus != model.PaymentRefunded
	if d.StatusChanged {
		d.Effects = append(d.Effects, rule.Effects...)
	}

	return d, nil
}

func deniedMessage(r StatusRule) string {
	if r.Denied != "" {
		return r.Denied
	}
	return fmt.Sprintf("Not allowed to set booking status to %s", r.To)
}
