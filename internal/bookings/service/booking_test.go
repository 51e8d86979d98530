package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingserrors "fixify/internal/bookings/errors"
	"fixify/internal/bookings/lifecycle"
	"fixify/internal/bookings/repository"
	"fixify/internal/bookings/validator"
	userserrors "fixify/internal/users/errors"
	"fixify/pkg/config"
	mongotx "fixify/pkg/db/mongo"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customerID = "aaaaaaaaaaaaaaaaaaaaaaaa"
	providerID = "bbbbbbbbbbbbbbbbbbbbbbbb"
	strangerID = "cccccccccccccccccccccccc"
	adminID    = "dddddddddddddddddddddddd"
)

var (
	customer = lifecycle.Actor{UserID: customerID, Role: model.RoleCustomer}
	provider = lifecycle.Actor{UserID: providerID, Role: model.RoleProvider}
	stranger = lifecycle.Actor{UserID: strangerID, Role: model.RoleCustomer}
	admin    = lifecycle.Actor{UserID: adminID, Role: model.RoleAdmin}
)

// ────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────

type fakeBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	seq      int

	findHook  func(id string)
	createErr error
	writes    int
}

func newFakeRepo(bs ...*model.Booking) *fakeBookingRepository {
	r := &fakeBookingRepository{bookings: map[string]*model.Booking{}}
	for _, b := range bs {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = fmt.Sprintf("%024d", r.seq)
	b.CreatedAt = time.Now()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if len(id) != 24 {
		return nil, bookingserrors.ErrInvalidID
	}
	r.mu.Lock()
	b, ok := r.bookings[id]
	var cp model.Booking
	if ok {
		cp = *b
	}
	r.mu.Unlock()
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if r.findHook != nil {
		r.findHook(id)
	}
	return &cp, nil
}

func (r *fakeBookingRepository) FindAll(ctx context.Context, f repository.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if f.ProviderID != "" && b.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBookingRepository) Count(ctx context.Context, f repository.BookingFilter) (int64, error) {
	bs, _ := r.FindAll(ctx, f, 0, 0)
	return int64(len(bs)), nil
}

func (r *fakeBookingRepository) ApplyTransition(ctx context.Context, id string, t repository.Transition) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != t.FromStatus || b.PaymentStatus != t.FromPayment {
		return nil, bookingserrors.ErrStaleState
	}
	r.writes++
	b.Status = t.ToStatus
	b.PaymentStatus = t.ToPayment
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepository) MarkReviewed(ctx context.Context, id string) error { return nil }

func (r *fakeBookingRepository) SumPlatformFee(ctx context.Context, from, to time.Time) (float64, error) {
	return 0, nil
}

func (r *fakeBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func (r *fakeBookingRepository) get(id string) model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.bookings[id]
}

type fakeUsers struct {
	mu           sync.Mutex
	users        map[string]*model.User
	incremented  map[string]int
	incrementErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users: map[string]*model.User{
			customerID: {ID: customerID, Name: "Ana Reyes", Role: model.RoleCustomer},
			providerID: {ID: providerID, Name: "Ben Cruz", Role: model.RoleProvider, ProviderInfo: &model.ProviderInfo{}},
			strangerID: {ID: strangerID, Name: "Carl Santos", Role: model.RoleCustomer},
		},
		incremented: map[string]int{},
	}
}

func (u *fakeUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	if len(id) != 24 {
		return nil, userserrors.ErrInvalidID
	}
	if usr, ok := u.users[id]; ok {
		return usr, nil
	}
	return nil, userserrors.ErrNotFound
}

func (u *fakeUsers) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if usr, ok := u.users[id]; ok {
			out[id] = usr
		}
	}
	return out, nil
}

func (u *fakeUsers) IncrementCompletedJobs(ctx context.Context, id string) error {
	if u.incrementErr != nil {
		return u.incrementErr
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.incremented[id]++
	return nil
}

func (u *fakeUsers) count(id string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.incremented[id]
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (n *recordingNotifier) Dispatch(ns ...*model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, ns...)
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, x := range n.sent {
		out = append(out, x.UserID+":"+x.Title)
	}
	return out
}

type fixture struct {
	svc      BookingService
	repo     *fakeBookingRepository
	users    *fakeUsers
	notifier *recordingNotifier
}

func newFixture(strict bool, bs ...*model.Booking) *fixture {
	cfg := config.NewDefault()
	cfg.StrictTransitions = strict
	f := &fixture{
		repo:     newFakeRepo(bs...),
		users:    newFakeUsers(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewBookingService(f.repo, f.users, f.notifier, validator.NewBookingValidator(cfg.Log), cfg)
	return f
}

func booking(id string, status model.BookingStatus, payment model.PaymentStatus) *model.Booking {
	return &model.Booking{
		ID:            id,
		CustomerID:    customerID,
		ProviderID:    providerID,
		Service:       model.ServiceSnapshot{Name: "Aircon Cleaning", Price: 1000},
		Status:        status,
		PaymentStatus: payment,
		PlatformFee:   100,
		TotalAmount:   1100,
	}
}

const bookingID = "eeeeeeeeeeeeeeeeeeeeeeee"

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	assert.Equal(t, status, appErr.StatusCode(), appErr.Message)
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func createRequest() *model.BookingRequest {
	return &model.BookingRequest{
		ProviderID:    providerID,
		Service:       model.ServiceSnapshot{Name: "  Aircon   Cleaning ", Price: 1000},
		ScheduledDate: time.Now().Add(72 * time.Hour),
		ScheduledTime: "10:00 AM",
		Address:       "45 Santo Rosario St",
		ContactPhone:  "0917 123 4567",
	}
}

func TestCreate_ComputesFeeAndDefaults(t *testing.T) {
	f := newFixture(false)

	view, err := f.svc.Create(context.Background(), customer, createRequest())
	require.NoError(t, err)

	assert.Equal(t, customerID, view.CustomerID)
	assert.Equal(t, providerID, view.ProviderID)
	assert.Equal(t, 100.0, view.PlatformFee)
	assert.Equal(t, 1100.0, view.TotalAmount)
	assert.Equal(t, model.BookingPending, view.Status)
	assert.Equal(t, model.PaymentPending, view.PaymentStatus)
	assert.False(t, view.HasReview)
	assert.Equal(t, "Aircon Cleaning", view.Service.Name)
	assert.Equal(t, "+639171234567", view.ContactPhone)
	require.NotNil(t, view.Provider)
	assert.Equal(t, "Ben Cruz", view.Provider.Name)

	assert.Equal(t, []string{
		customerID + ":Booking Confirmed",
		providerID + ":New Booking Request",
	}, f.notifier.titles())
}

func TestCreate_RoundsFeeToCents(t *testing.T) {
	f := newFixture(false)
	req := createRequest()
	req.Service.Price = 333.33

	view, err := f.svc.Create(context.Background(), customer, req)
	require.NoError(t, err)
	assert.Equal(t, 33.33, view.PlatformFee)
	assert.Equal(t, 366.66, view.TotalAmount)
}

func TestCreate_ProviderMustExist(t *testing.T) {
	f := newFixture(false)

	req := createRequest()
	req.ProviderID = "ffffffffffffffffffffffff"
	_, err := f.svc.Create(context.Background(), customer, req)
	assertStatus(t, err, http.StatusNotFound)

	req = createRequest()
	req.ProviderID = strangerID
	_, err = f.svc.Create(context.Background(), customer, req)
	assertStatus(t, err, http.StatusNotFound)

	assert.Empty(t, f.notifier.titles())
}

func TestCreate_ValidationAndStoreErrors(t *testing.T) {
	f := newFixture(false)

	req := createRequest()
	req.Address = ""
	_, err := f.svc.Create(context.Background(), customer, req)
	assertStatus(t, err, http.StatusUnprocessableEntity)

	f.repo.createErr = errors.New("disk full")
	_, err = f.svc.Create(context.Background(), customer, createRequest())
	assertStatus(t, err, http.StatusInternalServerError)
}

// ────────────────────────────────────────────────
// Read
// ────────────────────────────────────────────────

func TestGetByID_Gate(t *testing.T) {
	f := newFixture(false, booking(bookingID, model.BookingPending, model.PaymentPending))
	ctx := context.Background()

	for _, a := range []lifecycle.Actor{customer, provider, admin} {
		view, err := f.svc.GetByID(ctx, a, bookingID)
		require.NoError(t, err)
		assert.Equal(t, "Ana Reyes", view.Customer.Name)
	}

	_, err := f.svc.GetByID(ctx, stranger, bookingID)
	assertStatus(t, err, http.StatusForbidden)

	_, err = f.svc.GetByID(ctx, customer, "ffffffffffffffffffffffff")
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.svc.GetByID(ctx, customer, "bad")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestList_ByRole(t *testing.T) {
	other := booking("ffffffffffffffffffffffff", model.BookingCompleted, model.PaymentReleased)
	other.CustomerID = strangerID
	f := newFixture(false, booking(bookingID, model.BookingPending, model.PaymentPending), other)
	ctx := context.Background()

	views, total, err := f.svc.List(ctx, customer, ListQuery{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, bookingID, views[0].ID)

	views, total, err = f.svc.List(ctx, provider, ListQuery{Role: ListAsProvider}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, views, 2)

	views, _, err = f.svc.List(ctx, provider, ListQuery{Role: ListAsProvider, Status: model.BookingCompleted}, 10, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.BookingCompleted, views[0].Status)

	_, _, err = f.svc.List(ctx, customer, ListQuery{Role: "admin"}, 10, 0)
	assertStatus(t, err, http.StatusBadRequest)

	_, _, err = f.svc.List(ctx, customer, ListQuery{Status: "archived"}, 10, 0)
	assertStatus(t, err, http.StatusBadRequest)
}

// ────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────

func TestUpdate_ProviderConfirms(t *testing.T) {
	f := newFixture(false, booking(bookingID, model.BookingPending, model.PaymentPending))

	view, err := f.svc.Update(context.Background(), provider, bookingID, &model.BookingUpdate{Status: model.BookingConfirmed})
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, view.Status)
	assert.Equal(t, []string{customerID + ":Booking Confirmed"}, f.notifier.titles())
}

func TestUpdate_PartyRules(t *testing.T) {
	tests := []struct {
		name   string
		actor  lifecycle.Actor
		update model.BookingUpdate
		status int
	}{
		{"customer cannot confirm", customer, model.BookingUpdate{Status: model.BookingConfirmed}, http.StatusForbidden},
		{"provider cannot complete", provider, model.BookingUpdate{Status: model.BookingCompleted}, http.StatusForbidden},
		{"admin cannot confirm", admin, model.BookingUpdate{Status: model.BookingConfirmed}, http.StatusForbidden},
		{"stranger cannot update", stranger, model.BookingUpdate{Status: model.BookingInProgress}, http.StatusForbidden},
		{"empty update", customer, model.BookingUpdate{}, http.StatusUnprocessableEntity},
		{"unknown status", customer, model.BookingUpdate{Status: "archived"}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false, booking(bookingID, model.BookingPending, model.PaymentPending))
			_, err := f.svc.Update(context.Background(), tt.actor, bookingID, &tt.update)
			assertStatus(t, err, tt.status)
			assert.Equal(t, model.BookingPending, f.repo.get(bookingID).Status)
			assert.Empty(t, f.notifier.titles())
		})
	}
}

func TestUpdate_CustomerCompletesOnce(t *testing.T) {
	f := newFixture(false, booking(bookingID, model.BookingInProgress, model.PaymentHeld))
	ctx := context.Background()
	complete := &model.BookingUpdate{Status: model.BookingCompleted}

	view, err := f.svc.Update(ctx, customer, bookingID, complete)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, view.Status)
	assert.Equal(t, 1, f.users.count(providerID))
	assert.Equal(t, []string{
		customerID + ":Service Completed",
		providerID + ":Service Marked Complete",
	}, f.notifier.titles())

	_, err = f.svc.Update(ctx, customer, bookingID, complete)
	require.NoError(t, err)
	assert.Equal(t, 1, f.users.count(providerID), "repeat completion must not count twice")
	assert.Len(t, f.notifier.titles(), 2)
}

// Re-sending "completed" for a booking that is already completed writes
// nothing and leaves the provider's completed-jobs counter untouched.
func TestUpdate_AlreadyCompletedIsNoOp(t *testing.T) {
	f := newFixture(false, booking(bookingID, model.BookingCompleted, model.PaymentHeld))

	view, err := f.svc.Update(context.Background(), customer, bookingID, &model.BookingUpdate{Status: model.BookingCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, view.Status)
	assert.Equal(t, model.PaymentHeld, view.PaymentStatus)
	assert.Zero(t, f.repo.writes)
	assert.Zero(t, f.users.count(providerID))
	assert.Empty(t, f.notifier.titles())
}

func TestUpdate_PaymentReleased(t *testing.T) {
	f := newFixture(false, booking(bookingID, model.BookingCompleted, model.PaymentHeld))

	view, err := f.svc.Update(context.Background(), customer, bookingID, &model.BookingUpdate{PaymentStatus: model.PaymentReleased})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentReleased, view.PaymentStatus)
	assert.Equal(t, model.BookingCompleted, view.Status)
	assert.Equal(t, []string{providerID + ":Payment Released"}, f.notifier.titles())
}

func TestUpdate_EffectFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(false, booking(bookingID, model.BookingInProgress, model.PaymentHeld))
	f.users.incrementErr = errors.New("users unavailable")

	view, err := f.svc.Update(context.Background(), customer, bookingID, &model.BookingUpdate{Status: model.BookingCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, view.Status)
	assert.Equal(t, model.BookingCompleted, f.repo.get(bookingID).Status)
	assert.Len(t, f.notifier.titles(), 2)
}

func TestUpdate_StrictRejectsSkippedEdges(t *testing.T) {
	f := newFixture(true, booking(bookingID, model.BookingPending, model.PaymentPending))
	ctx := context.Background()

	_, err := f.svc.Update(ctx, customer, bookingID, &model.BookingUpdate{Status: model.BookingCompleted})
	assertStatus(t, err, http.StatusConflict)
	assert.Zero(t, f.users.count(providerID))

	_, err = f.svc.Update(ctx, customer, bookingID, &model.BookingUpdate{PaymentStatus: model.PaymentReleased})
	assertStatus(t, err, http.StatusConflict)

	_, err = f.svc.Update(ctx, provider, bookingID, &model.BookingUpdate{Status: model.BookingConfirmed})
	require.NoError(t, err)
}

func TestUpdate_ConcurrentCompletionCountsOnce(t *testing.T) {
	f := newFixture(false, booking(bookingID, model.BookingInProgress, model.PaymentHeld))

	// Hold both requests after their read so they race on the write.
	var loaded sync.WaitGroup
	loaded.Add(2)
	f.repo.findHook = func(string) {
		loaded.Done()
		loaded.Wait()
	}

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := f.svc.Update(context.Background(), customer, bookingID, &model.BookingUpdate{Status: model.BookingCompleted})
			errs <- err
		}()
	}

	var conflicts int
	for range 2 {
		if err := <-errs; err != nil {
			assertStatus(t, err, http.StatusConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, f.users.count(providerID))
}

// ────────────────────────────────────────────────
// Cancel
// ────────────────────────────────────────────────

func TestCancel(t *testing.T) {
	t.Run("provider cancels and refunds", func(t *testing.T) {
		f := newFixture(false, booking(bookingID, model.BookingConfirmed, model.PaymentHeld))
		view, err := f.svc.Cancel(context.Background(), provider, bookingID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, view.Status)
		assert.Equal(t, model.PaymentRefunded, view.PaymentStatus)
		assert.Equal(t, []string{
			customerID + ":Booking Cancelled",
			providerID + ":Booking Cancelled",
		}, f.notifier.titles())
		assert.Equal(t, "Your booking has been cancelled by the provider.", f.notifier.sent[0].Message)
	})

	t.Run("completed cannot be cancelled", func(t *testing.T) {
		f := newFixture(false, booking(bookingID, model.BookingCompleted, model.PaymentReleased))
		_, err := f.svc.Cancel(context.Background(), customer, bookingID)
		assertStatus(t, err, http.StatusConflict)
		assert.Equal(t, model.PaymentReleased, f.repo.get(bookingID).PaymentStatus)
	})

	t.Run("admin is not a cancelling party", func(t *testing.T) {
		f := newFixture(false, booking(bookingID, model.BookingPending, model.PaymentPending))
		_, err := f.svc.Cancel(context.Background(), admin, bookingID)
		assertStatus(t, err, http.StatusForbidden)
	})

	t.Run("repeat cancel is accepted without new notices", func(t *testing.T) {
		f := newFixture(false, booking(bookingID, model.BookingCancelled, model.PaymentRefunded))
		view, err := f.svc.Cancel(context.Background(), customer, bookingID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, view.Status)
		assert.Empty(t, f.notifier.titles())
	})

	t.Run("strict rejects repeat cancel", func(t *testing.T) {
		f := newFixture(true, booking(bookingID, model.BookingCancelled, model.PaymentRefunded))
		_, err := f.svc.Cancel(context.Background(), customer, bookingID)
		assertStatus(t, err, http.StatusConflict)
	})
}
