package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingsrepo "fixify/internal/bookings/repository"
	reviewsrepo "fixify/internal/reviews/repository"
	userserrors "fixify/internal/users/errors"
	"fixify/pkg/config"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// Stubs
// ────────────────────────────────────────────────

type stubUsers struct {
	mu         sync.Mutex
	users      map[string]*model.User
	recent     []*model.User
	counts     map[string]int64
	filters    []model.UserFilter
	countErr   error
	verifyCall int
}

func filterKey(f model.UserFilter) string {
	key := string(f.Role)
	if f.Active != nil && *f.Active {
		key += "+active"
	}
	if f.Verified != nil && *f.Verified {
		key += "+verified"
	}
	return key
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, userserrors.ErrNotFound
}

func (s *stubUsers) FindByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *stubUsers) FindAll(_ context.Context, f model.UserFilter, _ int, _ int64) ([]*model.User, error) {
	s.mu.Lock()
	s.filters = append(s.filters, f)
	s.mu.Unlock()
	if f.Search != "" {
		var out []*model.User
		for _, u := range s.users {
			if u.Name == f.Search {
				out = append(out, u)
			}
		}
		return out, nil
	}
	return s.recent, nil
}

func (s *stubUsers) Count(_ context.Context, f model.UserFilter) (int64, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
	return s.counts[filterKey(f)], nil
}

func (s *stubUsers) SetVerified(_ context.Context, id string, v bool) (*model.User, error) {
	s.verifyCall++
	u := *s.users[id]
	info := *u.ProviderInfo
	info.Verified = v
	u.ProviderInfo = &info
	return &u, nil
}

type stubBookings struct {
	mu         sync.Mutex
	recent     []*model.Booking
	counts     map[model.BookingStatus]int64
	lastFilter bookingsrepo.BookingFilter
	feeRanges  [][2]time.Time
}

func (s *stubBookings) FindAll(_ context.Context, f bookingsrepo.BookingFilter, _ int, _ int64) ([]*model.Booking, error) {
	s.mu.Lock()
	s.lastFilter = f
	s.mu.Unlock()
	return s.recent, nil
}

func (s *stubBookings) Count(_ context.Context, f bookingsrepo.BookingFilter) (int64, error) {
	if f.Status == "" && f.Search == "" {
		var total int64
		for _, n := range s.counts {
			total += n
		}
		return total, nil
	}
	return s.counts[f.Status], nil
}

func (s *stubBookings) SumPlatformFee(_ context.Context, from, to time.Time) (float64, error) {
	s.mu.Lock()
	s.feeRanges = append(s.feeRanges, [2]time.Time{from, to})
	s.mu.Unlock()
	if from.IsZero() {
		return 1500, nil
	}
	return 200, nil
}

type stubReviews struct {
	recent []*model.Review
}

func (s *stubReviews) FindAll(context.Context, reviewsrepo.ReviewFilter, int, int64) ([]*model.Review, error) {
	return s.recent, nil
}

func (s *stubReviews) Count(context.Context, reviewsrepo.ReviewFilter) (int64, error) {
	return int64(len(s.recent)), nil
}

type stubModerator struct {
	lastStatus model.ReviewStatus
}

func (m *stubModerator) List(_ context.Context, status model.ReviewStatus, _ int, _ int64) ([]*model.ReviewView, int64, error) {
	m.lastStatus = status
	return nil, 0, nil
}

func (m *stubModerator) Moderate(_ context.Context, id string, mod *model.ReviewModeration) (*model.ReviewView, error) {
	return &model.ReviewView{Review: &model.Review{ID: id, Status: mod.Status}}, nil
}

type recordingNotifier struct {
	sent []*model.Notification
}

func (n *recordingNotifier) Dispatch(ns ...*model.Notification) {
	n.sent = append(n.sent, ns...)
}

var base = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *adminService
	users     *stubUsers
	bookings  *stubBookings
	reviews   *stubReviews
	moderator *stubModerator
	notifier  *recordingNotifier
}

func newFixture() *fixture {
	f := &fixture{
		users: &stubUsers{
			users: map[string]*model.User{
				"c1": {ID: "c1", Name: "Maria", Role: model.RoleCustomer},
				"p1": {ID: "p1", Name: "Juan", Role: model.RoleProvider, ProviderInfo: &model.ProviderInfo{}},
			},
			counts: map[string]int64{
				"":                  9,
				"customer":          6,
				"provider":          3,
				"provider+active":   2,
				"provider+verified": 1,
			},
		},
		bookings: &stubBookings{counts: map[model.BookingStatus]int64{
			model.BookingPending:   4,
			model.BookingCompleted: 5,
			model.BookingCancelled: 1,
		}},
		reviews:   &stubReviews{},
		moderator: &stubModerator{},
		notifier:  &recordingNotifier{},
	}
	svc := NewAdminService(f.users, f.bookings, f.reviews, f.moderator, f.notifier, config.NewDefault()).(*adminService)
	svc.now = func() time.Time { return base }
	f.svc = svc
	return f
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	return appErr.StatusCode()
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestStats(t *testing.T) {
	f := newFixture()

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(9), stats.TotalUsers)
	assert.Equal(t, int64(6), stats.TotalCustomers)
	assert.Equal(t, int64(3), stats.TotalProviders)
	assert.Equal(t, int64(2), stats.ActiveProviders)
	assert.Equal(t, int64(1), stats.VerifiedProviders)
	assert.Equal(t, int64(10), stats.TotalBookings)
	assert.Equal(t, int64(5), stats.CompletedBookings)
	assert.Equal(t, 1500.0, stats.TotalRevenue)
	assert.Equal(t, 200.0, stats.MonthlyRevenue)

	var month [2]time.Time
	for _, r := range f.bookings.feeRanges {
		if !r[0].IsZero() {
			month = r
		}
	}
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), month[0])
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), month[1])
}

func TestStats_Error(t *testing.T) {
	f := newFixture()
	f.users.countErr = errors.New("boom")
	_, err := f.svc.Stats(context.Background())
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestActivity_MergedNewestFirst(t *testing.T) {
	f := newFixture()
	f.users.recent = []*model.User{{ID: "c1", Name: "Maria", Role: model.RoleCustomer, CreatedAt: base.Add(-3 * time.Hour)}}
	f.bookings.recent = []*model.Booking{
		{ID: "b1", ProviderID: "p1", Status: model.BookingCompleted, Service: model.ServiceSnapshot{Name: "Pipe Repair"}, CreatedAt: base.Add(-1 * time.Hour)},
	}
	f.reviews.recent = []*model.Review{{ID: "r1", ProviderID: "p1", Rating: 5, CreatedAt: base.Add(-2 * time.Hour)}}

	items, err := f.svc.Activity(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Booking completed", items[0].Title)
	assert.Equal(t, "Pipe Repair by Juan", items[0].Description)
	assert.Equal(t, "5-star review for Juan", items[1].Description)
	assert.Equal(t, "Maria joined as a customer", items[2].Description)
}

func TestActivity_CappedAtSize(t *testing.T) {
	f := newFixture()
	for i := range 8 {
		f.users.recent = append(f.users.recent, &model.User{ID: "u", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		f.reviews.recent = append(f.reviews.recent, &model.Review{ID: "r", CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}

	items, err := f.svc.Activity(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, config.DefaultRecentActivitySize)
	assert.Equal(t, model.ActivityUser, items[0].Type)
}

func TestUsersAndProvidersFilters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, total, err := f.svc.Users(ctx, ListQuery{Filter: "customers"}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	_, _, err = f.svc.Users(ctx, ListQuery{Filter: "admins"}, 20, 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, total, err = f.svc.Providers(ctx, ListQuery{Filter: "verified"}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, _, err = f.svc.Providers(ctx, ListQuery{Filter: "suspended", Search: " Juan "}, 20, 0)
	require.NoError(t, err)
	last := f.users.filters[len(f.users.filters)-1]
	require.NotNil(t, last.Active)
	assert.False(t, *last.Active)
	assert.Equal(t, "Juan", last.Search)
}

func TestVerifyProvider(t *testing.T) {
	f := newFixture()

	user, err := f.svc.VerifyProvider(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, user.ProviderInfo.Verified)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "p1", f.notifier.sent[0].UserID)

	_, err = f.svc.VerifyProvider(context.Background(), "c1")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = f.svc.VerifyProvider(context.Background(), "nobody")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.Equal(t, 1, f.users.verifyCall)
}

func TestBookings_SearchResolvesPartyNames(t *testing.T) {
	f := newFixture()
	f.bookings.recent = []*model.Booking{{ID: "b1", CustomerID: "c1", ProviderID: "p1"}}

	views, _, err := f.svc.Bookings(context.Background(), ListQuery{Filter: "completed", Search: "Juan"}, 20, 0)
	require.NoError(t, err)

	filter := f.bookings.lastFilter
	assert.Equal(t, model.BookingCompleted, filter.Status)
	assert.Equal(t, "Juan", filter.Search)
	assert.Equal(t, []string{"p1"}, filter.ProviderIDs)
	assert.Empty(t, filter.CustomerIDs)

	require.Len(t, views, 1)
	assert.Equal(t, "Maria", views[0].Customer.Name)
	assert.Equal(t, "Juan", views[0].Provider.Name)

	_, _, err = f.svc.Bookings(context.Background(), ListQuery{Filter: "archived"}, 20, 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, _, err = f.svc.Bookings(context.Background(), ListQuery{Filter: "all"}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, f.bookings.lastFilter.Status)
}

func TestReviews_AllMeansNoStatus(t *testing.T) {
	f := newFixture()

	_, _, err := f.svc.Reviews(context.Background(), ListQuery{Filter: "all"}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, f.moderator.lastStatus)

	_, _, err = f.svc.Reviews(context.Background(), ListQuery{Filter: "flagged"}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewFlagged, f.moderator.lastStatus)

	view, err := f.svc.ModerateReview(context.Background(), "r1", &model.ReviewModeration{Status: model.ReviewRemoved})
	require.NoError(t, err)
	assert.Equal(t, model.ReviewRemoved, view.Status)
}
