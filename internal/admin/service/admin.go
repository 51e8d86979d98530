package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	bookingsrepo "fixify/internal/bookings/repository"
	"fixify/internal/notifications/templates"
	reviewsrepo "fixify/internal/reviews/repository"
	userserrors "fixify/internal/users/errors"
	"fixify/pkg/config"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"
	"fixify/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	FindAll(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, error)
	Count(ctx context.Context, filter model.UserFilter) (int64, error)
	SetVerified(ctx context.Context, providerID string, verified bool) (*model.User, error)
}

type BookingStore interface {
	FindAll(ctx context.Context, filter bookingsrepo.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter bookingsrepo.BookingFilter) (int64, error)
	SumPlatformFee(ctx context.Context, from, to time.Time) (float64, error)
}

type ReviewStore interface {
	FindAll(ctx context.Context, filter reviewsrepo.ReviewFilter, limit int, offset int64) ([]*model.Review, error)
	Count(ctx context.Context, filter reviewsrepo.ReviewFilter) (int64, error)
}

// ReviewModerator is the review workflow admins drive. Moderation goes
// through it so the provider rating is recomputed.
type ReviewModerator interface {
	List(ctx context.Context, status model.ReviewStatus, limit int, offset int64) ([]*model.ReviewView, int64, error)
	Moderate(ctx context.Context, id string, m *model.ReviewModeration) (*model.ReviewView, error)
}

type Notifier interface {
	Dispatch(ns ...*model.Notification)
}

type ListQuery struct {
	Filter string
	Search string
}

type AdminService interface {
	Stats(ctx context.Context) (*model.PlatformStats, error)
	Activity(ctx context.Context) ([]*model.ActivityItem, error)
	Users(ctx context.Context, q ListQuery, limit int, offset int64) ([]*model.User, int64, error)
	Providers(ctx context.Context, q ListQuery, limit int, offset int64) ([]*model.User, int64, error)
	VerifyProvider(ctx context.Context, id string) (*model.User, error)
	Bookings(ctx context.Context, q ListQuery, limit int, offset int64) ([]*model.BookingView, int64, error)
	Reviews(ctx context.Context, q ListQuery, limit int, offset int64) ([]*model.ReviewView, int64, error)
	ModerateReview(ctx context.Context, id string, m *model.ReviewModeration) (*model.ReviewView, error)
}

type adminService struct {
	users    UserStore
	bookings BookingStore
	reviews  ReviewStore
	moderate ReviewModerator
	notifier Notifier
	cfg      *config.Config
	now      func() time.Time
}

func NewAdminService(
	users UserStore,
	bookings BookingStore,
	reviews ReviewStore,
	moderate ReviewModerator,
	notifier Notifier,
	cfg *config.Config,
) AdminService {
	return &adminService{
		users:    users,
		bookings: bookings,
		reviews:  reviews,
		moderate: moderate,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

var nonAdmin = []model.Role{model.RoleCustomer, model.RoleProvider}

func (s *adminService) Stats(ctx context.Context) (*model.PlatformStats, error) {
	stats := &model.PlatformStats{}
	active, verified := true, true

	userCounts := []struct {
		dst    *int64
		filter model.UserFilter
	}{
		{&stats.TotalUsers, model.UserFilter{Roles: nonAdmin}},
		{&stats.TotalCustomers, model.UserFilter{Role: model.RoleCustomer}},
		{&stats.TotalProviders, model.UserFilter{Role: model.RoleProvider}},
		{&stats.ActiveProviders, model.UserFilter{Role: model.RoleProvider, Active: &active}},
		{&stats.VerifiedProviders, model.UserFilter{Role: model.RoleProvider, Verified: &verified}},
	}
	bookingCounts := []struct {
		dst    *int64
		filter bookingsrepo.BookingFilter
	}{
		{&stats.TotalBookings, bookingsrepo.BookingFilter{}},
		{&stats.PendingBookings, bookingsrepo.BookingFilter{Status: model.BookingPending}},
		{&stats.InProgressBookings, bookingsrepo.BookingFilter{Status: model.BookingInProgress}},
		{&stats.CompletedBookings, bookingsrepo.BookingFilter{Status: model.BookingCompleted}},
		{&stats.CancelledBookings, bookingsrepo.BookingFilter{Status: model.BookingCancelled}},
	}

	monthStart, monthEnd := monthBounds(s.now())

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range userCounts {
		g.Go(func() (err error) {
			*c.dst, err = s.users.Count(gctx, c.filter)
			return err
		})
	}
	for _, c := range bookingCounts {
		g.Go(func() (err error) {
			*c.dst, err = s.bookings.Count(gctx, c.filter)
			return err
		})
	}
	g.Go(func() (err error) {
		stats.TotalReviews, err = s.reviews.Count(gctx, reviewsrepo.ReviewFilter{})
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.bookings.SumPlatformFee(gctx, time.Time{}, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		stats.MonthlyRevenue, err = s.bookings.SumPlatformFee(gctx, monthStart, monthEnd)
		return err
	})

	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to compute platform stats", "error", err)
		return nil, apperrors.Internal("Failed to retrieve statistics", err)
	}
	return stats, nil
}

// Activity merges the newest registrations, bookings and reviews into one
// feed, newest first.
func (s *adminService) Activity(ctx context.Context) ([]*model.ActivityItem, error) {
	size := config.DefaultRecentActivitySize

	var (
		users    []*model.User
		bookings []*model.Booking
		reviews  []*model.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.users.FindAll(gctx, model.UserFilter{Roles: nonAdmin}, size, 0)
		return err
	})
	g.Go(func() (err error) {
		bookings, err = s.bookings.FindAll(gctx, bookingsrepo.BookingFilter{}, size, 0)
		return err
	})
	g.Go(func() (err error) {
		reviews, err = s.reviews.FindAll(gctx, reviewsrepo.ReviewFilter{}, size, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to load recent activity", "error", err)
		return nil, apperrors.Internal("Failed to retrieve activity", err)
	}

	ids := make([]string, 0, len(bookings)+len(reviews))
	for _, b := range bookings {
		ids = append(ids, b.ProviderID)
	}
	for _, r := range reviews {
		ids = append(ids, r.ProviderID)
	}
	names := s.names(ctx, ids)

	items := make([]*model.ActivityItem, 0, len(users)+len(bookings)+len(reviews))
	for _, u := range users {
		items = append(items, &model.ActivityItem{
			Type:        model.ActivityUser,
			Title:       "New user registered",
			Description: fmt.Sprintf("%s joined as a %s", u.Name, u.Role),
			RelatedID:   u.ID,
			Timestamp:   u.CreatedAt,
		})
	}
	for _, b := range bookings {
		title := "New booking"
		if b.Status == model.BookingCompleted {
			title = "Booking completed"
		}
		items = append(items, &model.ActivityItem{
			Type:        model.ActivityBooking,
			Title:       title,
			Description: fmt.Sprintf("%s by %s", b.Service.Name, names[b.ProviderID]),
			RelatedID:   b.ID,
			Timestamp:   b.CreatedAt,
		})
	}
	for _, r := range reviews {
		items = append(items, &model.ActivityItem{
			Type:        model.ActivityReview,
			Title:       "New review posted",
			Description: fmt.Sprintf("%d-star review for %s", r.Rating, names[r.ProviderID]),
			RelatedID:   r.ID,
			Timestamp:   r.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if len(items) > size {
		items = items[:size]
	}
	return items, nil
}

func (s *adminService) Users(ctx context.Context, q ListQuery, limit int, offset int64) ([]*model.User, int64, error) {
	filter := model.UserFilter{Roles: nonAdmin, Search: sanitizer.TrimAndNormalize(q.Search)}
	switch q.Filter {
	case "", "all":
	case "customers":
		filter.Role = model.RoleCustomer
	case "providers":
		filter.Role = model.RoleProvider
	case "active":
		active := true
		filter.Active = &active
	case "inactive":
		active := false
		filter.Active = &active
	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Invalid user filter: %s", q.Filter))
	}
	return s.listUsers(ctx, filter, limit, offset)
}

func (s *adminService) Providers(ctx context.Context, q ListQuery, limit int, offset int64) ([]*model.User, int64, error) {
	filter := model.UserFilter{Role: model.RoleProvider, Search: sanitizer.TrimAndNormalize(q.Search)}
	switch q.Filter {
	case "", "all":
	case "verified":
		verified := true
		filter.Verified = &verified
	case "pending":
		verified := false
		filter.Verified = &verified
	case "suspended":
		active := false
		filter.Active = &active
	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Invalid provider filter: %s", q.Filter))
	}
	return s.listUsers(ctx, filter, limit, offset)
}

func (s *adminService) VerifyProvider(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, userserrors.ErrNotFound), errors.Is(err, userserrors.ErrInvalidID):
		return nil, apperrors.NotFound("Provider")
	default:
		return nil, apperrors.Internal("Failed to retrieve provider", err)
	}
	if !user.IsProvider() {
		return nil, apperrors.NotFound("Provider")
	}

	updated, err := s.users.SetVerified(ctx, id, true)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Provider")
		}
		s.cfg.Log.Error("Failed to verify provider", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to verify provider", err)
	}

	s.cfg.Log.Info("Provider verified", "id", id)
	if user.ProviderInfo == nil || !user.ProviderInfo.Verified {
		s.notifier.Dispatch(templates.ProviderVerified(id)...)
	}
	return updated, nil
}

// Bookings searches by booking id, service name and party name. Party names
// are resolved to ids first, capped at the admin search limit.
func (s *adminService) Bookings(ctx context.Context, q ListQuery, limit int, offset int64) ([]*model.BookingView, int64, error) {
	var filter bookingsrepo.BookingFilter
	if q.Filter != "" && q.Filter != "all" {
		status := model.BookingStatus(q.Filter)
		if !status.Valid() {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Invalid booking status: %s", q.Filter))
		}
		filter.Status = status
	}

	if search := sanitizer.TrimAndNormalize(q.Search); search != "" {
		filter.Search = search
		matches, err := s.users.FindAll(ctx, model.UserFilter{Search: search}, config.DefaultAdminSearchLimit, 0)
		if err != nil {
			return nil, 0, apperrors.Internal("Failed to search bookings", err)
		}
		for _, u := range matches {
			switch u.Role {
			case model.RoleCustomer:
				filter.CustomerIDs = append(filter.CustomerIDs, u.ID)
			case model.RoleProvider:
				filter.ProviderIDs = append(filter.ProviderIDs, u.ID)
			}
		}
	}

	var (
		bookings []*model.Booking
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		bookings, err = s.bookings.FindAll(gctx, filter, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.bookings.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list bookings", "status", filter.Status, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	ids := make([]string, 0, len(bookings)*2)
	for _, b := range bookings {
		ids = append(ids, b.CustomerID, b.ProviderID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Warn("Failed to expand booking parties", "error", err)
		users = map[string]*model.User{}
	}

	views := make([]*model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, &model.BookingView{
			Booking:  b,
			Customer: users[b.CustomerID].Summary(),
			Provider: users[b.ProviderID].Summary(),
		})
	}
	return views, total, nil
}

func (s *adminService) Reviews(ctx context.Context, q ListQuery, limit int, offset int64) ([]*model.ReviewView, int64, error) {
	status := model.ReviewStatus(q.Filter)
	if status == "all" {
		status = ""
	}
	return s.moderate.List(ctx, status, limit, offset)
}

func (s *adminService) ModerateReview(ctx context.Context, id string, m *model.ReviewModeration) (*model.ReviewView, error) {
	return s.moderate.Moderate(ctx, id, m)
}

func (s *adminService) listUsers(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, int64, error) {
	var (
		users []*model.User
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.users.FindAll(gctx, filter, limit, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.users.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list users", "role", filter.Role, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve users", err)
	}
	return users, total, nil
}

func (s *adminService) names(ctx context.Context, ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve user names", "error", err)
	}
	for _, id := range ids {
		if u, ok := users[id]; ok {
			names[id] = u.Name
		} else {
			names[id] = "Unknown"
		}
	}
	return names
}

// monthBounds returns the UTC start of t's month and of the next one.
func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
