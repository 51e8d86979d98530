package service

import (
	"context"
	"errors"
	"math"
	"sync"

	bookingserrors "fixify/internal/bookings/errors"
	"fixify/internal/bookings/lifecycle"
	"fixify/internal/bookings/repository"
	"fixify/internal/bookings/validator"
	"fixify/internal/notifications/templates"
	userserrors "fixify/internal/users/errors"
	"fixify/pkg/config"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/metrics"
	"fixify/pkg/model"
	"fixify/pkg/sanitizer"
)

// UserDirectory is the slice of the user store bookings depend on.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	IncrementCompletedJobs(ctx context.Context, providerID string) error
}

// Notifier accepts notifications for asynchronous delivery. Dispatch must
// not block the caller.
type Notifier interface {
	Dispatch(ns ...*model.Notification)
}

const (
	ListAsCustomer = "customer"
	ListAsProvider = "provider"
)

type ListQuery struct {
	Role   string
	Status model.BookingStatus
}

type BookingService interface {
	Create(ctx context.Context, actor lifecycle.Actor, req *model.BookingRequest) (*model.BookingView, error)
	List(ctx context.Context, actor lifecycle.Actor, q ListQuery, limit int, offset int64) ([]*model.BookingView, int64, error)
	GetByID(ctx context.Context, actor lifecycle.Actor, id string) (*model.BookingView, error)
	Update(ctx context.Context, actor lifecycle.Actor, id string, update *model.BookingUpdate) (*model.BookingView, error)
	Cancel(ctx context.Context, actor lifecycle.Actor, id string) (*model.BookingView, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	users     UserDirectory
	notifier  Notifier
	policy    *lifecycle.Policy
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	users UserDirectory,
	notifier Notifier,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	policy := lifecycle.ForMode(cfg.StrictTransitions)
	cfg.Log.Info("Booking transition policy selected", "policy", policy.Name())
	return &bookingService{
		repo:      repo,
		users:     users,
		notifier:  notifier,
		policy:    policy,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, actor lifecycle.Actor, req *model.BookingRequest) (*model.BookingView, error) {
	s.sanitize(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "customer_id", actor.UserID, "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	provider, err := s.users.FindByID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Provider", req.ProviderID)
		}
		return nil, apperrors.Internal("Failed to retrieve provider", err)
	}
	if !provider.IsProvider() {
		return nil, apperrors.NotFoundWithID("Provider", req.ProviderID)
	}

	fee := platformFee(req.Service.Price, s.cfg.PlatformFeeRate)
	booking := &model.Booking{
		CustomerID:    actor.UserID,
		ProviderID:    provider.ID,
		Service:       req.Service,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Address:       req.Address,
		ContactPhone:  req.ContactPhone,
		ContactEmail:  req.ContactEmail,
		Notes:         req.Notes,
		Status:        model.BookingPending,
		PaymentStatus: model.PaymentPending,
		PlatformFee:   fee,
		TotalAmount:   roundCents(req.Service.Price + fee),
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "customer_id", actor.UserID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	metrics.IncBookingCreated()
	s.notifier.Dispatch(templates.BookingCreated(booking)...)

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"customer_id", booking.CustomerID,
		"provider_id", booking.ProviderID,
		"total_amount", booking.TotalAmount,
	)
	return s.expandOne(ctx, booking), nil
}

func (s *bookingService) List(ctx context.Context, actor lifecycle.Actor, q ListQuery, limit int, offset int64) ([]*model.BookingView, int64, error) {
	filter := repository.BookingFilter{Status: q.Status}
	switch q.Role {
	case ListAsProvider:
		filter.ProviderID = actor.UserID
	case ListAsCustomer, "":
		filter.CustomerID = actor.UserID
	default:
		return nil, 0, apperrors.InvalidInput("role must be one of: customer provider")
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, apperrors.InvalidInput("Invalid booking status: " + string(q.Status))
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return s.expand(ctx, bookings), count, nil
}

func (s *bookingService) GetByID(ctx context.Context, actor lifecycle.Actor, id string) (*model.BookingView, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.AuthorizeRead(booking, actor); err != nil {
		return nil, err
	}
	return s.expandOne(ctx, booking), nil
}

// Update runs the gate and transition table against a snapshot, then writes
// the result conditionally on that snapshot's status pair. Effects run only
// after the write lands.
func (s *bookingService) Update(ctx context.Context, actor lifecycle.Actor, id string, update *model.BookingUpdate) (*model.BookingView, error) {
	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, apperrors.Validation("Booking update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.policy.Decide(booking, actor, *update)
	if err != nil {
		s.cfg.Log.Warn("Booking update rejected",
			"id", id,
			"actor_id", actor.UserID,
			"status", update.Status,
			"payment_status", update.PaymentStatus,
			"error", err,
		)
		return nil, err
	}

	return s.commit(ctx, actor, booking, decision)
}

func (s *bookingService) Cancel(ctx context.Context, actor lifecycle.Actor, id string) (*model.BookingView, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := s.policy.DecideCancel(booking, actor)
	if err != nil {
		s.cfg.Log.Warn("Booking cancellation rejected", "id", id, "actor_id", actor.UserID, "error", err)
		return nil, err
	}

	return s.commit(ctx, actor, booking, decision)
}

func (s *bookingService) commit(ctx context.Context, actor lifecycle.Actor, booking *model.Booking, d lifecycle.Decision) (*model.BookingView, error) {
	if !d.Changed() {
		return s.expandOne(ctx, booking), nil
	}

	updated, err := s.repo.ApplyTransition(ctx, booking.ID, repository.Transition{
		FromStatus:  d.FromStatus,
		FromPayment: d.FromPayment,
		ToStatus:    d.Status,
		ToPayment:   d.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStaleState) {
			metrics.IncBookingConflict()
			s.cfg.Log.Warn("Booking changed concurrently", "id", booking.ID, "actor_id", actor.UserID)
			return nil, apperrors.Conflict("Booking was modified by another request, please retry")
		}
		return nil, s.mapRepoError(booking.ID, err, "Failed to update booking")
	}

	if d.StatusChanged {
		metrics.IncBookingTransition(string(d.FromStatus), string(d.Status))
	}
	s.cfg.Log.Info("Booking updated successfully",
		"id", updated.ID,
		"actor_id", actor.UserID,
		"from_status", d.FromStatus,
		"status", updated.Status,
		"from_payment_status", d.FromPayment,
		"payment_status", updated.PaymentStatus,
	)

	s.applyEffects(ctx, actor, updated, d)
	return s.expandOne(ctx, updated), nil
}

// applyEffects runs after the primary write. Failures are logged and counted
// but never undo or fail the transition.
func (s *bookingService) applyEffects(ctx context.Context, actor lifecycle.Actor, b *model.Booking, d lifecycle.Decision) {
	if d.Has(lifecycle.IncrementCompletedJobs) {
		if err := s.users.IncrementCompletedJobs(ctx, b.ProviderID); err != nil {
			metrics.IncSideEffectFailure(metrics.EffectCompletedJobs)
			s.cfg.Log.Error("Failed to increment provider completed jobs",
				"booking_id", b.ID,
				"provider_id", b.ProviderID,
				"error", err,
			)
		}
	}
	if d.Has(lifecycle.NotifyStatusChange) {
		s.notifier.Dispatch(templates.BookingStatusChanged(b, actor.UserID)...)
	}
	if d.Has(lifecycle.NotifyPaymentReleased) {
		s.notifier.Dispatch(templates.PaymentReleased(b)...)
	}
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(id, err, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) mapRepoError(id string, err error, msg string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		s.cfg.Log.Error(msg, "id", id, "error", err)
		return apperrors.Internal(msg, err)
	}
}

func (s *bookingService) expandOne(ctx context.Context, b *model.Booking) *model.BookingView {
	return s.expand(ctx, []*model.Booking{b})[0]
}

// expand attaches customer and provider summaries. Lookup failures leave the
// summaries empty rather than failing the read.
func (s *bookingService) expand(ctx context.Context, bookings []*model.Booking) []*model.BookingView {
	ids := make([]string, 0, len(bookings)*2)
	for _, b := range bookings {
		ids = append(ids, b.CustomerID, b.ProviderID)
	}

	users := map[string]*model.User{}
	if len(ids) > 0 {
		found, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			s.cfg.Log.Warn("Failed to expand booking parties", "error", err)
		} else {
			users = found
		}
	}

	views := make([]*model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, &model.BookingView{
			Booking:  b,
			Customer: users[b.CustomerID].Summary(),
			Provider: users[b.ProviderID].Summary(),
		})
	}
	return views
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.Service.Name = sanitizer.TrimAndNormalize(req.Service.Name)
	req.Service.Description = sanitizer.NormalizeText(req.Service.Description)
	req.ScheduledTime = sanitizer.TrimAndNormalize(req.ScheduledTime)
	req.Address = sanitizer.TrimAndNormalize(req.Address)
	req.Notes = sanitizer.NormalizeText(req.Notes)
	req.ContactEmail = sanitizer.NormalizeEmail(req.ContactEmail)
	req.ContactPhone = sanitizer.TrimAndNormalize(req.ContactPhone)
	if phone := sanitizer.NormalizePhone(req.ContactPhone); phone != "" {
		req.ContactPhone = phone
	}
}

func platformFee(price, rate float64) float64 {
	return roundCents(price * rate)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
