package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "fixify/internal/bookings/errors"
	"fixify/internal/notifications/templates"
	reviewserrors "fixify/internal/reviews/errors"
	"fixify/internal/reviews/repository"
	"fixify/internal/reviews/validator"
	"fixify/pkg/auth"
	"fixify/pkg/config"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/metrics"
	"fixify/pkg/model"
	"fixify/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	MarkReviewed(ctx context.Context, id string) error
}

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	SetRating(ctx context.Context, providerID string, summary model.RatingSummary) error
}

type Notifier interface {
	Dispatch(ns ...*model.Notification)
}

type ReviewService interface {
	Create(ctx context.Context, customerID string, req *model.ReviewRequest) (*model.ReviewView, error)
	ProviderReviews(ctx context.Context, viewer auth.Identity, providerID string, status model.ReviewStatus, limit int, offset int64) ([]*model.ReviewView, int64, error)
	Respond(ctx context.Context, providerID, id string, reply *model.ReviewReply) (*model.ReviewView, error)
	List(ctx context.Context, status model.ReviewStatus, limit int, offset int64) ([]*model.ReviewView, int64, error)
	Moderate(ctx context.Context, id string, m *model.ReviewModeration) (*model.ReviewView, error)
}

type reviewService struct {
	repo      repository.ReviewRepository
	bookings  BookingStore
	users     UserDirectory
	notifier  Notifier
	validator *validator.ReviewValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewReviewService(
	repo repository.ReviewRepository,
	bookings BookingStore,
	users UserDirectory,
	notifier Notifier,
	validator *validator.ReviewValidator,
	cfg *config.Config,
) ReviewService {
	return &reviewService{
		repo:      repo,
		bookings:  bookings,
		users:     users,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *reviewService) Create(ctx context.Context, customerID string, req *model.ReviewRequest) (*model.ReviewView, error) {
	req.Comment = sanitizer.NormalizeText(req.Comment)
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, apperrors.Validation("Review validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	booking, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", req.BookingID)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if booking.Status != model.BookingCompleted {
		return nil, apperrors.Conflict("Can only review completed bookings")
	}
	if booking.CustomerID != customerID {
		return nil, apperrors.Forbidden("Not authorized to review this booking")
	}

	exists, err := s.repo.ExistsForBooking(ctx, booking.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to check existing review", err)
	}
	if exists || booking.HasReview {
		return nil, apperrors.Conflict("You have already reviewed this booking")
	}

	review := &model.Review{
		BookingID:  booking.ID,
		CustomerID: customerID,
		ProviderID: booking.ProviderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Status:     model.ReviewApproved,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, review); err != nil {
			return err
		}
		return s.bookings.MarkReviewed(sessCtx, booking.ID)
	})
	if err != nil {
		if errors.Is(err, reviewserrors.ErrDuplicate) || errors.Is(err, bookingserrors.ErrAlreadyReviewed) {
			return nil, apperrors.Conflict("You have already reviewed this booking")
		}
		s.cfg.Log.Error("Failed to create review", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.cfg.Log.Info("Review created", "id", review.ID, "booking_id", booking.ID, "rating", review.Rating)

	s.recomputeRating(ctx, review.ProviderID)
	view := s.expandOne(ctx, review)
	customerName := "A customer"
	if view.Customer != nil {
		customerName = view.Customer.Name
	}
	s.notifier.Dispatch(templates.NewReview(review, customerName)...)

	return view, nil
}

// ProviderReviews lists one provider's reviews. Approved reviews are public;
// other statuses are visible to the provider and to admins only.
func (s *reviewService) ProviderReviews(ctx context.Context, viewer auth.Identity, providerID string, status model.ReviewStatus, limit int, offset int64) ([]*model.ReviewView, int64, error) {
	if status == "" {
		status = model.ReviewApproved
	}
	if !status.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Invalid review status: %s", status))
	}
	if status != model.ReviewApproved && viewer.UserID != providerID && viewer.Role != string(model.RoleAdmin) {
		return nil, 0, apperrors.Forbidden("Not authorized to view these reviews")
	}

	return s.list(ctx, repository.ReviewFilter{ProviderID: providerID, Status: status}, limit, offset)
}

func (s *reviewService) Respond(ctx context.Context, providerID, id string, reply *model.ReviewReply) (*model.ReviewView, error) {
	reply.Response = sanitizer.NormalizeText(reply.Response)
	if err := s.validator.ValidateReply(reply); err != nil {
		return nil, apperrors.Validation("Review response validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(id, err, "Failed to retrieve review")
	}
	if review.ProviderID != providerID {
		return nil, apperrors.Forbidden("Not authorized to respond to this review")
	}

	updated, err := s.repo.SetResponse(ctx, id, model.ReviewResponse{
		Text: reply.Response,
		Date: s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		return nil, s.mapRepoError(id, err, "Failed to save review response")
	}
	return s.expandOne(ctx, updated), nil
}

func (s *reviewService) List(ctx context.Context, status model.ReviewStatus, limit int, offset int64) ([]*model.ReviewView, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Invalid review status: %s", status))
	}
	return s.list(ctx, repository.ReviewFilter{Status: status}, limit, offset)
}

// Moderate changes a review's visibility and recomputes the provider rating,
// since only approved reviews count towards it.
func (s *reviewService) Moderate(ctx context.Context, id string, m *model.ReviewModeration) (*model.ReviewView, error) {
	if err := s.validator.ValidateModeration(m); err != nil {
		return nil, apperrors.Validation("Review moderation validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	updated, err := s.repo.SetStatus(ctx, id, m.Status)
	if err != nil {
		return nil, s.mapRepoError(id, err, "Failed to update review status")
	}

	s.cfg.Log.Info("Review moderated", "id", id, "status", m.Status)
	s.recomputeRating(ctx, updated.ProviderID)
	return s.expandOne(ctx, updated), nil
}

func (s *reviewService) list(ctx context.Context, filter repository.ReviewFilter, limit int, offset int64) ([]*model.ReviewView, int64, error) {
	var (
		reviews    []*model.Review
		totalCount int64
		findErr    error
		countErr   error
		wg         sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		reviews, findErr = s.repo.FindAll(ctx, filter, limit, offset)
	}()
	go func() {
		defer wg.Done()
		totalCount, countErr = s.repo.Count(ctx, filter)
	}()
	wg.Wait()

	if findErr != nil {
		s.cfg.Log.Error("Failed to list reviews", "provider_id", filter.ProviderID, "error", findErr)
		return nil, 0, apperrors.Internal("Failed to retrieve reviews", findErr)
	}
	if countErr != nil {
		s.cfg.Log.Error("Failed to count reviews", "provider_id", filter.ProviderID, "error", countErr)
		return nil, 0, apperrors.Internal("Failed to count reviews", countErr)
	}

	return s.expand(ctx, reviews), totalCount, nil
}

// recomputeRating is best-effort: the review write has already succeeded.
func (s *reviewService) recomputeRating(ctx context.Context, providerID string) {
	summary, err := s.repo.RatingSummary(ctx, providerID)
	if err == nil {
		summary.Average = roundRating(summary.Average)
		err = s.users.SetRating(ctx, providerID, summary)
	}
	if err != nil {
		metrics.IncSideEffectFailure(metrics.EffectRatingRecompute)
		s.cfg.Log.Error("Failed to recompute provider rating", "provider_id", providerID, "error", err)
	}
}

func (s *reviewService) expandOne(ctx context.Context, r *model.Review) *model.ReviewView {
	return s.expand(ctx, []*model.Review{r})[0]
}

func (s *reviewService) expand(ctx context.Context, reviews []*model.Review) []*model.ReviewView {
	ids := make([]string, 0, len(reviews)*2)
	for _, r := range reviews {
		ids = append(ids, r.CustomerID, r.ProviderID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Warn("Failed to expand review parties", "error", err)
		users = map[string]*model.User{}
	}

	views := make([]*model.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, &model.ReviewView{
			Review:   r,
			Customer: users[r.CustomerID].Summary(),
			Provider: users[r.ProviderID].Summary(),
		})
	}
	return views
}

func (s *reviewService) mapRepoError(id string, err error, msg string) error {
	switch {
	case errors.Is(err, reviewserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Review", id)
	case errors.Is(err, reviewserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid review ID format")
	default:
		s.cfg.Log.Error(msg, "id", id, "error", err)
		return apperrors.Internal(msg, err)
	}
}

func roundRating(avg float64) float64 {
	return float64(int64(avg*100+0.5)) / 100
}
