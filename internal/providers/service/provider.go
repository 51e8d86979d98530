package service

import (
	"context"
	"errors"

	userserrors "fixify/internal/users/errors"
	"fixify/pkg/config"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"
	"fixify/pkg/sanitizer"
)

type ProviderStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindProviders(ctx context.Context, q model.ProviderQuery) ([]*model.User, error)
}

// ProfileUpdater applies a self-service profile update. The users service
// satisfies it.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate) (*model.User, error)
}

type ProviderService interface {
	List(ctx context.Context, q model.ProviderQuery) ([]*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, callerID, id string, update *model.ProfileUpdate) (*model.User, error)
}

type providerService struct {
	store    ProviderStore
	profiles ProfileUpdater
	cfg      *config.Config
}

func NewProviderService(store ProviderStore, profiles ProfileUpdater, cfg *config.Config) ProviderService {
	return &providerService{
		store:    store,
		profiles: profiles,
		cfg:      cfg,
	}
}

func (s *providerService) List(ctx context.Context, q model.ProviderQuery) ([]*model.User, error) {
	q.Category = sanitizer.TrimAndNormalize(q.Category)
	q.ServiceArea = sanitizer.TrimAndNormalize(q.ServiceArea)
	if q.MinRating != nil && (*q.MinRating < 0 || *q.MinRating > 5) {
		return nil, apperrors.InvalidInput("minRating must be between 0 and 5")
	}

	providers, err := s.store.FindProviders(ctx, q)
	if err != nil {
		s.cfg.Log.Error("Failed to list providers", "category", q.Category, "error", err)
		return nil, apperrors.Internal("Failed to retrieve providers", err)
	}
	return providers, nil
}

func (s *providerService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.FindByID(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, userserrors.ErrNotFound), errors.Is(err, userserrors.ErrInvalidID):
		return nil, apperrors.NotFound("Provider")
	default:
		s.cfg.Log.Error("Failed to retrieve provider", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve provider", err)
	}

	if !user.IsProvider() {
		return nil, apperrors.NotFound("Provider")
	}
	return user, nil
}

func (s *providerService) Update(ctx context.Context, callerID, id string, update *model.ProfileUpdate) (*model.User, error) {
	if callerID != id {
		return nil, apperrors.Forbidden("Not authorized to update this profile")
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.profiles.UpdateProfile(ctx, id, update)
}
