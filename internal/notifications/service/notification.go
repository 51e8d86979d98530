package service

import (
	"context"
	"errors"
	"sync"

	notificationserrors "fixify/internal/notifications/errors"
	"fixify/internal/notifications/repository"
	"fixify/pkg/config"
	apperrors "fixify/pkg/errors"
	"fixify/pkg/model"
)

type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int, offset int64) ([]*model.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	cfg  *config.Config
}

func NewNotificationService(repo repository.NotificationRepository, cfg *config.Config) NotificationService {
	return &notificationService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int, offset int64) ([]*model.Notification, int64, error) {
	var count int64
	var notifications []*model.Notification
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, userID, unreadOnly)
	}()

	go func() {
		defer wg.Done()
		notifications, errFind = s.repo.FindByUser(ctx, userID, unreadOnly, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count notifications", "user_id", userID, "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count notifications", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list notifications", "user_id", userID, "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve notifications", errFind)
	}
	return notifications, count, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Count(ctx, userID, true)
	if err != nil {
		s.cfg.Log.Error("Failed to count unread notifications", "user_id", userID, "error", err)
		return 0, apperrors.Internal("Failed to count notifications", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		switch {
		case errors.Is(err, notificationserrors.ErrNotFound):
			return apperrors.NotFoundWithID("Notification", id)
		case errors.Is(err, notificationserrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid notification ID format")
		default:
			s.cfg.Log.Error("Failed to mark notification read", "id", id, "error", err)
			return apperrors.Internal("Failed to update notification", err)
		}
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to mark notifications read", "user_id", userID, "error", err)
		return 0, apperrors.Internal("Failed to update notifications", err)
	}
	s.cfg.Log.Debug("Notifications marked read", "user_id", userID, "count", n)
	return n, nil
}
