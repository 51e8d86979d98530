package dispatcher

import (
	"context"
	"fmt"

	"fixify/pkg/kafka"
	"fixify/pkg/model"
)

const (
	EventNotificationCreated = "notification.created"
	eventSource              = "fixify-api"
)

type notificationStore interface {
	CreateMany(ctx context.Context, ns []*model.Notification) error
}

// RepositorySink writes notifications straight to the store.
type RepositorySink struct {
	repo notificationStore
}

func NewRepositorySink(repo notificationStore) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Deliver(ctx context.Context, ns []*model.Notification) error {
	return s.repo.CreateMany(ctx, ns)
}

type publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaSink publishes each notification as an event keyed by recipient, so
// one user's notifications stay ordered within a partition.
type KafkaSink struct {
	producer publisher
}

func NewKafkaSink(producer publisher) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Deliver(ctx context.Context, ns []*model.Notification) error {
	for _, n := range ns {
		msg, err := kafka.NewMessage().
			WithKey(n.UserID).
			WithValue(n).
			WithEventType(EventNotificationCreated).
			WithCorrelationID(n.RelatedID).
			WithSource(eventSource).
			Build()
		if err != nil {
			return err
		}
		if err := s.producer.Publish(ctx, msg); err != nil {
			return fmt.Errorf("failed to publish notification for user %s: %w", n.UserID, err)
		}
	}
	return nil
}
