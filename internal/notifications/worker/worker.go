// Package worker consumes notification events published by the API and
// persists them.
package worker

import (
	"context"
	"errors"

	"fixify/pkg/kafka"
	"fixify/pkg/logger"
	"fixify/pkg/model"
)

var errMissingRecipient = errors.New("notification has no recipient")

type notificationStore interface {
	CreateMany(ctx context.Context, ns []*model.Notification) error
}

type Worker struct {
	store notificationStore
	log   *logger.Logger
}

func New(store notificationStore, log *logger.Logger) *Worker {
	return &Worker{store: store, log: log}
}

// Handle stores one notification event. Malformed payloads are permanent
// failures; store errors are classified so the consumer can retry them.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	var n model.Notification
	if err := msg.DecodeValue(&n); err != nil {
		return err
	}
	if n.UserID == "" {
		return kafka.NewPermanentError("invalid notification event", errMissingRecipient)
	}
	n.ID = ""
	n.Read = false

	if err := w.store.CreateMany(ctx, []*model.Notification{&n}); err != nil {
		if kafka.ClassifyError(err) == kafka.ErrorTypeTransient {
			return kafka.NewTransientError("failed to store notification", err)
		}
		return kafka.NewPermanentError("failed to store notification", err)
	}

	w.log.Debug("Notification stored",
		"event_id", msg.GetEventID(),
		"correlation_id", msg.GetCorrelationID(),
		"user_id", n.UserID,
		"type", n.Type,
	)
	return nil
}
