package worker

import (
	"context"
	"errors"
	"testing"

	"fixify/pkg/kafka"
	"fixify/pkg/logger"
	"fixify/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	got []*model.Notification
	err error
}

func (s *fakeStore) CreateMany(ctx context.Context, ns []*model.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, ns...)
	return nil
}

func event(t *testing.T, v any) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().WithKey("u1").WithValue(v).Build()
	require.NoError(t, err)
	return msg
}

func TestHandle_Stores(t *testing.T) {
	store := &fakeStore{}
	w := New(store, logger.Discard())

	err := w.Handle(context.Background(), event(t, model.Notification{
		ID:     "client-supplied",
		UserID: "u1",
		Type:   model.NotificationBooking,
		Title:  "Booking Confirmed",
		Read:   true,
	}))
	require.NoError(t, err)
	require.Len(t, store.got, 1)
	assert.Empty(t, store.got[0].ID)
	assert.False(t, store.got[0].Read)
	assert.Equal(t, "Booking Confirmed", store.got[0].Title)
}

func TestHandle_Classification(t *testing.T) {
	var kerr *kafka.KafkaError

	w := New(&fakeStore{}, logger.Discard())
	err := w.Handle(context.Background(), kafka.Message{Value: []byte("{")})
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kafka.ErrorTypePermanent, kerr.Type)

	err = w.Handle(context.Background(), event(t, model.Notification{Title: "no recipient"}))
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kafka.ErrorTypePermanent, kerr.Type)

	w = New(&fakeStore{err: errors.New("server selection timeout")}, logger.Discard())
	err = w.Handle(context.Background(), event(t, model.Notification{UserID: "u1"}))
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kafka.ErrorTypeTransient, kerr.Type)
}
