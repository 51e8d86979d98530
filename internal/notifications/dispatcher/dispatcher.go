// Package dispatcher decouples notification delivery from the request that
// produced it. Producers enqueue without blocking; a fixed pool of workers
// drains the queue into a Sink.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"fixify/pkg/logger"
	"fixify/pkg/metrics"
	"fixify/pkg/model"
)

// Sink persists or forwards a batch of notifications.
type Sink interface {
	Deliver(ctx context.Context, ns []*model.Notification) error
}

type Dispatcher struct {
	sink    Sink
	log     *logger.Logger
	timeout time.Duration
	workers int

	mu     sync.RWMutex
	queue  chan *model.Notification
	closed bool
	wg     sync.WaitGroup
	start  sync.Once
}

func New(sink Sink, queueSize, workers int, timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		log:     log,
		timeout: timeout,
		workers: max(1, workers),
		queue:   make(chan *model.Notification, max(1, queueSize)),
	}
}

func (d *Dispatcher) Start() {
	d.start.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.run(i)
		}
		d.log.Info("Notification dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
	})
}

// Dispatch enqueues ns and returns immediately. Notifications that do not fit
// in the queue, or arrive after Stop, are dropped and counted.
func (d *Dispatcher) Dispatch(ns ...*model.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, n := range ns {
		if n == nil {
			continue
		}
		if d.closed {
			d.drop(n, "dispatcher stopped")
			continue
		}
		select {
		case d.queue <- n:
			metrics.IncNotification(metrics.NotificationQueued)
		default:
			d.drop(n, "queue full")
		}
	}
}

// Stop closes the queue and waits for workers to drain it or for ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info("Notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.log.Warn("Notification dispatcher stop timed out", "pending", len(d.queue))
		return ctx.Err()
	}
}

func (d *Dispatcher) run(worker int) {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(worker, n)
	}
}

func (d *Dispatcher) deliver(worker int, n *model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Deliver(ctx, []*model.Notification{n}); err != nil {
		metrics.IncNotification(metrics.NotificationFailed)
		metrics.IncSideEffectFailure(metrics.EffectNotification)
		d.log.Error("Failed to deliver notification",
			"worker", worker,
			"user_id", n.UserID,
			"type", n.Type,
			"related_id", n.RelatedID,
			"error", err,
		)
		return
	}
	metrics.IncNotification(metrics.NotificationDelivered)
}

func (d *Dispatcher) drop(n *model.Notification, reason string) {
	metrics.IncNotification(metrics.NotificationDropped)
	d.log.Warn("Notification dropped",
		"reason", reason,
		"user_id", n.UserID,
		"type", n.Type,
		"related_id", n.RelatedID,
	)
}
