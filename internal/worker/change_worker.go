// Package worker consumes change messages from the broker and fans them out
// to the live dashboard subscribers of this process.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"spendwise/internal/amqp"
	applog "spendwise/internal/log"
)

const (
	minRetryDelay = time.Second
	maxRetryDelay = 30 * time.Second
	// a consumer that stayed up this long resets the retry delay
	healthyRun = time.Minute
)

// ChangeConsumer is satisfied by *amqp.Client.
type ChangeConsumer interface {
	ConsumeChanges(ctx context.Context, handler func(context.Context, *amqp.ChangeMessage) error) error
}

// Notifier is satisfied by *snapshot.Hub.
type Notifier interface {
	Notify(ctx context.Context, userID string)
}

type ChangeWorker struct {
	consumer ChangeConsumer
	hub      Notifier
	logger   *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewChangeWorker(consumer ChangeConsumer, hub Notifier, logger *slog.Logger) *ChangeWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeWorker{
		consumer: consumer,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// HandleChange refreshes every subscriber of the message's user.
func (w *ChangeWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg == nil || msg.UserID == "" {
		return errors.New("change message without user")
	}
	w.logger.DebugContext(ctx, "Processing change message",
		applog.FieldUserID, msg.UserID,
		applog.FieldChangeKind, msg.Kind,
		"entity_id", msg.EntityID)
	w.hub.Notify(ctx, msg.UserID)
	return nil
}

// Run consumes until ctx ends, reconnecting with a growing delay when the
// consumer fails. It returns nil on cancellation.
func (w *ChangeWorker) Run(ctx context.Context) error {
	delay := minRetryDelay
	for {
		started := w.now()
		err := w.consumer.ConsumeChanges(ctx, w.HandleChange)
		if ctx.Err() != nil {
			w.logger.InfoContext(ctx, "Change worker stopped")
			return nil
		}
		if w.now().Sub(started) >= healthyRun {
			delay = minRetryDelay
		}
		w.logger.WarnContext(ctx, "Change consumption interrupted, retrying",
			applog.FieldError, err,
			"retry_in", delay)
		if err := w.sleep(ctx, delay); err != nil {
			w.logger.InfoContext(ctx, "Change worker stopped")
			return nil
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
