package services

import (
	"context"
	"log/slog"
	"sync"

	"spendwise/internal/amqp"
	"spendwise/internal/snapshot"
)

// ChangePublisher is satisfied by *amqp.Client.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// Notifier tells live subscribers that a user's records changed. With a
// publisher the change goes through the broker and the server's consumer
// notifies the hub; without one, or when publishing fails, the hub is
// notified directly. Both happen in the background.
// A nil *Notifier does nothing.
type Notifier struct {
	publisher ChangePublisher
	hub       *snapshot.Hub
	pending   sync.WaitGroup
}

func NewNotifier(publisher ChangePublisher, hub *snapshot.Hub) *Notifier {
	return &Notifier{publisher: publisher, hub: hub}
}

// Changed never fails or delays the caller; the write it announces has
// already succeeded and publish retries can take seconds.
func (n *Notifier) Changed(ctx context.Context, userID string, kind amqp.ChangeKind, entityID string) {
	if n == nil {
		return
	}
	if n.publisher == nil && n.hub == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	msg := amqp.NewChangeMessage(userID, kind, entityID)

	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		if n.publisher != nil {
			err := n.publisher.PublishChange(bg, msg)
			if err == nil {
				return
			}
			slog.ErrorContext(bg, "Failed to publish change message, notifying locally",
				"user_id", userID,
				"kind", kind,
				"error", err)
		}
		if n.hub != nil {
			n.hub.Notify(bg, userID)
		}
	}()
}

// Wait blocks until every announced change has been published or delivered
// to the hub.
func (n *Notifier) Wait() {
	if n != nil {
		n.pending.Wait()
	}
}
