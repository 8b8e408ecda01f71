package ws

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

// AckStore is the read-state slice of the durable store.
type AckStore interface {
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	UpdateStatus(ctx context.Context, messageID int, status string) error
	MarkAllSeen(ctx context.Context, senderID int, receiverID int) (int64, error)
}

// AckEngine processes receiver-side acknowledgements and pushes status
// changes back to the sender's connections.
type AckEngine struct {
	store    AckStore
	registry *Registry
	sender   Sender
	log      zerolog.Logger
}

// NewAckEngine constructs an AckEngine.
func NewAckEngine(store AckStore, registry *Registry, sender Sender, log zerolog.Logger) *AckEngine {
	return &AckEngine{store: store, registry: registry, sender: sender, log: log}
}

// Acknowledge bumps one message's status forward. Re-acknowledging an
// equal or lower status is a no-op, never an error. The sender's live
// connections are notified of a real transition.
func (a *AckEngine) Acknowledge(ctx context.Context, messageID int, status string) error {
	if models.StatusRank(status) <= models.StatusRank(models.StatusSent) {
		return fmt.Errorf("invalid acknowledgement status %q", status)
	}

	msg, err := a.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if models.StatusRank(status) <= models.StatusRank(msg.Status) {
		return nil
	}

	if err := a.store.UpdateStatus(ctx, messageID, status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	for _, connID := range a.registry.ConnectionsFor(msg.SenderID) {
		a.sender.Send(connID, EventMessageDelivered, MessageDelivered{MessageID: messageID, Status: status})
	}
	observability.IncMessageStamped(status)
	return nil
}

// MarkAllSeen bulk-transitions every message from sender to receiver
// into "seen" with a single store operation and notifies the sender so
// its UI can update the whole thread at once. Idempotent: a repeat call
// updates zero rows.
func (a *AckEngine) MarkAllSeen(ctx context.Context, senderID int, receiverID int) (int64, error) {
	count, err := a.store.MarkAllSeen(ctx, senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("mark all seen: %w", err)
	}

	for _, connID := range a.registry.ConnectionsFor(senderID) {
		a.sender.Send(connID, EventMessageSeenBulk, SeenBulk{SenderID: senderID, ReceiverID: receiverID})
	}
	if count > 0 {
		observability.IncMessageStamped(models.StatusSeen)
	}
	return count, nil
}
