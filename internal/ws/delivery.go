package ws

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

// ErrInvalidMessageType rejects submissions before anything persists.
var ErrInvalidMessageType = errors.New("invalid message type")

// MessageStore is the durable-store contract the pipeline consumes.
type MessageStore interface {
	InsertMessage(ctx context.Context, senderID int, receiverID int, body string, messageType string) (models.Message, error)
	UpdateStatus(ctx context.Context, messageID int, status string) error
}

// ActivityStore records sender activity as a best-effort side effect.
type ActivityStore interface {
	TouchLastActive(ctx context.Context, userID int) error
}

// Pipeline takes an outbound message, persists it, and fans it out to
// the correct live connections with an accurate status stamp.
type Pipeline struct {
	store    MessageStore
	activity ActivityStore
	registry *Registry
	sender   Sender
	log      zerolog.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(store MessageStore, activity ActivityStore, registry *Registry, sender Sender, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		activity: activity,
		registry: registry,
		sender:   sender,
		log:      log,
	}
}

// Submit persists and delivers one message.
//
// The message is stored with status "sent" before any fan-out; a store
// failure reaches the submitting connection only and nothing is
// delivered. The sender's own connections always get message.sent so
// other devices stay in sync. The receiver's reachability is decided by
// one registry snapshot: reachable stamps "delivered" and fans out,
// unreachable leaves the message at rest for the next history fetch.
func (p *Pipeline) Submit(ctx context.Context, senderID int, receiverID int, body string, messageType string) (models.Message, error) {
	if messageType == "" {
		messageType = models.TypeText
	}
	if !models.ValidMessageType(messageType) {
		return models.Message{}, fmt.Errorf("%w: %q", ErrInvalidMessageType, messageType)
	}

	msg, err := p.store.InsertMessage(ctx, senderID, receiverID, body, messageType)
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}

	for _, connID := range p.registry.ConnectionsFor(senderID) {
		p.sender.Send(connID, EventMessageSent, MessageSent{Message: msg})
	}

	receiverConns := p.registry.ConnectionsFor(receiverID)
	if len(receiverConns) > 0 {
		if err := p.store.UpdateStatus(ctx, msg.ID, models.StatusDelivered); err != nil {
			// Deliver anyway, but without the delivered stamp: the
			// persisted row still says "sent" and the stamp must not
			// run ahead of it.
			p.log.Warn().Err(err).Int("message_id", msg.ID).Msg("delivered stamp failed")
		} else {
			msg.Status = models.StatusDelivered
			for _, connID := range p.registry.ConnectionsFor(senderID) {
				p.sender.Send(connID, EventMessageDelivered, MessageDelivered{MessageID: msg.ID, Status: models.StatusDelivered})
			}
		}
		for _, connID := range receiverConns {
			p.sender.Send(connID, EventMessageReceive, MessageReceive{Message: msg, PlaySound: true})
		}
	}
	observability.IncMessageStamped(msg.Status)

	go func() {
		if err := p.activity.TouchLastActive(context.Background(), senderID); err != nil {
			p.log.Debug().Err(err).Int("user_id", senderID).Msg("last-active touch failed")
		}
	}()

	return msg, nil
}
