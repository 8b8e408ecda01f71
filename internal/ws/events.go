package ws

import (
	"time"

	"messenger-service/internal/models"
)

// Outbound event names. These are the only events the service emits to
// connections.
const (
	EventPresenceUpdate   = "presence.update"
	EventPresenceSnapshot = "presence.snapshot"
	EventMessageSent      = "message.sent"
	EventMessageDelivered = "message.delivered"
	EventMessageReceive   = "message.receive"
	EventMessageSeenBulk  = "message.seen_bulk"
	EventMessageDeleted   = "message.deleted"
	EventTypingUpdate     = "typing.update"
	EventForceClosed      = "session.force_closed"
	EventError            = "error"
)

// Inbound event names accepted from connections.
const (
	InboundJoin          = "connection.join"
	InboundMessageSubmit = "message.submit"
	InboundTypingStart   = "typing.start"
	InboundTypingStop    = "typing.stop"
	InboundAckSeenAll    = "ack.seen_all"
	InboundForceLogout   = "session.force_logout"
)

// Frame wraps every outbound event.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Inbound is the decoded client frame. The type field selects which of
// the remaining fields are meaningful.
type Inbound struct {
	Type        string `json:"type"`
	ReceiverID  int    `json:"receiver_id,omitempty"`
	Body        string `json:"body,omitempty"`
	MessageType string `json:"message_type,omitempty"`
	ToUserID    int    `json:"to_user_id,omitempty"`
	SenderID    int    `json:"sender_id,omitempty"`
}

// PresenceUpdate is broadcast to all connections on an online/offline
// transition.
type PresenceUpdate struct {
	UserID   int       `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// PresenceSnapshot seeds a newly joined connection with who is online.
type PresenceSnapshot struct {
	OnlineUserIDs []int `json:"online_user_ids"`
}

// MessageSent notifies the sender's own connections of a stored message.
type MessageSent struct {
	Message models.Message `json:"message"`
}

// MessageDelivered notifies the sender's connections of a status change.
type MessageDelivered struct {
	MessageID int    `json:"message_id"`
	Status    string `json:"status"`
}

// MessageReceive carries a message to the receiver's connections.
type MessageReceive struct {
	Message   models.Message `json:"message"`
	PlaySound bool           `json:"play_sound"`
}

// SeenBulk tells the sender every message in the thread is now seen.
type SeenBulk struct {
	SenderID   int `json:"sender_id"`
	ReceiverID int `json:"receiver_id"`
}

// MessageDeleted notifies both parties of a delete-for-everyone.
type MessageDeleted struct {
	MessageID int `json:"message_id"`
}

// TypingUpdate is the ephemeral typing signal, routed to the addressee.
type TypingUpdate struct {
	FromUserID int  `json:"from_user_id"`
	IsTyping   bool `json:"is_typing"`
}

// ErrorPayload reports a failed operation to the submitting connection.
type ErrorPayload struct {
	Message string `json:"message"`
}
