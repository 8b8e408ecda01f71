package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"messenger-service/internal/observability"
)

type client struct {
	conn *websocket.Conn
	info ConnInfo
	// mu serializes writes; gorilla connections allow one writer at a time.
	mu sync.Mutex
}

// Hub owns the live connections and implements Transport for the core
// components. Registry membership and presence transitions are driven
// from here so no handler ever touches them directly.
type Hub struct {
	registry *Registry
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*client

	tracker  *Tracker
	pipeline *Pipeline
	acks     *AckEngine
	typing   *Typing
}

// NewHub creates a hub over the given registry. Attach must be called
// before the first connection is accepted.
func NewHub(registry *Registry, log zerolog.Logger) *Hub {
	return &Hub{
		registry: registry,
		log:      log,
		clients:  make(map[string]*client),
	}
}

// Attach wires the core components. Split from the constructor because
// the tracker and pipeline need the hub as their transport.
func (h *Hub) Attach(tracker *Tracker, pipeline *Pipeline, acks *AckEngine, typing *Typing) {
	h.tracker = tracker
	h.pipeline = pipeline
	h.acks = acks
	h.typing = typing
}

// AddClient registers a freshly upgraded connection, flips presence,
// and seeds the new client with the current online set.
func (h *Hub) AddClient(ctx context.Context, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	h.clients[info.ConnID] = &client{conn: conn, info: info}
	h.mu.Unlock()

	h.registry.Register(info.UserID, info.ConnID)
	h.tracker.OnConnectionAdded(ctx, info.UserID)

	h.Send(info.ConnID, EventPresenceSnapshot, PresenceSnapshot{OnlineUserIDs: h.tracker.Snapshot()})
	observability.IncWSActive()
}

// RemoveClient drops a connection from the hub and the registry.
// Transport-level and application-level close paths can both land here;
// the second call is a no-op.
func (h *Hub) RemoveClient(connID string) {
	h.mu.Lock()
	c, existed := h.clients[connID]
	delete(h.clients, connID)
	h.mu.Unlock()

	if existed {
		if c.conn != nil {
			c.conn.Close()
		}
		observability.DecWSActive()
	}

	if userID, _, ok := h.registry.Unregister(connID); ok {
		h.tracker.OnConnectionRemoved(userID)
	}
}

// Send writes one event to one connection. A failed write tears the
// connection down; delivery is fire-and-forget.
func (h *Hub) Send(connID string, event string, payload any) {
	h.mu.RLock()
	c := h.clients[connID]
	h.mu.RUnlock()
	if c == nil || c.conn == nil {
		return
	}

	data, err := json.Marshal(Frame{Type: event, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("marshal frame")
		return
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.mu.Unlock()
	if err != nil {
		h.log.Warn().Err(err).Str("conn_id", connID).Str("event", event).Msg("websocket write error")
		h.publishWSError(c.info, err)
		h.RemoveClient(connID)
		return
	}
	observability.IncWSEvent(event)
}

// Broadcast sends an event to every live connection process-wide.
func (h *Hub) Broadcast(event string, payload any) {
	h.mu.RLock()
	connIDs := make([]string, 0, len(h.clients))
	for id := range h.clients {
		connIDs = append(connIDs, id)
	}
	h.mu.RUnlock()

	for _, connID := range connIDs {
		h.Send(connID, event, payload)
	}
}

// CloseConnection closes the underlying transport; the read loop's exit
// performs the actual cleanup.
func (h *Hub) CloseConnection(connID string) {
	h.mu.RLock()
	c := h.clients[connID]
	h.mu.RUnlock()
	if c != nil && c.conn != nil {
		c.conn.Close()
	}
}

// HandleInbound dispatches one decoded client frame. The sender's
// identity comes from the registry, never from the frame.
func (h *Hub) HandleInbound(ctx context.Context, connID string, raw []byte) {
	userID, ok := h.registry.Owner(connID)
	if !ok {
		return
	}

	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		h.log.Debug().Err(err).Str("conn_id", connID).Msg("bad inbound frame")
		h.Send(connID, EventError, ErrorPayload{Message: "malformed frame"})
		return
	}
	observability.IncWSEvent(in.Type)

	switch in.Type {
	case InboundJoin:
		// The handshake already joined the connection; re-seed the
		// online set for clients that re-send join after a reconnect.
		h.Send(connID, EventPresenceSnapshot, PresenceSnapshot{OnlineUserIDs: h.tracker.Snapshot()})
	case InboundMessageSubmit:
		if _, err := h.pipeline.Submit(ctx, userID, in.ReceiverID, in.Body, in.MessageType); err != nil {
			h.log.Error().Err(err).Int("sender_id", userID).Msg("message submit failed")
			h.Send(connID, EventError, ErrorPayload{Message: "message could not be sent"})
		}
	case InboundTypingStart:
		h.typing.Update(userID, in.ToUserID, true)
	case InboundTypingStop:
		h.typing.Update(userID, in.ToUserID, false)
	case InboundAckSeenAll:
		if _, err := h.acks.MarkAllSeen(ctx, in.SenderID, userID); err != nil {
			h.log.Error().Err(err).Int("receiver_id", userID).Msg("seen-all failed")
			h.Send(connID, EventError, ErrorPayload{Message: "could not mark messages seen"})
		}
	case InboundForceLogout:
		h.tracker.ForceOffline(ctx, userID)
	default:
		h.log.Debug().Str("type", in.Type).Msg("unknown inbound event")
	}
}

// SendToUser fans one event out to every live connection of a user.
func (h *Hub) SendToUser(userID int, event string, payload any) {
	for _, connID := range h.registry.ConnectionsFor(userID) {
		h.Send(connID, event, payload)
	}
}

func (h *Hub) publishWSError(info ConnInfo, cause error) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      cause.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.messenger", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}
