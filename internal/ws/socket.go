package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"messenger-service/internal/observability"
)

// IdentityVerifier maps a presented credential to a trusted user id.
// A connection that fails verification never reaches the registry.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (int, error)
}

// SocketHandler upgrades authenticated clients and runs their read loop.
type SocketHandler struct {
	hub      *Hub
	verifier IdentityVerifier
	log      zerolog.Logger
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, verifier IdentityVerifier, log zerolog.Logger) *SocketHandler {
	return &SocketHandler{hub: hub, verifier: verifier, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.verifier.Verify(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	// The connection outlives this request; store calls from the read
	// loop must not inherit its cancellation.
	connCtx := context.WithoutCancel(ctx)

	h.hub.AddClient(connCtx, conn, info)
	h.publishLifecycle(connCtx, info, "ws_connect", "")
	observability.IncWSEvent("ws_connect")

	go h.readLoop(connCtx, conn, info)
}

func (h *SocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveClient(info.ConnID)
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, info, "ws_disconnect", closeReason)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug().Err(err).Str("conn_id", info.ConnID).Msg("websocket read error")
			}
			return
		}
		h.hub.HandleInbound(ctx, info.ConnID, data)
	}
}

func (h *SocketHandler) publishLifecycle(ctx context.Context, info ConnInfo, event string, reason string) {
	_ = observability.PublishEvent(ctx, "ws_events.messenger", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
