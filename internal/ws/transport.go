package ws

// Sender delivers events to live connections. Fire-and-forget: a write
// failure closes the connection but is never surfaced to the caller.
type Sender interface {
	Send(connID string, event string, payload any)
	Broadcast(event string, payload any)
}

// Transport extends Sender with the ability to tear a connection down,
// needed by the forced-logout path.
type Transport interface {
	Sender
	CloseConnection(connID string)
}
