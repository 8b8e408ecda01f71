package ws

// Typing routes ephemeral typing signals to the addressee's live
// connections. Nothing is persisted and an unreachable addressee drops
// the signal silently.
type Typing struct {
	registry *Registry
	sender   Sender
}

// NewTyping constructs the typing router.
func NewTyping(registry *Registry, sender Sender) *Typing {
	return &Typing{registry: registry, sender: sender}
}

// Update fans the signal out to the addressee only.
func (t *Typing) Update(fromUserID int, toUserID int, isTyping bool) {
	for _, connID := range t.registry.ConnectionsFor(toUserID) {
		t.sender.Send(connID, EventTypingUpdate, TypingUpdate{FromUserID: fromUserID, IsTyping: isTyping})
	}
}
