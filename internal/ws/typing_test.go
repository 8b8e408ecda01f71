package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingRoutedToAddresseeOnly(t *testing.T) {
	registry := NewRegistry()
	transport := newFakeTransport()
	typing := NewTyping(registry, transport)

	registry.Register(1, "alice")
	registry.Register(2, "bob1")
	registry.Register(2, "bob2")

	typing.Update(1, 2, true)

	require.Len(t, transport.sentTo("bob1", EventTypingUpdate), 1)
	require.Len(t, transport.sentTo("bob2", EventTypingUpdate), 1)
	assert.Empty(t, transport.sentTo("alice", EventTypingUpdate))

	payload := transport.sentTo("bob1", EventTypingUpdate)[0].Payload.(TypingUpdate)
	assert.Equal(t, 1, payload.FromUserID)
	assert.True(t, payload.IsTyping)
}

func TestTypingDroppedWhenUnreachable(t *testing.T) {
	registry := NewRegistry()
	transport := newFakeTransport()
	typing := NewTyping(registry, transport)

	typing.Update(1, 2, false)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Empty(t, transport.sent)
}
