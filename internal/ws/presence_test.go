package ws

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
)

const testDebounce = 20 * time.Millisecond

func newTestTracker(t *testing.T) (*Tracker, *Registry, *fakeTransport, *mocks.UserRepositoryMock) {
	t.Helper()
	registry := NewRegistry()
	transport := newFakeTransport()
	store := new(mocks.UserRepositoryMock)
	store.On("UpsertPresence", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	tracker := NewTracker(registry, store, transport, testDebounce, zerolog.Nop())
	return tracker, registry, transport, store
}

func TestFirstConnectionBroadcastsOnline(t *testing.T) {
	tracker, registry, transport, _ := newTestTracker(t)

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)

	updates := transport.broadcastsOf(EventPresenceUpdate)
	require.Len(t, updates, 1)
	payload := updates[0].Payload.(PresenceUpdate)
	assert.Equal(t, 1, payload.UserID)
	assert.True(t, payload.IsOnline)
}

func TestSecondConnectionDoesNotRebroadcast(t *testing.T) {
	tracker, registry, transport, store := newTestTracker(t)

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)
	registry.Register(1, "c2")
	tracker.OnConnectionAdded(context.Background(), 1)

	assert.Len(t, transport.broadcastsOf(EventPresenceUpdate), 1)
	// last_seen stays fresh on every registration
	store.AssertNumberOfCalls(t, "UpsertPresence", 2)
}

func TestReconnectWithinDebounceSuppressesOffline(t *testing.T) {
	tracker, registry, transport, _ := newTestTracker(t)

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)

	registry.Unregister("c1")
	tracker.OnConnectionRemoved(1)

	registry.Register(1, "c2")
	tracker.OnConnectionAdded(context.Background(), 1)

	time.Sleep(4 * testDebounce)

	updates := transport.broadcastsOf(EventPresenceUpdate)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Payload.(PresenceUpdate).IsOnline)
}

func TestOfflineBroadcastAfterDebounce(t *testing.T) {
	tracker, registry, transport, _ := newTestTracker(t)

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)

	registry.Unregister("c1")
	tracker.OnConnectionRemoved(1)

	// nothing before the debounce elapses
	assert.Len(t, transport.broadcastsOf(EventPresenceUpdate), 1)

	time.Sleep(4 * testDebounce)

	updates := transport.broadcastsOf(EventPresenceUpdate)
	require.Len(t, updates, 2)
	assert.False(t, updates[1].Payload.(PresenceUpdate).IsOnline)
}

func TestOfflineTimerRechecksReachability(t *testing.T) {
	tracker, registry, transport, _ := newTestTracker(t)

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)

	registry.Unregister("c1")
	tracker.OnConnectionRemoved(1)

	// a connection that registered without notifying the tracker still
	// counts at fire time
	registry.Register(1, "c2")

	time.Sleep(4 * testDebounce)

	updates := transport.broadcastsOf(EventPresenceUpdate)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Payload.(PresenceUpdate).IsOnline)
}

func TestRemovalWithRemainingConnectionsKeepsOnline(t *testing.T) {
	tracker, registry, transport, _ := newTestTracker(t)

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)
	registry.Register(1, "c2")
	tracker.OnConnectionAdded(context.Background(), 1)

	registry.Unregister("c1")
	tracker.OnConnectionRemoved(1)

	time.Sleep(4 * testDebounce)

	assert.Len(t, transport.broadcastsOf(EventPresenceUpdate), 1)
}

func TestForceOfflineIsImmediate(t *testing.T) {
	tracker, registry, transport, _ := newTestTracker(t)

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)
	registry.Register(1, "c2")
	tracker.OnConnectionAdded(context.Background(), 1)

	tracker.ForceOffline(context.Background(), 1)

	assert.ElementsMatch(t, []string{"c1", "c2"}, transport.closed)
	assert.Len(t, transport.sentTo("c1", EventForceClosed), 1)
	assert.Len(t, transport.sentTo("c2", EventForceClosed), 1)
	assert.False(t, registry.IsReachable(1))

	updates := transport.broadcastsOf(EventPresenceUpdate)
	require.Len(t, updates, 2)
	assert.False(t, updates[1].Payload.(PresenceUpdate).IsOnline)
}

func TestPresencePersistFailureDoesNotBlockBroadcast(t *testing.T) {
	registry := NewRegistry()
	transport := newFakeTransport()
	store := new(mocks.UserRepositoryMock)
	store.On("UpsertPresence", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	tracker := NewTracker(registry, store, transport, testDebounce, zerolog.Nop())

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)

	assert.Len(t, transport.broadcastsOf(EventPresenceUpdate), 1)
}

func TestSnapshotListsReachableUsers(t *testing.T) {
	tracker, registry, _, _ := newTestTracker(t)

	registry.Register(1, "c1")
	tracker.OnConnectionAdded(context.Background(), 1)
	registry.Register(2, "c2")
	tracker.OnConnectionAdded(context.Background(), 2)

	assert.ElementsMatch(t, []int{1, 2}, tracker.Snapshot())
}
