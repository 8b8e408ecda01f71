package ws

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"messenger-service/internal/observability"
)

// PresenceStore persists the durable presence columns. Failures are
// logged and swallowed; presence is best-effort.
type PresenceStore interface {
	UpsertPresence(ctx context.Context, userID int, isOnline bool, lastSeen time.Time) error
}

type presenceState int

const (
	stateOffline presenceState = iota
	stateOnline
	statePendingOffline
)

// Tracker converts registry transitions into presence state and
// broadcasts, debouncing the offline side so a quick reconnect never
// flickers. It is the only component that decides online/offline.
type Tracker struct {
	registry  *Registry
	store     PresenceStore
	transport Transport
	debounce  time.Duration
	log       zerolog.Logger

	mu    sync.Mutex
	state map[int]presenceState
	// gen invalidates a pending offline timer: a new registration bumps
	// it, so a stale timer firing later sees a mismatch and does nothing.
	gen map[int]uint64
}

// NewTracker constructs a Tracker.
func NewTracker(registry *Registry, store PresenceStore, transport Transport, debounce time.Duration, log zerolog.Logger) *Tracker {
	return &Tracker{
		registry:  registry,
		store:     store,
		transport: transport,
		debounce:  debounce,
		log:       log,
		state:     make(map[int]presenceState),
		gen:       make(map[int]uint64),
	}
}

// OnConnectionAdded runs after a connection registers. The first live
// connection flips the user online and broadcasts; any registration
// cancels a pending offline transition and refreshes last_seen.
func (t *Tracker) OnConnectionAdded(ctx context.Context, userID int) {
	t.mu.Lock()
	prev := t.state[userID]
	t.gen[userID]++
	t.state[userID] = stateOnline
	t.mu.Unlock()

	now := time.Now().UTC()
	t.persist(ctx, userID, true, now)

	if prev == stateOffline {
		observability.IncPresenceTransition(true)
		t.transport.Broadcast(EventPresenceUpdate, PresenceUpdate{UserID: userID, IsOnline: true, LastSeen: now})
	}
}

// OnConnectionRemoved runs after a connection unregisters. When the
// user's last connection is gone the offline transition is scheduled,
// not taken: the timer re-checks reachability when it fires.
func (t *Tracker) OnConnectionRemoved(userID int) {
	if t.registry.IsReachable(userID) {
		return
	}

	t.mu.Lock()
	if t.state[userID] != stateOnline {
		t.mu.Unlock()
		return
	}
	t.state[userID] = statePendingOffline
	t.gen[userID]++
	gen := t.gen[userID]
	t.mu.Unlock()

	time.AfterFunc(t.debounce, func() {
		t.confirmOffline(userID, gen)
	})
}

func (t *Tracker) confirmOffline(userID int, gen uint64) {
	t.mu.Lock()
	if t.gen[userID] != gen {
		// user reconnected, cancel silently
		t.mu.Unlock()
		return
	}
	if t.registry.IsReachable(userID) {
		t.state[userID] = stateOnline
		t.mu.Unlock()
		return
	}
	t.state[userID] = stateOffline
	t.mu.Unlock()

	now := time.Now().UTC()
	t.persist(context.Background(), userID, false, now)
	observability.IncPresenceTransition(false)
	t.transport.Broadcast(EventPresenceUpdate, PresenceUpdate{UserID: userID, IsOnline: false, LastSeen: now})
}

// ForceOffline is the immediate, non-debounced transition used by
// forced logout. It disconnects every live connection first, then marks
// the user offline and broadcasts.
func (t *Tracker) ForceOffline(ctx context.Context, userID int) {
	conns := t.registry.ConnectionsFor(userID)
	for _, connID := range conns {
		t.transport.Send(connID, EventForceClosed, struct{}{})
		t.transport.CloseConnection(connID)
		t.registry.Unregister(connID)
	}

	t.mu.Lock()
	t.gen[userID]++
	t.state[userID] = stateOffline
	t.mu.Unlock()

	now := time.Now().UTC()
	t.persist(ctx, userID, false, now)
	observability.IncPresenceTransition(false)
	t.transport.Broadcast(EventPresenceUpdate, PresenceUpdate{UserID: userID, IsOnline: false, LastSeen: now})
}

// Snapshot lists users that are reachable right now.
func (t *Tracker) Snapshot() []int {
	return t.registry.AllReachableUsers()
}

func (t *Tracker) persist(ctx context.Context, userID int, online bool, lastSeen time.Time) {
	if err := t.store.UpsertPresence(ctx, userID, online, lastSeen); err != nil {
		t.log.Warn().Err(err).Int("user_id", userID).Bool("is_online", online).Msg("presence upsert failed")
	}
}
