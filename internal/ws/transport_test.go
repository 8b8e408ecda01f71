package ws

import "sync"

type recordedEvent struct {
	ConnID  string
	Event   string
	Payload any
}

// fakeTransport records every fan-out for assertions.
type fakeTransport struct {
	mu         sync.Mutex
	sent       []recordedEvent
	broadcasts []recordedEvent
	closed     []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) Send(connID string, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedEvent{ConnID: connID, Event: event, Payload: payload})
}

func (f *fakeTransport) Broadcast(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, recordedEvent{Event: event, Payload: payload})
}

func (f *fakeTransport) CloseConnection(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, connID)
}

func (f *fakeTransport) broadcastsOf(event string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.broadcasts {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTransport) sentTo(connID string, event string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.sent {
		if e.ConnID == connID && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
