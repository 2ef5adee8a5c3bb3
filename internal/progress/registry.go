// Package progress delivers best-effort processing updates to
// per-session subscribers.
package progress

import "sync"

// Terminal step names. Every session's stream ends with one of them.
const (
	StepCompleted = "completed"
	StepError     = "error"
)

// Event is one progress update for a claim run.
type Event struct {
	ClaimID  string `json:"claim_id"`
	Step     string `json:"step"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

// Publisher emits events for one session. Implementations must never
// block the pipeline.
type Publisher interface {
	Publish(ev Event)
}

// Registry tracks subscribers by session id and fans events out to
// them over bounded FIFO channels. A full channel drops the event; a
// missing subscriber is not an error.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]chan Event
	buffer   int
}

// NewRegistry creates a registry with the given per-session buffer.
func NewRegistry(buffer int) *Registry {
	if buffer <= 0 {
		buffer = 64
	}
	return &Registry{
		sessions: make(map[string]chan Event),
		buffer:   buffer,
	}
}

// Subscribe opens the event stream for a session. When a stream is
// already open it is returned as is, so events published before the
// consumer attaches stay buffered instead of being lost.
func (r *Registry) Subscribe(sessionID string) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.sessions[sessionID]; ok {
		return ch
	}
	ch := make(chan Event, r.buffer)
	r.sessions[sessionID] = ch
	return ch
}

// Unsubscribe closes and removes a session's stream.
func (r *Registry) Unsubscribe(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.sessions[sessionID]; ok {
		close(ch)
		delete(r.sessions, sessionID)
	}
}

// Publish delivers an event to the session if subscribed, dropping it
// when the buffer is full. The read lock is held through the send so a
// concurrent Unsubscribe cannot close the channel mid-send.
func (r *Registry) Publish(sessionID string, ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

// Publisher returns a session-bound publisher for the pipeline.
func (r *Registry) Publisher(sessionID string) Publisher {
	return sessionPublisher{registry: r, sessionID: sessionID}
}

type sessionPublisher struct {
	registry  *Registry
	sessionID string
}

func (p sessionPublisher) Publish(ev Event) {
	p.registry.Publish(p.sessionID, ev)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
