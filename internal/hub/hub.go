// Package hub fans out session events to live subscriber connections
// and routes human input back to the owning session.
package hub

import (
	"context"
	"sync"

	"github.com/antoniostano/gavel/internal/court"
	"github.com/antoniostano/gavel/internal/debate"
	"github.com/antoniostano/gavel/internal/observability"
	"github.com/antoniostano/gavel/internal/protocol"
)

// sendBuffer bounds each subscriber's outbound queue. A subscriber that
// cannot drain in time loses events rather than stalling the publisher.
const sendBuffer = 64

// Subscriber is one live connection bound to a single session, with an
// optional role it is authorized to supply human input for.
type Subscriber struct {
	SessionID string
	Role      debate.Role

	send chan any
	done chan struct{}
	once sync.Once
}

// Events is the subscriber's outbound queue; the connection writer
// drains it.
func (s *Subscriber) Events() <-chan any { return s.send }

// Done is closed when the subscriber is unsubscribed or its session is
// torn down.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// SessionSource resolves session ids for input routing.
type SessionSource interface {
	Get(id string) (*court.Session, error)
}

// Hub maintains the per-session subscriber sets. Delivery is
// best-effort and independent per connection; publishing never blocks.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[*Subscriber]struct{}
	sessions SessionSource
	metrics  *observability.Metrics
}

func New(metrics *observability.Metrics) *Hub {
	return &Hub{
		subs:    make(map[string]map[*Subscriber]struct{}),
		metrics: metrics,
	}
}

// SetSessions wires the session lookup used by RouteInput. Set once at
// startup; the hub and registry reference each other through interfaces
// only.
func (h *Hub) SetSessions(src SessionSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = src
}

// Subscribe registers a connection for one session. The caller sends
// the initial snapshot itself; earlier events are never replayed.
func (h *Hub) Subscribe(sessionID string, role debate.Role) *Subscriber {
	sub := &Subscriber{
		SessionID: sessionID,
		Role:      role,
		send:      make(chan any, sendBuffer),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[sub.SessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.SessionID)
		}
	}
	h.mu.Unlock()
	sub.close()
}

// Publish converts ev and delivers it to every live subscriber of the
// session. A saturated subscriber is skipped; the rest still receive
// the event. Publish implements court.EventSink.
func (h *Hub) Publish(sessionID string, ev debate.Event) {
	msg := protocol.FromEvent(sessionID, ev)

	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.subs[sessionID]))
	for sub := range h.subs[sessionID] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		h.SendTo(sub, msg)
	}
}

// SendTo queues one message for a single subscriber without blocking.
func (h *Hub) SendTo(sub *Subscriber, msg any) {
	select {
	case <-sub.done:
	case sub.send <- msg:
		if t, ok := protocol.MessageTypeOf(msg); ok && h.metrics != nil {
			h.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
		}
	default:
		if h.metrics != nil {
			h.metrics.DroppedEvents.Inc()
		}
	}
}

// RouteInput forwards human input to the owning session's resume path.
// The subscriber must carry a role filter covering the submitted role;
// otherwise the input is rejected without touching session state.
func (h *Hub) RouteInput(ctx context.Context, sub *Subscriber, role debate.Role, content string) (debate.Event, error) {
	if role == "" {
		role = sub.Role
	}
	if sub.Role == "" || role != sub.Role {
		return debate.Event{}, court.ErrRoleMismatch
	}

	h.mu.RLock()
	src := h.sessions
	h.mu.RUnlock()
	if src == nil {
		return debate.Event{}, court.ErrNotFound
	}

	s, err := src.Get(sub.SessionID)
	if err != nil {
		return debate.Event{}, err
	}
	return s.Resume(ctx, role, content)
}

// CloseSession force-closes every subscription of a session. Used when
// the session is deleted or swept; subscriptions never outlive their
// session.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	set := h.subs[sessionID]
	delete(h.subs, sessionID)
	h.mu.Unlock()

	for sub := range set {
		sub.close()
	}
}

// SubscriberCount reports the live subscriptions for one session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
