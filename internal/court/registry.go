package court

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/gavel/internal/debate"
	"github.com/antoniostano/gavel/internal/generation"
)

// Registry is the process-wide keyed store of running debates. It is
// created at process init and torn down with the process; nothing else
// holds session references across requests.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl    time.Duration
	engine *debate.Engine
	gen    generation.Generator
	sink   EventSink

	onRemove func(*Session)
}

func NewRegistry(ttl time.Duration, engine *debate.Engine, gen generation.Generator, sink EventSink) *Registry {
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		engine:   engine,
		gen:      gen,
		sink:     sink,
	}
}

// SetRemoveHook registers a callback run after a session leaves the
// registry, whether by explicit deletion or by the sweep. The hub uses
// it to force-close the session's subscriptions.
func (r *Registry) SetRemoveHook(hook func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemove = hook
}

// Create registers a new session for the given case. HumanRole may be
// empty for full automation.
func (r *Registry) Create(c debate.CaseContext, humanRole debate.Role) (*Session, error) {
	if humanRole != "" && !debate.ValidRole(humanRole) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, humanRole)
	}

	id := uuid.NewString()
	s := newSession(id, c, humanRole, r.engine, r.gen, r.sink)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		// UUIDs are unique within the registry's lifetime; a collision
		// means the id source is broken, not a recoverable request.
		panic(fmt.Sprintf("court: session id collision: %s", id))
	}
	r.sessions[id] = s
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete terminates the session and removes it from the registry. The
// removal is irreversible.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	hook := r.onRemove
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Terminate()
	if hook != nil {
		hook(s)
	}
	return nil
}

// Count reports how many sessions are registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartSweeper runs the expiry sweep on a fixed interval until ctx is
// cancelled at process teardown.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// Sweep removes and terminates every session idle beyond the TTL. A
// fault while tearing one session down must not abort the sweep of the
// rest.
func (r *Registry) Sweep() int {
	cutoff := time.Now().UTC().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	hook := r.onRemove
	r.mu.Unlock()

	for _, s := range expired {
		r.removeExpired(s, hook)
	}
	if len(expired) > 0 {
		log.Printf("court: swept %d expired sessions", len(expired))
	}
	return len(expired)
}

func (r *Registry) removeExpired(s *Session, hook func(*Session)) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("court: sweep of session %s panicked: %v", s.ID, rec)
		}
	}()
	s.Terminate()
	if hook != nil {
		hook(s)
	}
}
