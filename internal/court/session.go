package court

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/antoniostano/gavel/internal/debate"
	"github.com/antoniostano/gavel/internal/generation"
)

// EventSink receives every committed or suspended step of a session, in
// log append order.
type EventSink interface {
	Publish(sessionID string, ev debate.Event)
}

// Session is one running debate. At most one advance or resume proceeds
// at any instant; a colliding caller is rejected with ErrSessionBusy
// rather than queued. The slow generation call runs outside both the
// slot's critical reads and the state mutex, and its result is applied
// atomically.
type Session struct {
	ID        string
	CreatedAt time.Time

	engine *debate.Engine
	gen    generation.Generator
	sink   EventSink

	slot chan struct{}

	mu           sync.Mutex
	state        *debate.State
	pending      *debate.Event
	lastActivity time.Time
}

func newSession(id string, c debate.CaseContext, humanRole debate.Role, engine *debate.Engine, gen generation.Generator, sink EventSink) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		engine:       engine,
		gen:          gen,
		sink:         sink,
		slot:         make(chan struct{}, 1),
		state:        debate.NewState(c, humanRole),
		lastActivity: now,
	}
}

func (s *Session) tryAcquire() bool {
	select {
	case s.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Session) release() { <-s.slot }

// Advance runs one engine step. While the session awaits human input it
// returns the same pending event without touching the log; once ended it
// returns the final event. Generation failures leave the state untouched
// so the same advance may be retried.
func (s *Session) Advance(ctx context.Context) (debate.Event, error) {
	if !s.tryAcquire() {
		return debate.Event{}, ErrSessionBusy
	}
	defer s.release()

	s.mu.Lock()
	if s.state.Ended() {
		ev := s.endedEventLocked()
		s.mu.Unlock()
		return ev, nil
	}
	if s.state.Status == debate.StatusAwaitingHuman && s.pending != nil {
		ev := *s.pending
		s.mu.Unlock()
		return ev, nil
	}

	turn, err := s.engine.Next(s.state)
	if err != nil {
		s.mu.Unlock()
		return debate.Event{}, err
	}

	if s.state.HumanRole != "" && turn.Role == s.state.HumanRole {
		ev := s.engine.Suspend(s.state, turn)
		s.pending = &ev
		s.lastActivity = time.Now().UTC()
		s.mu.Unlock()
		s.sink.Publish(s.ID, ev)
		return ev, nil
	}

	req := s.requestLocked(turn)
	s.mu.Unlock()

	content, err := s.gen.Generate(ctx, req)
	if err != nil {
		return debate.Event{}, err
	}
	cont, err := s.decide(ctx, turn, req, content)
	if err != nil {
		return debate.Event{}, err
	}

	s.mu.Lock()
	ev := s.engine.Commit(s.state, turn, content, false, cont)
	s.lastActivity = time.Now().UTC()
	s.mu.Unlock()
	s.sink.Publish(s.ID, ev)
	return ev, nil
}

// Resume supplies the pending human speaker's utterance and commits it
// exactly like an auto-generated turn: same log entry, same broadcast.
func (s *Session) Resume(ctx context.Context, role debate.Role, content string) (debate.Event, error) {
	if strings.TrimSpace(content) == "" {
		return debate.Event{}, ErrEmptyInput
	}
	if !s.tryAcquire() {
		return debate.Event{}, ErrSessionBusy
	}
	defer s.release()

	s.mu.Lock()
	if s.state.Status != debate.StatusAwaitingHuman {
		s.mu.Unlock()
		return debate.Event{}, ErrInvalidState
	}
	turn, err := s.engine.Next(s.state)
	if err != nil {
		s.mu.Unlock()
		return debate.Event{}, err
	}
	if role != "" && role != turn.Role {
		s.mu.Unlock()
		return debate.Event{}, ErrRoleMismatch
	}
	req := s.requestLocked(turn)
	s.mu.Unlock()

	cont, err := s.decide(ctx, turn, req, content)
	if err != nil {
		return debate.Event{}, err
	}

	s.mu.Lock()
	ev := s.engine.Commit(s.state, turn, content, true, cont)
	s.pending = nil
	s.lastActivity = time.Now().UTC()
	s.mu.Unlock()
	s.sink.Publish(s.ID, ev)
	return ev, nil
}

// decide asks the judge whether cross-examination continues, with the
// candidate utterance appended to the transcript the judge reads. The
// decision always runs through the generator, even when the judge role
// is human-controlled: only utterance turns suspend.
func (s *Session) decide(ctx context.Context, turn debate.Turn, req generation.Request, content string) (bool, error) {
	if !turn.Decide {
		return false, nil
	}
	dreq := req
	dreq.Role = debate.RoleJudge
	dreq.Transcript = append(append([]debate.Utterance(nil), req.Transcript...), debate.Utterance{
		Role:    turn.Role,
		Phase:   turn.Phase,
		Round:   turn.Round,
		Content: content,
	})
	return s.gen.ShouldContinue(ctx, dreq)
}

// requestLocked copies what the generator reads so it can run unlocked.
func (s *Session) requestLocked(turn debate.Turn) generation.Request {
	return generation.Request{
		Role:       turn.Role,
		Phase:      turn.Phase,
		Case:       s.state.Case,
		Transcript: append([]debate.Utterance(nil), s.state.Log...),
	}
}

func (s *Session) endedEventLocked() debate.Event {
	return debate.Event{
		Kind:    debate.EventDebateEnded,
		Verdict: s.state.Verdict,
		Phase:   s.state.Phase,
		Speaker: s.state.Speaker,
		Round:   s.state.Round,
	}
}

// Snapshot returns a read-only deep copy of the session state.
func (s *Session) Snapshot() debate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Pending returns the suspended human-input event, if any.
func (s *Session) Pending() (debate.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return debate.Event{}, false
	}
	return *s.pending, true
}

// LastActivity reports when the session last committed, suspended, or
// was created.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Terminate ends the session. It waits for any in-flight step to finish
// its exclusive section first; an in-progress generation call is never
// interrupted mid-step.
func (s *Session) Terminate() {
	s.slot <- struct{}{}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Ended() {
		return
	}
	s.state.Phase = debate.PhaseEnded
	s.state.Status = debate.StatusEnded
	s.pending = nil
	s.lastActivity = time.Now().UTC()
}
