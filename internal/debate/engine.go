package debate

import (
	"errors"
	"time"
)

// EventKind identifies engine event variants.
type EventKind string

const (
	EventTurnCompleted      EventKind = "turn_completed"
	EventHumanInputRequired EventKind = "human_input_required"
	EventDebateEnded        EventKind = "debate_ended"
)

// Event is the closed result of one engine step. Exactly the fields for
// its kind are set: Utterance for completed turns and the final verdict
// turn, Role+Prompt for a suspended human turn, Verdict when the debate
// ends.
type Event struct {
	Kind      EventKind  `json:"kind"`
	Utterance *Utterance `json:"utterance,omitempty"`
	Role      Role       `json:"role,omitempty"`
	Prompt    string     `json:"prompt,omitempty"`
	Verdict   string     `json:"verdict,omitempty"`

	// Cursor after the step committed, for publishing.
	Phase   Phase `json:"phase"`
	Speaker Role  `json:"speaker"`
	Round   int   `json:"round"`
}

// Turn is one pending sub-turn: which role speaks, in which phase and
// round, and whether committing it requires the judge's continuation
// decision first.
type Turn struct {
	Role   Role
	Phase  Phase
	Round  int
	Prompt string
	Decide bool
}

var ErrDebateEnded = errors.New("debate already ended")

// Engine is the phase/speaker state machine. It holds no session state;
// the rotation policy lives entirely in Next and Commit so the turn order
// stays centralized and auditable.
type Engine struct {
	maxRounds int
}

func NewEngine(maxRounds int) *Engine {
	if maxRounds <= 0 {
		maxRounds = 3
	}
	return &Engine{maxRounds: maxRounds}
}

func (e *Engine) MaxRounds() int { return e.maxRounds }

// Next computes the pending sub-turn without mutating state. Decide is
// set only for the defendant's cross-examination turn while the round
// ceiling has not been reached: at the ceiling the transition to the
// closing summary is forced and the judge is not consulted.
func (e *Engine) Next(s *State) (Turn, error) {
	if s.Ended() {
		return Turn{}, ErrDebateEnded
	}
	t := Turn{
		Role:   s.Speaker,
		Phase:  s.Phase,
		Round:  s.Round,
		Prompt: turnPrompt(s.Phase, s.Speaker),
	}
	if s.Phase == PhaseCross && s.Speaker == RoleDefendant && s.Round < e.maxRounds {
		t.Decide = true
	}
	return t, nil
}

// Commit appends the utterance for turn t and advances the cursor. All
// slow work (content generation, the continuation decision cont) must be
// done before calling Commit; Commit itself cannot fail, which keeps a
// step all-or-nothing.
func (e *Engine) Commit(s *State, t Turn, content string, isHuman bool, cont bool) Event {
	u := Utterance{
		Role:    t.Role,
		Phase:   s.Phase,
		Round:   s.Round,
		Content: content,
		IsHuman: isHuman,
		At:      time.Now().UTC(),
	}
	s.Log = append(s.Log, u)
	s.Status = StatusActive

	ev := Event{Kind: EventTurnCompleted, Utterance: &u}

	switch {
	case s.Phase == PhaseOpening && t.Role == RolePlaintiff:
		s.Speaker = RoleDefendant
	case s.Phase == PhaseOpening && t.Role == RoleDefendant:
		s.Phase = PhaseCross
		s.Round = 1
		s.Speaker = RolePlaintiff
	case s.Phase == PhaseCross && t.Role == RolePlaintiff:
		s.Speaker = RoleDefendant
	case s.Phase == PhaseCross && t.Role == RoleDefendant:
		if t.Decide && cont {
			s.Round++
			s.Speaker = RolePlaintiff
		} else {
			s.Phase = PhaseClosing
			s.Speaker = RoleJudge
		}
	case s.Phase == PhaseClosing:
		s.Phase = PhaseVerdict
		s.Speaker = RoleJudge
	case s.Phase == PhaseVerdict:
		s.Verdict = content
		s.Phase = PhaseEnded
		s.Status = StatusEnded
		ev.Kind = EventDebateEnded
		ev.Verdict = content
	}

	ev.Phase = s.Phase
	ev.Speaker = s.Speaker
	ev.Round = s.Round
	return ev
}

// Suspend marks the state as parked on the pending human speaker and
// returns the event to publish. The cursor does not move; Resume commits
// the turn later exactly as an auto-generated one.
func (e *Engine) Suspend(s *State, t Turn) Event {
	s.Status = StatusAwaitingHuman
	return Event{
		Kind:    EventHumanInputRequired,
		Role:    t.Role,
		Prompt:  t.Prompt,
		Phase:   s.Phase,
		Speaker: s.Speaker,
		Round:   s.Round,
	}
}

// turnPrompt is shown to a human speaker when their turn comes up.
func turnPrompt(p Phase, r Role) string {
	switch {
	case p == PhaseOpening && r == RolePlaintiff:
		return "The court is in session. Present the plaintiff's opening statement."
	case p == PhaseOpening && r == RoleDefendant:
		return "The plaintiff has stated their case. Present the defence's reply."
	case p == PhaseCross && r == RolePlaintiff:
		return "Respond to the defence's challenge and press the plaintiff's claims."
	case p == PhaseCross && r == RoleDefendant:
		return "Challenge the plaintiff's argument and argue the defence's position."
	case p == PhaseClosing && r == RoleJudge:
		return "Summarize both sides' arguments and the remaining points of contention."
	case p == PhaseVerdict && r == RoleJudge:
		return "The debate is complete. Announce your verdict."
	}
	return "It is your turn to speak."
}
