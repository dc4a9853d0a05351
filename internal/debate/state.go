package debate

import "time"

// Phase is a named stage of the debate with a fixed internal turn order.
// Phases only move forward, never back.
type Phase string

const (
	PhaseOpening Phase = "opening"
	PhaseCross   Phase = "cross_examination"
	PhaseClosing Phase = "closing_summary"
	PhaseVerdict Phase = "verdict"
	PhaseEnded   Phase = "ended"
)

// Role identifies a debate participant.
type Role string

const (
	RolePlaintiff Role = "plaintiff"
	RoleDefendant Role = "defendant"
	RoleJudge     Role = "judge"
)

// ValidRole reports whether r names a known participant.
func ValidRole(r Role) bool {
	switch r {
	case RolePlaintiff, RoleDefendant, RoleJudge:
		return true
	}
	return false
}

// Status describes whether a debate is running, parked on a human
// speaker, or finished.
type Status string

const (
	StatusActive        Status = "active"
	StatusAwaitingHuman Status = "awaiting_human"
	StatusEnded         Status = "ended"
)

// Utterance is one participant's statement. Records are append-only and
// stamped with the phase and round at append time.
type Utterance struct {
	Role    Role      `json:"role"`
	Phase   Phase     `json:"phase"`
	Round   int       `json:"round"`
	Content string    `json:"content"`
	IsHuman bool      `json:"is_human"`
	At      time.Time `json:"at"`
}

// Evidence is one entry submitted with the case before the debate opens.
type Evidence struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// CaseContext is the immutable case material the debate argues over.
type CaseContext struct {
	Description string     `json:"description"`
	Evidence    []Evidence `json:"evidence,omitempty"`
}

// State is the mutable core of one debate. It is owned by a single
// court.Session; the engine mutates it only through Commit.
type State struct {
	Phase     Phase       `json:"phase"`
	Speaker   Role        `json:"speaker"`
	Round     int         `json:"round"`
	Log       []Utterance `json:"log"`
	HumanRole Role        `json:"human_role,omitempty"`
	Status    Status      `json:"status"`
	Verdict   string      `json:"verdict,omitempty"`
	Case      CaseContext `json:"case"`
}

// NewState returns the initial state: plaintiff opens, round counting
// starts when cross-examination does.
func NewState(c CaseContext, humanRole Role) *State {
	return &State{
		Phase:     PhaseOpening,
		Speaker:   RolePlaintiff,
		Round:     0,
		HumanRole: humanRole,
		Status:    StatusActive,
		Case:      c,
	}
}

// Snapshot returns a deep copy safe to hand to readers while the debate
// keeps advancing.
func (s *State) Snapshot() State {
	out := *s
	out.Log = make([]Utterance, len(s.Log))
	copy(out.Log, s.Log)
	out.Case.Evidence = make([]Evidence, len(s.Case.Evidence))
	copy(out.Case.Evidence, s.Case.Evidence)
	return out
}

// Ended reports whether no further mutation is permitted.
func (s State) Ended() bool {
	return s.Status == StatusEnded
}
