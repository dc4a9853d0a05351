package debate

import "testing"

func TestEngineOpeningRotation(t *testing.T) {
	e := NewEngine(3)
	s := NewState(CaseContext{Description: "contract dispute"}, "")

	turn, err := e.Next(s)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if turn.Role != RolePlaintiff || turn.Phase != PhaseOpening {
		t.Fatalf("first turn = %+v, want plaintiff opening", turn)
	}

	ev := e.Commit(s, turn, "the plaintiff states", false, false)
	if ev.Kind != EventTurnCompleted {
		t.Fatalf("event kind = %q, want %q", ev.Kind, EventTurnCompleted)
	}
	if s.Speaker != RoleDefendant || s.Phase != PhaseOpening {
		t.Fatalf("after plaintiff opening: speaker=%q phase=%q", s.Speaker, s.Phase)
	}

	turn, err = e.Next(s)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	e.Commit(s, turn, "the defence replies", false, false)
	if s.Phase != PhaseCross || s.Round != 1 || s.Speaker != RolePlaintiff {
		t.Fatalf("after opening: phase=%q round=%d speaker=%q, want cross round 1 plaintiff", s.Phase, s.Round, s.Speaker)
	}
	if len(s.Log) != 2 {
		t.Fatalf("log length = %d, want 2", len(s.Log))
	}
}

func TestEngineUtteranceStampedAtAppendTime(t *testing.T) {
	e := NewEngine(3)
	s := NewState(CaseContext{Description: "c"}, "")

	turn, _ := e.Next(s)
	e.Commit(s, turn, "opening", false, false)
	turn, _ = e.Next(s)
	e.Commit(s, turn, "reply", false, false)

	// Both opening utterances carry the pre-transition phase and round.
	for i, u := range s.Log {
		if u.Phase != PhaseOpening || u.Round != 0 {
			t.Fatalf("log[%d] phase=%q round=%d, want opening round 0", i, u.Phase, u.Round)
		}
	}

	turn, _ = e.Next(s)
	e.Commit(s, turn, "argue", false, false)
	if got := s.Log[2]; got.Phase != PhaseCross || got.Round != 1 {
		t.Fatalf("cross utterance phase=%q round=%d, want cross round 1", got.Phase, got.Round)
	}
}

func TestEngineContinueIncrementsRound(t *testing.T) {
	e := NewEngine(3)
	s := NewState(CaseContext{Description: "c"}, "")
	runOpening(t, e, s)

	turn, _ := e.Next(s)
	e.Commit(s, turn, "plaintiff argues", false, false)

	turn, _ = e.Next(s)
	if !turn.Decide {
		t.Fatalf("defendant cross turn should carry the continuation decision")
	}
	e.Commit(s, turn, "defendant argues", false, true)
	if s.Round != 2 || s.Speaker != RolePlaintiff || s.Phase != PhaseCross {
		t.Fatalf("after continue: phase=%q round=%d speaker=%q", s.Phase, s.Round, s.Speaker)
	}
}

func TestEngineJudgeEndMovesToClosing(t *testing.T) {
	e := NewEngine(3)
	s := NewState(CaseContext{Description: "c"}, "")
	runOpening(t, e, s)

	turn, _ := e.Next(s)
	e.Commit(s, turn, "plaintiff argues", false, false)
	turn, _ = e.Next(s)
	e.Commit(s, turn, "defendant argues", false, false)

	if s.Phase != PhaseClosing || s.Speaker != RoleJudge {
		t.Fatalf("after judge end: phase=%q speaker=%q, want closing judge", s.Phase, s.Speaker)
	}
}

func TestEngineCeilingForcesClosing(t *testing.T) {
	e := NewEngine(3)
	s := NewState(CaseContext{Description: "c"}, "")
	runOpening(t, e, s)

	// Rounds 1 and 2 continue; round 3 hits the ceiling.
	for round := 1; round <= 3; round++ {
		turn, _ := e.Next(s)
		e.Commit(s, turn, "plaintiff argues", false, false)
		turn, _ = e.Next(s)
		if round < 3 && !turn.Decide {
			t.Fatalf("round %d: expected continuation decision", round)
		}
		if round == 3 && turn.Decide {
			t.Fatalf("round 3: ceiling reached, judge must not be consulted")
		}
		// cont=true everywhere: the ceiling must win regardless.
		e.Commit(s, turn, "defendant argues", false, true)
	}

	if s.Phase != PhaseClosing {
		t.Fatalf("phase = %q, want %q after ceiling", s.Phase, PhaseClosing)
	}
	if s.Round != 3 {
		t.Fatalf("round = %d, want 3 (never exceeds the ceiling)", s.Round)
	}
}

func TestEngineClosingAndVerdict(t *testing.T) {
	e := NewEngine(1)
	s := NewState(CaseContext{Description: "c"}, "")
	runOpening(t, e, s)

	turn, _ := e.Next(s)
	e.Commit(s, turn, "plaintiff argues", false, false)
	turn, _ = e.Next(s)
	e.Commit(s, turn, "defendant argues", false, false)

	turn, _ = e.Next(s)
	if turn.Role != RoleJudge || turn.Phase != PhaseClosing {
		t.Fatalf("closing turn = %+v, want judge closing", turn)
	}
	e.Commit(s, turn, "the judge summarizes", false, false)
	if s.Phase != PhaseVerdict || s.Speaker != RoleJudge {
		t.Fatalf("after summary: phase=%q speaker=%q", s.Phase, s.Speaker)
	}

	turn, _ = e.Next(s)
	ev := e.Commit(s, turn, "the judge rules", false, false)
	if ev.Kind != EventDebateEnded || ev.Verdict != "the judge rules" {
		t.Fatalf("final event = %+v, want debate_ended with verdict", ev)
	}
	if s.Phase != PhaseEnded || s.Status != StatusEnded || s.Verdict != "the judge rules" {
		t.Fatalf("final state: phase=%q status=%q verdict=%q", s.Phase, s.Status, s.Verdict)
	}

	if _, err := e.Next(s); err != ErrDebateEnded {
		t.Fatalf("Next() after end error = %v, want ErrDebateEnded", err)
	}
}

func TestEngineSuspendParksState(t *testing.T) {
	e := NewEngine(3)
	s := NewState(CaseContext{Description: "c"}, RolePlaintiff)

	turn, _ := e.Next(s)
	ev := e.Suspend(s, turn)
	if ev.Kind != EventHumanInputRequired || ev.Role != RolePlaintiff {
		t.Fatalf("suspend event = %+v, want human_input_required for plaintiff", ev)
	}
	if ev.Prompt == "" {
		t.Fatalf("suspend prompt should not be empty")
	}
	if s.Status != StatusAwaitingHuman {
		t.Fatalf("status = %q, want %q", s.Status, StatusAwaitingHuman)
	}
	if len(s.Log) != 0 {
		t.Fatalf("suspend must not append to the log")
	}

	// Resuming commits exactly like an auto turn, flagged human.
	e.Commit(s, turn, "human statement", true, false)
	if !s.Log[0].IsHuman {
		t.Fatalf("resumed utterance should be flagged human")
	}
	if s.Status != StatusActive {
		t.Fatalf("status after commit = %q, want %q", s.Status, StatusActive)
	}
}

func TestStateSnapshotIsDeepCopy(t *testing.T) {
	e := NewEngine(3)
	s := NewState(CaseContext{Description: "c", Evidence: []Evidence{{Speaker: "clerk", Content: "exhibit A"}}}, "")
	turn, _ := e.Next(s)
	e.Commit(s, turn, "opening", false, false)

	snap := s.Snapshot()
	turn, _ = e.Next(s)
	e.Commit(s, turn, "reply", false, false)

	if len(snap.Log) != 1 {
		t.Fatalf("snapshot log length = %d, want 1", len(snap.Log))
	}
	snap.Log[0].Content = "mutated"
	if s.Log[0].Content != "opening" {
		t.Fatalf("mutating a snapshot leaked into the live state")
	}
}

func runOpening(t *testing.T, e *Engine, s *State) {
	t.Helper()
	turn, err := e.Next(s)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	e.Commit(s, turn, "plaintiff opening", false, false)
	turn, err = e.Next(s)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	e.Commit(s, turn, "defendant reply", false, false)
}
