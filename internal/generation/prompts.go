package generation

import (
	"fmt"
	"strings"

	"github.com/antoniostano/gavel/internal/debate"
)

const (
	promptPlaintiffStatement = `You are the plaintiff's counsel in a courtroom debate.
Deliver a forceful opening statement: state the claim, the facts that
support it, and the remedy sought. Stay grounded in the case material.`

	promptDefendantReply = `You are the defence counsel in a courtroom debate.
The plaintiff has just made their opening statement. Deliver a pointed
demurrer: dispute their account, challenge their evidence, and state the
defence's position.`

	promptPlaintiffArgue = `You are the plaintiff's counsel in cross-examination.
Respond to the defence's latest challenge, rebut their strongest point,
and advance your own argument with the evidence on record.`

	promptDefendantArgue = `You are the defence counsel in cross-examination.
Press your doubts about the plaintiff's account, answer their latest
rebuttal, and argue the defence's position with the evidence on record.`

	promptJudgeSummary = `You are the presiding judge. Both sides have finished
arguing. Summarize each side's case, name the points of genuine
contention, and note which arguments were supported by evidence.`

	promptJudgeVerdict = `You are the presiding judge. The debate is complete.
Weigh both sides' arguments against the evidence and announce a reasoned
verdict, including what each party is found liable or not liable for.`

	promptJudgeContinue = `You are the presiding judge. Both sides have completed
a round of cross-examination. Decide whether another round would surface
anything new or whether the arguments are exhausted.
Respond with only "continue" or "end".`
)

// systemPrompt returns the instruction for an automatable (role, phase)
// pair. The pairs mirror the engine's rotation table exactly.
func systemPrompt(p debate.Phase, r debate.Role) string {
	switch {
	case p == debate.PhaseOpening && r == debate.RolePlaintiff:
		return promptPlaintiffStatement
	case p == debate.PhaseOpening && r == debate.RoleDefendant:
		return promptDefendantReply
	case p == debate.PhaseCross && r == debate.RolePlaintiff:
		return promptPlaintiffArgue
	case p == debate.PhaseCross && r == debate.RoleDefendant:
		return promptDefendantArgue
	case p == debate.PhaseClosing && r == debate.RoleJudge:
		return promptJudgeSummary
	case p == debate.PhaseVerdict && r == debate.RoleJudge:
		return promptJudgeVerdict
	}
	return ""
}

// userContext renders the case material and transcript the way a model
// sees the courtroom: case, evidence, then every utterance in order.
func userContext(req Request) string {
	var b strings.Builder
	b.WriteString("Case:\n")
	b.WriteString(strings.TrimSpace(req.Case.Description))
	b.WriteString("\n")
	if len(req.Case.Evidence) > 0 {
		b.WriteString("\nEvidence on record:\n")
		for _, ev := range req.Case.Evidence {
			fmt.Fprintf(&b, "- %s: %s\n", ev.Speaker, ev.Content)
		}
	}
	if len(req.Transcript) > 0 {
		b.WriteString("\nTranscript so far:\n")
		b.WriteString(formatTranscript(req.Transcript))
	}
	return b.String()
}

func formatTranscript(log []debate.Utterance) string {
	lines := make([]string, 0, len(log))
	for _, u := range log {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(u.Role)), u.Content))
	}
	return strings.Join(lines, "\n")
}

// parseContinueDecision maps a free-form judge answer onto the closed
// continue/end decision, defaulting to continue on anything else.
func parseContinueDecision(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "end":
		return false
	case "continue":
		return true
	default:
		return true
	}
}
