package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/gavel/internal/debate"
)

// MockAdapter provides deterministic local utterances when no
// collaborator is configured. Debates run through every phase; the
// continuation decision always continues, so the round ceiling ends
// cross-examination.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Generate(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrGeneration, ctx.Err())
	default:
	}

	subject := strings.TrimSpace(req.Case.Description)
	if subject == "" {
		subject = "the matter before the court"
	}

	switch {
	case req.Phase == debate.PhaseOpening && req.Role == debate.RolePlaintiff:
		return fmt.Sprintf("The plaintiff opens: regarding %s, the facts and evidence support our claim.", subject), nil
	case req.Phase == debate.PhaseOpening && req.Role == debate.RoleDefendant:
		return fmt.Sprintf("The defence replies: the plaintiff's account of %s does not withstand scrutiny.", subject), nil
	case req.Phase == debate.PhaseCross && req.Role == debate.RolePlaintiff:
		return fmt.Sprintf("The plaintiff presses the claim (after %d prior statements).", len(req.Transcript)), nil
	case req.Phase == debate.PhaseCross && req.Role == debate.RoleDefendant:
		return fmt.Sprintf("The defence disputes the claim (after %d prior statements).", len(req.Transcript)), nil
	case req.Phase == debate.PhaseClosing:
		return "The judge summarizes: both sides have argued their positions; the contested points are noted.", nil
	case req.Phase == debate.PhaseVerdict:
		return fmt.Sprintf("The judge rules on %s: weighing the arguments on record, the court finds for neither side in full.", subject), nil
	}
	return "", ErrEmptyContent
}

func (a *MockAdapter) ShouldContinue(ctx context.Context, req Request) (bool, error) {
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%w: %v", ErrGeneration, ctx.Err())
	default:
	}
	return true, nil
}
