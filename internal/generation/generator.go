// Package generation is the boundary through which utterance content
// enters the debate engine. Adapters produce a participant's next
// statement from the case material and the transcript so far; the engine
// itself never talks to a model directly.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/antoniostano/gavel/internal/debate"
)

// Request carries everything an adapter needs to speak for one role in
// one phase.
type Request struct {
	Role       debate.Role        `json:"role"`
	Phase      debate.Phase       `json:"phase"`
	Case       debate.CaseContext `json:"case"`
	Transcript []debate.Utterance `json:"transcript"`
}

// Generator produces utterance content and the judge's continuation
// decision. Implementations must return ErrGeneration-wrapped errors on
// collaborator failure and never return empty content with a nil error.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	ShouldContinue(ctx context.Context, req Request) (bool, error)
}

// ErrGeneration marks any collaborator failure. Callers may always retry
// the same turn: the session applies nothing until generation succeeds.
var ErrGeneration = errors.New("generation failed")

// ErrEmptyContent is returned when the collaborator produced no usable
// text. A silent empty utterance would skip a speaker.
var ErrEmptyContent = fmt.Errorf("%w: empty content", ErrGeneration)
