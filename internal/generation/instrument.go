package generation

import (
	"context"
	"fmt"
	"time"
)

// Observer receives timing and failure signals for generation calls.
// Implemented by the service metrics.
type Observer interface {
	ObserveGeneration(stage string, d time.Duration)
	GenerationError(provider, op string)
}

type instrumented struct {
	inner    Generator
	provider string
	obs      Observer
}

// Instrument wraps a generator so every call is timed per (op, phase)
// stage and every failure is counted. The wrapped generator behaves
// identically otherwise.
func Instrument(g Generator, obs Observer) Generator {
	if obs == nil {
		return g
	}
	return &instrumented{inner: g, provider: Describe(g), obs: obs}
}

func (i *instrumented) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	content, err := i.inner.Generate(ctx, req)
	if err != nil {
		i.obs.GenerationError(i.provider, "generate")
		return "", err
	}
	i.obs.ObserveGeneration(fmt.Sprintf("generate:%s", req.Phase), time.Since(start))
	return content, nil
}

func (i *instrumented) ShouldContinue(ctx context.Context, req Request) (bool, error) {
	start := time.Now()
	cont, err := i.inner.ShouldContinue(ctx, req)
	if err != nil {
		i.obs.GenerationError(i.provider, "should_continue")
		return false, err
	}
	i.obs.ObserveGeneration("should_continue", time.Since(start))
	return cont, nil
}
