// Package generate produces workout plans from a text-generation backend.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbxark/coachbot/types"
)

const SystemPrompt = "You are a fitness coach that generates detailed workout plans."

var ErrEmptyPlan = errors.New("generator returned an empty plan")

type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// UserPrompt renders a complete request as the instruction sent to the backend.
func UserPrompt(req types.WorkoutRequest) string {
	return fmt.Sprintf("Create a %s workout focusing on %s, lasting %d minutes, for a %s level lifter.",
		req.Goal.Label(),
		strings.Join(req.MuscleGroups, ", "),
		req.Duration,
		req.Difficulty,
	)
}

// Plan asks g for a plan for req. req must be complete.
func Plan(ctx context.Context, g Generator, req types.WorkoutRequest) (string, error) {
	if !req.Complete() {
		return "", fmt.Errorf("request is incomplete, missing %v", req.Missing())
	}
	plan, err := g.Generate(ctx, SystemPrompt, UserPrompt(req))
	if err != nil {
		return "", err
	}
	plan = strings.TrimSpace(plan)
	if plan == "" {
		return "", ErrEmptyPlan
	}
	return plan, nil
}

type FailbackGenerator struct {
	generators []Generator
}

func NewFailbackGenerator(generators ...Generator) *FailbackGenerator {
	return &FailbackGenerator{generators: generators}
}

func (f *FailbackGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	lastErr := errors.New("no generator configured")
	for _, g := range f.generators {
		out, err := g.Generate(ctx, systemPrompt, userPrompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("all generators failed: %w", lastErr)
}
