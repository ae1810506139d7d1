// Package extract maps free text onto the slots of a workout request.
//
// Extractors do not return a new request. They return RFC6902 operations against the
// current request, which Merge applies. Operations only add or replace values, so a slot
// that is already filled stays filled unless the new text carries a replacement for it.
package extract

import (
	"context"
	"fmt"

	"github.com/tbxark/coachbot/patch"
	"github.com/tbxark/coachbot/types"
)

type Request struct {
	Text           string
	Current        types.WorkoutRequest
	LatestQuestion string
}

type Extractor interface {
	Extract(ctx context.Context, req *Request) ([]patch.Operation, error)
}

// AllowedPaths are the only JSON pointers an extractor may touch.
func AllowedPaths() map[string]bool {
	allowed := make(map[string]bool, len(types.Fields))
	for _, f := range types.Fields {
		allowed[f.Pointer()] = true
	}
	return allowed
}

// Merge runs the extractor on text and applies the result to current. The result must name
// only known goals and difficulty levels and keep every slot current has filled; otherwise
// Merge returns current with an error.
func Merge(ctx context.Context, ex Extractor, text string, current types.WorkoutRequest, latestQuestion string) (types.WorkoutRequest, error) {
	ops, err := ex.Extract(ctx, &Request{
		Text:           text,
		Current:        current,
		LatestQuestion: latestQuestion,
	})
	if err != nil {
		return current, fmt.Errorf("failed to extract fields: %w", err)
	}
	if err := patch.ValidatePatchOperations(ops, AllowedPaths()); err != nil {
		return current, fmt.Errorf("extracted operations failed validation: %w", err)
	}
	merged, err := patch.Apply(current, ops)
	if err != nil {
		return current, fmt.Errorf("failed to merge extracted fields: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return current, fmt.Errorf("merged request is invalid: %w", err)
	}
	for _, f := range types.Fields {
		if current.IsSet(f) && !merged.IsSet(f) {
			return current, fmt.Errorf("merge cleared field %s", f)
		}
	}
	return merged, nil
}
