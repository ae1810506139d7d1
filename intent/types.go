// Package intent classifies inbound chat messages.
package intent

import (
	"context"

	"github.com/tbxark/coachbot/types"
)

type Intent string

const (
	// Workout asks for a workout plan.
	Workout Intent = "workout"
	// Completion reports a finished workout.
	Completion Intent = "completion"
	Affirm     Intent = "affirm"
	Deny       Intent = "deny"
	None       Intent = "none"
)

type Request struct {
	Text           string
	Phase          types.Phase
	LatestQuestion string
}

type Recognizer interface {
	RecognizeIntent(ctx context.Context, req *Request) (Intent, error)
}
