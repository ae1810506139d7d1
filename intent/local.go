package intent

import (
	"context"
	"strings"

	"github.com/tbxark/coachbot/types"
)

type LocalIntentRecognizer struct {
	CompletionKeywords []string
	WorkoutKeywords    []string
	AffirmKeywords     []string
	DenyKeywords       []string
}

func NewLocalIntentRecognizer() *LocalIntentRecognizer {
	return &LocalIntentRecognizer{
		CompletionKeywords: []string{"completed", "finished", "done with my workout"},
		WorkoutKeywords:    []string{"workout", "train", "exercise", "routine"},
		AffirmKeywords:     []string{"yes", "y", "yeah", "yep", "sure", "ok", "okay", "reuse", "reuse it", "same"},
		DenyKeywords:       []string{"no", "n", "nope", "nah", "new", "fresh", "new one"},
	}
}

// RecognizeIntent matches substrings for completion and workout, completion first, so a
// user reporting a finished workout never restarts a dialogue. Affirm and deny are only
// recognized as whole answers while a confirmation is pending.
func (p *LocalIntentRecognizer) RecognizeIntent(ctx context.Context, req *Request) (Intent, error) {
	normalized := strings.ToLower(strings.TrimSpace(req.Text))
	if normalized == "" {
		return None, nil
	}
	if req.Phase == types.PhaseAwaitingConfirmation {
		answer := strings.TrimRight(normalized, ".!")
		for _, keyword := range p.AffirmKeywords {
			if answer == keyword {
				return Affirm, nil
			}
		}
		for _, keyword := range p.DenyKeywords {
			if answer == keyword {
				return Deny, nil
			}
		}
	}
	for _, keyword := range p.CompletionKeywords {
		if strings.Contains(normalized, keyword) {
			return Completion, nil
		}
	}
	for _, keyword := range p.WorkoutKeywords {
		if strings.Contains(normalized, keyword) {
			return Workout, nil
		}
	}
	return None, nil
}

type FailbackRecognizer struct {
	recognizers []Recognizer
}

func NewFailbackRecognizer(recognizers ...Recognizer) *FailbackRecognizer {
	return &FailbackRecognizer{recognizers: recognizers}
}

func (p *FailbackRecognizer) RecognizeIntent(ctx context.Context, req *Request) (Intent, error) {
	var lastErr error
	for _, r := range p.recognizers {
		in, err := r.RecognizeIntent(ctx, req)
		if err == nil {
			return in, nil
		}
		lastErr = err
	}
	return None, lastErr
}
