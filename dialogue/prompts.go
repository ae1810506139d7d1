package dialogue

import (
	"fmt"
	"strings"
	"time"

	"github.com/tbxark/coachbot/types"
)

const (
	WorkoutUsage = "Tell me what kind of workout you're looking for! Example: 'I want to build muscle, train chest & biceps for 45 minutes, and I'm an advanced lifter.'"
	HelpMessage  = "I can put together workout plans and log the ones you finish. " + WorkoutUsage

	TryAgainMessage      = "Sorry, something went wrong on my side. Please try again."
	NoHistoryMessage     = "I don't have a recent workout for you yet. Which workout did you complete? Ask me for one first, e.g. 'I want a strength training workout'."
	CancelledMessage     = "Okay, I dropped your pending workout request."
	NothingToCancel      = "There is no pending workout request to cancel."
	planMessagePrefix    = "Here's your personalized workout plan:\n"
	reusedMessagePrefix  = "Here's the plan you got last time:\n"
	loggedMessageDefault = "Nice work! I logged your workout."
)

func clarificationMessage(missing []types.Field, trend []string) string {
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	msg := fmt.Sprintf("I need more details! Can you clarify: %s?", strings.Join(names, ", "))
	if len(trend) > 0 {
		msg += fmt.Sprintf(" Lately you've trained %s the most.", joinAnd(trend))
	}
	return msg
}

func planMessage(plan string) string {
	return planMessagePrefix + plan
}

func reusedPlanMessage(plan string) string {
	return reusedMessagePrefix + plan
}

func reuseQuestion(req types.WorkoutRequest, timeout time.Duration) string {
	return fmt.Sprintf("I already made a plan for %s. Want me to reuse it? Reply yes or no. I'll make a fresh one in %s if I don't hear back.",
		types.Summary(req), timeout.Round(time.Second))
}

func loggedMessage(muscles, skipped []string) string {
	if len(muscles) == 0 {
		return loggedMessageDefault
	}
	msg := fmt.Sprintf("Nice work! I logged your %s workout.", joinAnd(muscles))
	if len(skipped) > 0 {
		msg += fmt.Sprintf(" Noted that you skipped %s.", joinAnd(skipped))
	}
	return msg
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
