package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tbxark/coachbot/patch"
	"github.com/tbxark/coachbot/types"
)

// DurationUnits selects how hour-based durations are stored.
type DurationUnits string

const (
	// DurationMinutes converts hours to minutes ("90 min" -> 90, "10 hours" -> 600).
	DurationMinutes DurationUnits = "minutes"
	// DurationVerbatim keeps the number as written regardless of its unit ("10 hours" -> 10).
	DurationVerbatim DurationUnits = "verbatim"
)

type GoalRule struct {
	Phrase string
	Goal   types.Goal
}

// DefaultGoalRules is evaluated top to bottom; when several phrases match, the last one wins.
var DefaultGoalRules = []GoalRule{
	{Phrase: "build muscle", Goal: types.GoalMuscleGain},
	{Phrase: "lose fat", Goal: types.GoalFatLoss},
	{Phrase: "increase endurance", Goal: types.GoalEndurance},
	{Phrase: "strength training", Goal: types.GoalStrength},
}

var DefaultMuscleVocabulary = []string{
	"chest", "back", "shoulders", "biceps", "triceps", "arms",
	"legs", "quads", "hamstrings", "glutes", "calves", "core", "abs",
}

// DefaultDifficultyOrder is checked in order; the first match wins.
var DefaultDifficultyOrder = []types.Difficulty{
	types.DifficultyBeginner,
	types.DifficultyIntermediate,
	types.DifficultyAdvanced,
}

var durationPattern = regexp.MustCompile(`(?i)(\d{2,3})\s?(minutes|min|hours|hrs?)`)

type LocalExtractor struct {
	GoalRules     []GoalRule
	Muscles       []string
	Difficulties  []types.Difficulty
	DurationUnits DurationUnits
}

type LocalOption func(*LocalExtractor)

func WithDurationUnits(units DurationUnits) LocalOption {
	return func(e *LocalExtractor) {
		e.DurationUnits = units
	}
}

func WithMuscleVocabulary(muscles []string) LocalOption {
	return func(e *LocalExtractor) {
		e.Muscles = muscles
	}
}

func NewLocalExtractor(opts ...LocalOption) *LocalExtractor {
	e := &LocalExtractor{
		GoalRules:     DefaultGoalRules,
		Muscles:       DefaultMuscleVocabulary,
		Difficulties:  DefaultDifficultyOrder,
		DurationUnits: DurationMinutes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *LocalExtractor) Extract(ctx context.Context, req *Request) ([]patch.Operation, error) {
	found := e.Fields(req.Text)
	ops, err := patch.GeneratePatchesFromValues(req.Current, found)
	if err != nil {
		return nil, fmt.Errorf("failed to diff extracted fields: %w", err)
	}
	return ops, nil
}

// Fields applies every rule to text and returns the slots it found. Slots with no match
// are left zero.
func (e *LocalExtractor) Fields(text string) types.WorkoutRequest {
	lower := strings.ToLower(text)
	return types.WorkoutRequest{
		Goal:         e.goal(lower),
		MuscleGroups: e.muscles(lower),
		Duration:     e.duration(text),
		Difficulty:   e.difficulty(lower),
	}
}

func (e *LocalExtractor) goal(lower string) types.Goal {
	var goal types.Goal
	for _, rule := range e.GoalRules {
		if strings.Contains(lower, rule.Phrase) {
			goal = rule.Goal
		}
	}
	return goal
}

func (e *LocalExtractor) muscles(lower string) []string {
	type hit struct {
		term  string
		index int
	}
	var hits []hit
	for _, term := range e.Muscles {
		if i := strings.Index(lower, term); i >= 0 {
			hits = append(hits, hit{term: term, index: i})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].index < hits[j].index
	})
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.term)
	}
	return out
}

func (e *LocalExtractor) duration(text string) int {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	if e.DurationUnits != DurationVerbatim && strings.HasPrefix(strings.ToLower(m[2]), "h") {
		n *= 60
	}
	return n
}

func (e *LocalExtractor) difficulty(lower string) types.Difficulty {
	for _, d := range e.Difficulties {
		if strings.Contains(lower, string(d)) {
			return d
		}
	}
	return ""
}

type FailbackExtractor struct {
	extractors []Extractor
}

func NewFailbackExtractor(extractors ...Extractor) *FailbackExtractor {
	return &FailbackExtractor{extractors: extractors}
}

func (f *FailbackExtractor) Extract(ctx context.Context, req *Request) ([]patch.Operation, error) {
	var lastErr error
	for _, ex := range f.extractors {
		ops, err := ex.Extract(ctx, req)
		if err == nil {
			return ops, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, nil
	}
	return nil, fmt.Errorf("all extractors failed: %w", lastErr)
}
