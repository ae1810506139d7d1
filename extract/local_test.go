package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tbxark/coachbot/patch"
	"github.com/tbxark/coachbot/types"
)

func merge(t *testing.T, ex Extractor, text string, base types.WorkoutRequest) types.WorkoutRequest {
	t.Helper()
	got, err := Merge(context.Background(), ex, text, base, "")
	if err != nil {
		t.Fatalf("Merge(%q) failed: %v", text, err)
	}
	return got
}

func TestSinglePassComplete(t *testing.T) {
	t.Parallel()
	got := merge(t, NewLocalExtractor(), "I want to build muscle, train chest for 45 minutes, beginner level", types.WorkoutRequest{})
	want := types.WorkoutRequest{
		Goal:         types.GoalMuscleGain,
		MuscleGroups: []string{"chest"},
		Duration:     45,
		Difficulty:   types.DifficultyBeginner,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	if !got.Complete() {
		t.Errorf("request should be complete, missing %v", got.Missing())
	}
}

func TestMusclesOnly(t *testing.T) {
	t.Parallel()
	got := merge(t, NewLocalExtractor(), "train chest", types.WorkoutRequest{})
	if diff := cmp.Diff([]string{"chest"}, got.MuscleGroups); diff != "" {
		t.Errorf("muscle groups mismatch (-want +got):\n%s", diff)
	}
	want := []types.Field{types.FieldGoal, types.FieldDuration, types.FieldDifficulty}
	if diff := cmp.Diff(want, got.Missing()); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIntoPending(t *testing.T) {
	t.Parallel()
	base := types.WorkoutRequest{Goal: types.GoalFatLoss, Duration: 30}
	got := merge(t, NewLocalExtractor(), "advanced, legs", base)
	want := types.WorkoutRequest{
		Goal:         types.GoalFatLoss,
		MuscleGroups: []string{"legs"},
		Duration:     30,
		Difficulty:   types.DifficultyAdvanced,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeNeverClearsFields(t *testing.T) {
	t.Parallel()
	base := types.WorkoutRequest{
		Goal:         types.GoalStrength,
		MuscleGroups: []string{"back", "biceps"},
		Duration:     60,
		Difficulty:   types.DifficultyIntermediate,
	}
	for _, text := range []string{"", "hello there", "sounds good", "12 reps"} {
		got := merge(t, NewLocalExtractor(), text, base)
		if diff := cmp.Diff(base, got); diff != "" {
			t.Errorf("Merge(%q) changed the request (-want +got):\n%s", text, diff)
		}
	}
}

func TestMuscleGroupsReplacedWholesale(t *testing.T) {
	t.Parallel()
	base := types.WorkoutRequest{MuscleGroups: []string{"chest", "triceps"}}
	got := merge(t, NewLocalExtractor(), "actually make it shoulders", base)
	if diff := cmp.Diff([]string{"shoulders"}, got.MuscleGroups); diff != "" {
		t.Errorf("muscle groups mismatch (-want +got):\n%s", diff)
	}
}

func TestMuscleOrderOfFirstOccurrence(t *testing.T) {
	t.Parallel()
	got := NewLocalExtractor().Fields("Legs today, then Chest and glutes, more legs")
	if diff := cmp.Diff([]string{"legs", "chest", "glutes"}, got.MuscleGroups); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestGoalLastRuleWins(t *testing.T) {
	t.Parallel()
	got := NewLocalExtractor().Fields("I want to lose fat but also build muscle")
	if got.Goal != types.GoalFatLoss {
		t.Errorf("goal = %q, want %q (later table entry wins)", got.Goal, types.GoalFatLoss)
	}
	got = NewLocalExtractor().Fields("Strength Training to build muscle")
	if got.Goal != types.GoalStrength {
		t.Errorf("goal = %q, want %q", got.Goal, types.GoalStrength)
	}
}

func TestDifficultyFirstInFixedOrder(t *testing.T) {
	t.Parallel()
	got := NewLocalExtractor().Fields("advanced lifter, but treat me as a Beginner")
	if got.Difficulty != types.DifficultyBeginner {
		t.Errorf("difficulty = %q, want %q", got.Difficulty, types.DifficultyBeginner)
	}
}

func TestDurationUnits(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text  string
		units DurationUnits
		want  int
	}{
		{"45 minutes", DurationMinutes, 45},
		{"90min", DurationMinutes, 90},
		{"10 hours", DurationMinutes, 600},
		{"10 hrs", DurationVerbatim, 10},
		{"5 minutes", DurationMinutes, 0},
	}
	for _, tc := range cases {
		got := NewLocalExtractor(WithDurationUnits(tc.units)).Fields(tc.text)
		if got.Duration != tc.want {
			t.Errorf("Fields(%q) with %s: duration = %d, want %d", tc.text, tc.units, got.Duration, tc.want)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	t.Parallel()
	ex := NewLocalExtractor()
	text := "strength training for back and biceps, 60 minutes, intermediate"
	base := types.WorkoutRequest{Goal: types.GoalEndurance}
	once := merge(t, ex, text, base)
	twice := merge(t, ex, text, once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second extraction changed the result (-once +twice):\n%s", diff)
	}
	again := merge(t, ex, text, base)
	if diff := cmp.Diff(once, again); diff != "" {
		t.Errorf("extraction is not deterministic (-first +second):\n%s", diff)
	}
}

func TestMissingEmptyIffComplete(t *testing.T) {
	t.Parallel()
	ex := NewLocalExtractor()
	req := types.WorkoutRequest{}
	for _, text := range []string{"train chest", "hi", "lose fat", "30 minutes", "intermediate please"} {
		req = merge(t, ex, text, req)
		allSet := req.Goal != "" && len(req.MuscleGroups) > 0 && req.Duration > 0 && req.Difficulty != ""
		if (len(req.Missing()) == 0) != allSet {
			t.Fatalf("after %q: Missing() = %v but allSet = %v", text, req.Missing(), allSet)
		}
	}
	if !req.Complete() {
		t.Errorf("request should be complete after all turns, missing %v", req.Missing())
	}
}

type stubExtractor struct {
	ops []patch.Operation
	err error
}

func (s stubExtractor) Extract(ctx context.Context, req *Request) ([]patch.Operation, error) {
	return s.ops, s.err
}

func TestFailbackExtractor(t *testing.T) {
	t.Parallel()
	failing := stubExtractor{err: errors.New("model unavailable")}
	ex := NewFailbackExtractor(failing, NewLocalExtractor())
	got := merge(t, ex, "train legs", types.WorkoutRequest{})
	if diff := cmp.Diff([]string{"legs"}, got.MuscleGroups); diff != "" {
		t.Errorf("failback did not reach the local extractor (-want +got):\n%s", diff)
	}

	_, err := Merge(context.Background(), NewFailbackExtractor(failing), "train legs", types.WorkoutRequest{}, "")
	if err == nil {
		t.Fatal("expected error when every extractor fails")
	}
}

func TestMergeRejectsDisallowedOperations(t *testing.T) {
	t.Parallel()
	ex := stubExtractor{ops: []patch.Operation{{Op: patch.OperationRemove, Path: "/goal"}}}
	base := types.WorkoutRequest{Goal: types.GoalStrength}
	got, err := Merge(context.Background(), ex, "whatever", base, "")
	if err == nil {
		t.Fatal("expected remove operation to be rejected")
	}
	if got.Goal != types.GoalStrength {
		t.Errorf("goal changed to %q after rejected merge", got.Goal)
	}
}

func TestMergeRejectsClearingAndUnknownValues(t *testing.T) {
	t.Parallel()
	base := types.WorkoutRequest{Goal: types.GoalStrength, MuscleGroups: []string{"legs"}, Duration: 30}
	cases := []struct {
		name string
		ops  []patch.Operation
	}{
		{"clear and unknown", []patch.Operation{
			{Op: patch.OperationReplace, Path: "/goal", Value: ""},
			{Op: patch.OperationReplace, Path: "/duration", Value: float64(0)},
			{Op: patch.OperationReplace, Path: "/difficulty", Value: "godlike"},
		}},
		{"empty muscle list", []patch.Operation{{Op: patch.OperationReplace, Path: "/muscle_groups", Value: []any{}}}},
		{"unknown difficulty", []patch.Operation{{Op: patch.OperationAdd, Path: "/difficulty", Value: "godlike"}}},
		{"unknown goal", []patch.Operation{{Op: patch.OperationReplace, Path: "/goal", Value: "flexibility"}}},
		{"negative duration", []patch.Operation{{Op: patch.OperationReplace, Path: "/duration", Value: float64(-5)}}},
		{"blank muscle", []patch.Operation{{Op: patch.OperationReplace, Path: "/muscle_groups", Value: []any{"chest", " "}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Merge(context.Background(), stubExtractor{ops: tc.ops}, "whatever", base, "")
			if err == nil {
				t.Fatalf("expected merge to be rejected, got %+v", got)
			}
			if diff := cmp.Diff(base, got); diff != "" {
				t.Errorf("request changed after rejected merge (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeAcceptsKnownReplacement(t *testing.T) {
	t.Parallel()
	base := types.WorkoutRequest{Goal: types.GoalStrength, MuscleGroups: []string{"legs"}, Duration: 30}
	ex := stubExtractor{ops: []patch.Operation{
		{Op: patch.OperationReplace, Path: "/goal", Value: "endurance"},
		{Op: patch.OperationReplace, Path: "/difficulty", Value: "advanced"},
	}}
	got, err := Merge(context.Background(), ex, "whatever", base, "")
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	want := types.WorkoutRequest{Goal: types.GoalEndurance, MuscleGroups: []string{"legs"}, Duration: 30, Difficulty: types.DifficultyAdvanced}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}
