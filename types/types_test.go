package types

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMissingOrder(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		req  WorkoutRequest
		want []Field
	}{
		{"empty", WorkoutRequest{}, []Field{FieldGoal, FieldMuscleGroups, FieldDuration, FieldDifficulty}},
		{"muscles only", WorkoutRequest{MuscleGroups: []string{"chest"}}, []Field{FieldGoal, FieldDuration, FieldDifficulty}},
		{"difficulty missing", WorkoutRequest{Goal: GoalFatLoss, MuscleGroups: []string{"legs"}, Duration: 30}, []Field{FieldDifficulty}},
		{"complete", WorkoutRequest{Goal: GoalStrength, MuscleGroups: []string{"back"}, Duration: 60, Difficulty: DifficultyAdvanced}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.req.Missing()
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Missing() mismatch (-want +got):\n%s", diff)
			}
			if tc.req.Complete() != (len(tc.want) == 0) {
				t.Errorf("Complete() = %v, want %v", tc.req.Complete(), len(tc.want) == 0)
			}
		})
	}
}

func TestMissingInfoPointers(t *testing.T) {
	t.Parallel()
	infos := WorkoutRequest{Goal: GoalEndurance}.MissingInfo()
	var pointers []string
	for _, info := range infos {
		pointers = append(pointers, info.JSONPointer)
	}
	want := []string{"/muscle_groups", "/duration", "/difficulty"}
	if diff := cmp.Diff(want, pointers); diff != "" {
		t.Errorf("pointers mismatch (-want +got):\n%s", diff)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	got := Summary(WorkoutRequest{Goal: GoalMuscleGain, MuscleGroups: []string{"chest", "back"}, Duration: 45})
	want := "goal: muscle gain, muscles: chest, back, duration: 45 min, difficulty: -"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestFormatToolRequest(t *testing.T) {
	t.Parallel()
	req := WorkoutRequest{Goal: GoalFatLoss}
	out, err := FormatToolRequest(&ToolRequest{
		State:         req,
		Phase:         PhaseAwaitingFields,
		MessagePair:   MessagePair{Question: "How long?", Answer: "30 minutes"},
		MissingFields: req.MissingInfo(),
	})
	if err != nil {
		t.Fatalf("FormatToolRequest failed: %v", err)
	}
	for _, want := range []string{`"goal":"fat_loss"`, "awaiting_fields", "How long?", "30 minutes", "/duration"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt does not contain %q:\n%s", want, out)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		req     WorkoutRequest
		wantErr bool
	}{
		{"empty", WorkoutRequest{}, false},
		{"complete", WorkoutRequest{Goal: GoalFatLoss, MuscleGroups: []string{"legs"}, Duration: 30, Difficulty: DifficultyBeginner}, false},
		{"unknown goal", WorkoutRequest{Goal: "flexibility"}, true},
		{"unknown difficulty", WorkoutRequest{Difficulty: "godlike"}, true},
		{"negative duration", WorkoutRequest{Duration: -1}, true},
		{"blank muscle", WorkoutRequest{MuscleGroups: []string{""}}, true},
	}
	for _, tc := range cases {
		if err := tc.req.Validate(); (err != nil) != tc.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}
