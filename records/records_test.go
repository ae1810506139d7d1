package records

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleRecords() []Record {
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []Record{
		{Date: day, UserID: "u1", MuscleGroups: []string{"chest", "triceps"}, Status: StatusCompleted},
		{Date: day.Add(24 * time.Hour), UserID: "u1", MuscleGroups: []string{"legs"}, Status: StatusPartial,
			Skipped: []string{"squats"}, Reasons: []string{"knee pain"}},
		{Date: day.Add(48 * time.Hour), UserID: "u2", MuscleGroups: []string{"back", "back"}, Status: StatusCompleted},
		{Date: day.Add(72 * time.Hour), UserID: "u1", MuscleGroups: []string{"legs", "triceps"}, Status: StatusCompleted,
			Exercises: []string{"lunges", "dips"}},
		{Date: day.Add(96 * time.Hour), UserID: "u3", MuscleGroups: []string{"legs"}, Status: StatusPartial,
			Exercises: []string{"squats, lunges", "rows"}, Skipped: []string{"squats, lunges"}, Reasons: []string{"knee pain, left side"}},
	}
}

func TestTopMuscleGroups(t *testing.T) {
	t.Parallel()
	recs := sampleRecords()
	if diff := cmp.Diff([]string{"triceps", "legs"}, TopMuscleGroups(recs, "u1", 2)); diff != "" {
		t.Errorf("top-2 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"triceps", "legs", "chest"}, TopMuscleGroups(recs, "u1", 5)); diff != "" {
		t.Errorf("top-5 mismatch (-want +got):\n%s", diff)
	}
	if got := TopMuscleGroups(recs, "nobody", 2); len(got) != 0 {
		t.Errorf("unknown user got %v", got)
	}
	if got := TopMuscleGroups(recs, "u1", 0); got != nil {
		t.Errorf("n=0 got %v", got)
	}
}

func TestTopMuscleGroupsTieKeepsFirstAppearance(t *testing.T) {
	t.Parallel()
	recs := []Record{
		{UserID: "u", MuscleGroups: []string{"back"}},
		{UserID: "u", MuscleGroups: []string{"chest"}},
		{UserID: "u", MuscleGroups: []string{"abs"}},
	}
	if diff := cmp.Diff([]string{"back", "chest"}, TopMuscleGroups(recs, "u", 2)); diff != "" {
		t.Errorf("tie order mismatch (-want +got):\n%s", diff)
	}
}

func testRecorder(t *testing.T, r Recorder) {
	t.Helper()
	ctx := context.Background()
	want := sampleRecords()
	for _, rec := range want {
		if err := r.Append(ctx, rec); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	got, err := r.All(ctx)
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty(), cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryRecorder(t *testing.T) {
	t.Parallel()
	testRecorder(t, NewMemoryRecorder())
}

func TestSQLiteRecorder(t *testing.T) {
	t.Parallel()
	db, err := NewSQLiteRecorder(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	testRecorder(t, db)
}

func TestDecodeList(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"[]", nil},
		{`["squats, lunges","rows"]`, []string{"squats, lunges", "rows"}},
	}
	for _, tc := range cases {
		got, err := decodeList(tc.raw)
		if err != nil {
			t.Fatalf("decodeList(%q) failed: %v", tc.raw, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("decodeList(%q) mismatch (-want +got):\n%s", tc.raw, diff)
		}
	}
	if _, err := decodeList("squats,lunges"); err == nil {
		t.Error("expected error for a column that is not a JSON array")
	}
}

func TestPostgresRecorderLive(t *testing.T) {
	url := os.Getenv("COACHBOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("set COACHBOT_TEST_DATABASE_URL to run postgres tests")
	}
	ctx := context.Background()
	db, err := NewPostgresRecorder(ctx, url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := db.pool.Exec(ctx, "TRUNCATE workout_records"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	testRecorder(t, db)
}
