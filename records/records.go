// Package records persists completed workout logs.
package records

import (
	"context"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
)

type Record struct {
	Date         time.Time `json:"date"`
	UserID       string    `json:"user_id"`
	MuscleGroups []string  `json:"muscle_groups"`
	Exercises    []string  `json:"exercises,omitempty"`
	Status       Status    `json:"status"`
	Skipped      []string  `json:"skipped,omitempty"`
	Reasons      []string  `json:"reasons,omitempty"`
}

type Recorder interface {
	Append(ctx context.Context, rec Record) error
	All(ctx context.Context) ([]Record, error)
}

type MemoryRecorder struct {
	mu   sync.RWMutex
	recs []Record
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Append(ctx context.Context, rec Record) error {
	m.mu.Lock()
	m.recs = append(m.recs, rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryRecorder) All(ctx context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.recs))
	copy(out, m.recs)
	return out, nil
}

// TopMuscleGroups counts how often each muscle group appears in the user's records and
// returns the n most frequent. Ties keep the order of first appearance.
func TopMuscleGroups(recs []Record, user string, n int) []string {
	if n <= 0 {
		return nil
	}
	counts := map[string]int{}
	var order []string
	for _, rec := range recs {
		if rec.UserID != user {
			continue
		}
		for _, m := range rec.MuscleGroups {
			if _, seen := counts[m]; !seen {
				order = append(order, m)
			}
			counts[m]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}
