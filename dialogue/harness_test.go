package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tbxark/coachbot/extract"
	"github.com/tbxark/coachbot/intent"
	"github.com/tbxark/coachbot/records"
	"github.com/tbxark/coachbot/types"
)

type fakeGenerator struct {
	mu      sync.Mutex
	plan    string
	err     error
	prompts []string
	delay   time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, userPrompt)
	return f.plan, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeRecorder struct {
	records.MemoryRecorder
	appendErr error
	appends   int
}

func (f *fakeRecorder) Append(ctx context.Context, rec records.Record) error {
	f.appends++
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.MemoryRecorder.Append(ctx, rec)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	t         *testing.T
	ctl       *Controller
	generator *fakeGenerator
	recorder  *fakeRecorder
	clock     *fakeClock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		generator: &fakeGenerator{plan: "1. Bench press 4x8\n2. Incline fly 3x12"},
		recorder:  &fakeRecorder{},
		clock:     &fakeClock{now: time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)},
	}
	opts = append([]Option{WithClock(h.clock.Now)}, opts...)
	ctl, err := NewController(extract.NewLocalExtractor(), intent.NewLocalIntentRecognizer(), h.generator, h.recorder, opts...)
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}
	h.ctl = ctl
	return h
}

func (h *harness) send(user, text string) *Response {
	h.t.Helper()
	return h.ctl.Handle(context.Background(), Message{UserID: user, Text: text})
}

func (h *harness) pending(user string) (*types.State, bool) {
	h.t.Helper()
	state, ok, err := h.ctl.pending.Get(context.Background(), user)
	if err != nil {
		h.t.Fatalf("failed to read pending state: %v", err)
	}
	return state, ok
}

func (h *harness) history(user string) (types.WorkoutRequest, bool) {
	h.t.Helper()
	req, ok, err := h.ctl.history.Get(context.Background(), user)
	if err != nil {
		h.t.Fatalf("failed to read history: %v", err)
	}
	return req, ok
}

func (h *harness) records() []records.Record {
	h.t.Helper()
	recs, err := h.recorder.All(context.Background())
	if err != nil {
		h.t.Fatalf("failed to read records: %v", err)
	}
	return recs
}

func expectOneReply(t *testing.T, resp *Response) string {
	t.Helper()
	if resp == nil || len(resp.Messages) != 1 {
		t.Fatalf("expected exactly one reply, got %+v", resp)
	}
	return resp.Messages[0]
}

var errBackend = errors.New("backend unavailable")
