// Package dialogue runs the per-user workout request conversation.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tbxark/coachbot/extract"
	"github.com/tbxark/coachbot/generate"
	"github.com/tbxark/coachbot/intent"
	"github.com/tbxark/coachbot/logbook"
	"github.com/tbxark/coachbot/records"
	"github.com/tbxark/coachbot/session"
	"github.com/tbxark/coachbot/types"
)

const DefaultConfirmTimeout = 30 * time.Second

type Message struct {
	UserID string
	Text   string
	// ForceWorkout treats the text as a workout request regardless of keywords.
	ForceWorkout bool
}

type Response struct {
	Messages []string
	// AwaitUntil is set when the controller waits for a yes/no answer. The host should call
	// Expire for the user once it passes.
	AwaitUntil time.Time
}

func (r *Response) reply(msg string) {
	r.Messages = append(r.Messages, msg)
}

// CachedPlan is the last generated plan of a user and the request it was made for.
type CachedPlan struct {
	Request types.WorkoutRequest `json:"request"`
	Plan    string               `json:"plan"`
}

type Controller struct {
	extractor  extract.Extractor
	recognizer intent.Recognizer
	generator  generate.Generator
	recorder   records.Recorder

	pending session.Store[*types.State]
	history session.Store[types.WorkoutRequest]
	plans   session.Store[CachedPlan]
	locks   *session.KeyedMutex

	now            func() time.Time
	confirmTimeout time.Duration
	trendSize      int
}

type Option func(*Controller)

func WithPendingCache(c session.Cache[*types.State]) Option {
	return func(ctl *Controller) {
		ctl.pending = session.NewStore(c, "pending")
	}
}

func WithHistoryCache(c session.Cache[types.WorkoutRequest]) Option {
	return func(ctl *Controller) {
		ctl.history = session.NewStore(c, "history")
	}
}

func WithPlanCache(c session.Cache[CachedPlan]) Option {
	return func(ctl *Controller) {
		ctl.plans = session.NewStore(c, "plan")
	}
}

func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) {
		ctl.now = now
	}
}

// WithConfirmTimeout sets how long a reuse question waits for an answer. Zero disables
// plan reuse.
func WithConfirmTimeout(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.confirmTimeout = d
	}
}

// WithTrendHint sets how many frequent muscle groups a clarification mentions. Zero disables
// the hint.
func WithTrendHint(n int) Option {
	return func(ctl *Controller) {
		ctl.trendSize = n
	}
}

func NewController(
	extractor extract.Extractor,
	recognizer intent.Recognizer,
	generator generate.Generator,
	recorder records.Recorder,
	opts ...Option,
) (*Controller, error) {
	if extractor == nil || recognizer == nil || generator == nil || recorder == nil {
		return nil, fmt.Errorf("extractor, recognizer, generator and recorder are required")
	}
	ctl := &Controller{
		extractor:      extractor,
		recognizer:     recognizer,
		generator:      generator,
		recorder:       recorder,
		pending:        session.NewStore[*types.State](session.NewMemoryCache[*types.State](), "pending"),
		history:        session.NewStore[types.WorkoutRequest](session.NewMemoryCache[types.WorkoutRequest](), "history"),
		plans:          session.NewStore[CachedPlan](session.NewMemoryCache[CachedPlan](), "plan"),
		locks:          session.NewKeyedMutex(),
		now:            time.Now,
		confirmTimeout: DefaultConfirmTimeout,
		trendSize:      2,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ctl)
		}
	}
	return ctl, nil
}

// Handle processes one inbound message. Messages of the same user are handled one at a time.
func (c *Controller) Handle(ctx context.Context, msg Message) *Response {
	unlock := c.locks.Lock(msg.UserID)
	defer unlock()

	resp := &Response{}
	state, ok, err := c.pending.Get(ctx, msg.UserID)
	if err != nil {
		slog.Error("Failed to load pending request", "user", msg.UserID, "error", err)
		resp.reply(TryAgainMessage)
		return resp
	}
	if ok && c.confirmationExpired(state) {
		slog.Debug("Confirmation expired before message", "user", msg.UserID)
		c.generateFresh(ctx, msg.UserID, state.Request, resp)
		state, ok = nil, false
	}

	phase := types.PhaseNoPending
	latestQuestion := ""
	if ok {
		phase = state.Phase
		latestQuestion = state.LatestQuestion
	}
	in, err := c.recognizer.RecognizeIntent(ctx, &intent.Request{
		Text:           msg.Text,
		Phase:          phase,
		LatestQuestion: latestQuestion,
	})
	if err != nil {
		slog.Error("Failed to recognize intent", "user", msg.UserID, "error", err)
		resp.reply(TryAgainMessage)
		return resp
	}
	if msg.ForceWorkout && in != intent.Completion {
		in = intent.Workout
	}
	slog.Debug("Recognized intent", "user", msg.UserID, "intent", in, "phase", phase)

	switch {
	case in == intent.Completion:
		c.handleCompletion(ctx, msg.UserID, msg.Text, resp)
	case phase == types.PhaseAwaitingConfirmation:
		if msg.ForceWorkout {
			c.collect(ctx, msg.UserID, msg.Text, &types.State{Phase: types.PhaseAwaitingFields}, resp)
		} else if in == intent.Affirm {
			c.reusePlan(ctx, msg.UserID, state, resp)
		} else {
			c.generateFresh(ctx, msg.UserID, state.Request, resp)
		}
	case phase == types.PhaseAwaitingFields:
		c.collect(ctx, msg.UserID, msg.Text, state, resp)
	case in == intent.Workout:
		c.collect(ctx, msg.UserID, msg.Text, &types.State{Phase: types.PhaseAwaitingFields}, resp)
	default:
		resp.reply(HelpMessage)
	}
	return resp
}

// Expire resolves an expired reuse question by generating a fresh plan. It returns nil when
// nothing was waiting or the deadline has not passed yet.
func (c *Controller) Expire(ctx context.Context, user string) *Response {
	unlock := c.locks.Lock(user)
	defer unlock()

	state, ok, err := c.pending.Get(ctx, user)
	if err != nil {
		slog.Error("Failed to load pending request", "user", user, "error", err)
		return nil
	}
	if !ok || !c.confirmationExpired(state) {
		return nil
	}
	slog.Debug("Confirmation expired", "user", user)
	resp := &Response{}
	c.generateFresh(ctx, user, state.Request, resp)
	return resp
}

// Cancel drops the pending request of user.
func (c *Controller) Cancel(ctx context.Context, user string) *Response {
	unlock := c.locks.Lock(user)
	defer unlock()

	resp := &Response{}
	exists, err := c.pending.Exists(ctx, user)
	if err != nil {
		slog.Error("Failed to load pending request", "user", user, "error", err)
		resp.reply(TryAgainMessage)
		return resp
	}
	if !exists {
		resp.reply(NothingToCancel)
		return resp
	}
	if err := c.pending.Del(ctx, user); err != nil {
		slog.Error("Failed to delete pending request", "user", user, "error", err)
		resp.reply(TryAgainMessage)
		return resp
	}
	resp.reply(CancelledMessage)
	return resp
}

// LogWorkout records an explicit exercise log. The muscle groups of the last completed
// request are attached when there is one.
func (c *Controller) LogWorkout(ctx context.Context, user string, entries []logbook.Entry) *Response {
	unlock := c.locks.Lock(user)
	defer unlock()

	resp := &Response{}
	last, _, err := c.history.Get(ctx, user)
	if err != nil {
		slog.Warn("Failed to load session history", "user", user, "error", err)
	}
	passed, failed := logbook.Split(entries)
	rec := records.Record{
		Date:         c.now(),
		UserID:       user,
		MuscleGroups: last.MuscleGroups,
		Exercises:    passed,
		Status:       records.StatusCompleted,
		Skipped:      failed,
	}
	if len(failed) > 0 {
		rec.Status = records.StatusPartial
	}
	if err := c.recorder.Append(ctx, rec); err != nil {
		slog.Error("Failed to append record", "user", user, "error", err)
		resp.reply(TryAgainMessage)
		return resp
	}
	slog.Info("Logged workout", "user", user, "exercises", len(entries), "status", rec.Status)
	resp.reply("Logged:\n" + logbook.FormatEntries(entries))
	return resp
}

func (c *Controller) confirmationExpired(state *types.State) bool {
	if state == nil || state.Phase != types.PhaseAwaitingConfirmation || state.Confirmation == nil {
		return false
	}
	return !c.now().Before(state.Confirmation.Deadline)
}

func (c *Controller) collect(ctx context.Context, user, text string, state *types.State, resp *Response) {
	merged, err := extract.Merge(ctx, c.extractor, text, state.Request, state.LatestQuestion)
	if err != nil {
		slog.Error("Failed to merge workout request", "user", user, "error", err)
		c.dropPending(ctx, user)
		resp.reply(TryAgainMessage)
		return
	}
	slog.Debug("Merged workout request", "user", user, "request", types.Summary(merged))
	if !merged.Complete() {
		question := clarificationMessage(merged.Missing(), c.trend(ctx, user, merged))
		next := &types.State{
			Phase:          types.PhaseAwaitingFields,
			Request:        merged,
			LatestQuestion: question,
		}
		if err := c.pending.Set(ctx, user, next); err != nil {
			slog.Error("Failed to save pending request", "user", user, "error", err)
			resp.reply(TryAgainMessage)
			return
		}
		resp.reply(question)
		return
	}
	c.submit(ctx, user, merged, resp)
}

func (c *Controller) submit(ctx context.Context, user string, req types.WorkoutRequest, resp *Response) {
	if c.confirmTimeout > 0 {
		cached, ok, err := c.plans.Get(ctx, user)
		if err != nil {
			slog.Warn("Failed to load cached plan", "user", user, "error", err)
		}
		if ok && cached.Plan != "" && cached.Request.Equal(req) {
			deadline := c.now().Add(c.confirmTimeout)
			question := reuseQuestion(req, c.confirmTimeout)
			err := c.pending.Set(ctx, user, &types.State{
				Phase:   types.PhaseAwaitingConfirmation,
				Request: req,
				Confirmation: &types.Confirmation{
					Plan:     cached.Plan,
					Deadline: deadline,
				},
				LatestQuestion: question,
			})
			if err == nil {
				resp.reply(question)
				resp.AwaitUntil = deadline
				return
			}
			slog.Warn("Failed to save confirmation, generating a fresh plan", "user", user, "error", err)
		}
	}
	c.generateFresh(ctx, user, req, resp)
}

func (c *Controller) generateFresh(ctx context.Context, user string, req types.WorkoutRequest, resp *Response) {
	slog.Info("Generating workout plan", "user", user, "request", types.Summary(req))
	plan, err := generate.Plan(ctx, c.generator, req)
	if err != nil {
		slog.Error("Failed to generate workout plan", "user", user, "error", err)
		c.dropPending(ctx, user)
		resp.reply(TryAgainMessage)
		return
	}
	c.finish(ctx, user, req)
	if err := c.plans.Set(ctx, user, CachedPlan{Request: req, Plan: plan}); err != nil {
		slog.Warn("Failed to cache plan", "user", user, "error", err)
	}
	resp.reply(planMessage(plan))
}

func (c *Controller) reusePlan(ctx context.Context, user string, state *types.State, resp *Response) {
	if state.Confirmation == nil {
		c.generateFresh(ctx, user, state.Request, resp)
		return
	}
	slog.Info("Reusing cached workout plan", "user", user)
	c.finish(ctx, user, state.Request)
	resp.reply(reusedPlanMessage(state.Confirmation.Plan))
}

func (c *Controller) finish(ctx context.Context, user string, req types.WorkoutRequest) {
	if err := c.history.Set(ctx, user, req); err != nil {
		slog.Error("Failed to save session history", "user", user, "error", err)
	}
	c.dropPending(ctx, user)
}

func (c *Controller) dropPending(ctx context.Context, user string) {
	if err := c.pending.Del(ctx, user); err != nil {
		slog.Error("Failed to delete pending request", "user", user, "error", err)
	}
}

func (c *Controller) handleCompletion(ctx context.Context, user, text string, resp *Response) {
	last, ok, err := c.history.Get(ctx, user)
	if err != nil {
		slog.Error("Failed to load session history", "user", user, "error", err)
		resp.reply(TryAgainMessage)
		return
	}
	if !ok {
		resp.reply(NoHistoryMessage)
		return
	}
	skipped, reasons := logbook.ParseSkipped(text)
	rec := records.Record{
		Date:         c.now(),
		UserID:       user,
		MuscleGroups: last.MuscleGroups,
		Status:       records.StatusCompleted,
		Skipped:      skipped,
		Reasons:      reasons,
	}
	if len(skipped) > 0 {
		rec.Status = records.StatusPartial
	}
	if err := c.recorder.Append(ctx, rec); err != nil {
		slog.Error("Failed to append record", "user", user, "error", err)
		resp.reply(TryAgainMessage)
		return
	}
	slog.Info("Recorded completed workout", "user", user, "muscle_groups", last.MuscleGroups, "status", rec.Status)
	resp.reply(loggedMessage(last.MuscleGroups, skipped))
}

func (c *Controller) trend(ctx context.Context, user string, req types.WorkoutRequest) []string {
	if c.trendSize <= 0 || req.IsSet(types.FieldMuscleGroups) {
		return nil
	}
	recs, err := c.recorder.All(ctx)
	if err != nil {
		slog.Warn("Failed to load records for trend hint", "user", user, "error", err)
		return nil
	}
	return records.TopMuscleGroups(recs, user, c.trendSize)
}
