package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tbxark/coachbot/dialogue"
	"github.com/tbxark/coachbot/logbook"
)

const DefaultHandleTimeout = 60 * time.Second

const (
	pongMessage        = "pong"
	logUsage           = "Usage: /log squats:pass, bench press:fail"
	unknownCommandText = "Unknown command. Try /workout, /log, /cancel or /ping."
)

// Dialogue is the conversation engine behind a Bot.
type Dialogue interface {
	Handle(ctx context.Context, msg dialogue.Message) *dialogue.Response
	Expire(ctx context.Context, user string) *dialogue.Response
	Cancel(ctx context.Context, user string) *dialogue.Response
	LogWorkout(ctx context.Context, user string, entries []logbook.Entry) *dialogue.Response
}

type Bot struct {
	transport     Transport
	dialogue      Dialogue
	handleTimeout time.Duration

	wg      sync.WaitGroup
	mu      sync.Mutex
	baseCtx context.Context
	queues  map[string][]queued
	timers  map[string]*time.Timer
	closed  bool
}

// queued is an inbound message waiting for its user's worker.
type queued struct {
	ctx context.Context
	msg Message
}

func New(transport Transport, d Dialogue, handleTimeout time.Duration) *Bot {
	if handleTimeout <= 0 {
		handleTimeout = DefaultHandleTimeout
	}
	return &Bot{
		transport:     transport,
		dialogue:      d,
		handleTimeout: handleTimeout,
		queues:        map[string][]queued{},
		timers:        map[string]*time.Timer{},
	}
}

// Run serves the transport until ctx is done. In-flight messages finish before it returns.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.baseCtx = ctx
	b.mu.Unlock()

	err := b.transport.Run(ctx, b.dispatch)
	b.stopTimers()
	b.wg.Wait()
	return err
}

// dispatch queues msg behind earlier messages from the same user. Each user with queued
// messages has exactly one worker, so one user's messages are handled in arrival order while
// different users run concurrently.
func (b *Bot) dispatch(ctx context.Context, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, running := b.queues[msg.UserID]
	b.queues[msg.UserID] = append(q, queued{ctx: ctx, msg: msg})
	if running {
		return
	}
	b.wg.Add(1)
	go b.drain(msg.UserID)
}

// drain handles user's queue until it is empty. The queue entry stays in the map while a
// message is being handled so dispatch does not start a second worker.
func (b *Bot) drain(user string) {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		q := b.queues[user]
		if len(q) == 0 {
			delete(b.queues, user)
			b.mu.Unlock()
			return
		}
		next := q[0]
		q[0] = queued{}
		b.queues[user] = q[1:]
		b.mu.Unlock()
		b.handle(next.ctx, next.msg)
	}
}

func (b *Bot) handle(ctx context.Context, msg Message) {
	defer func() {
		if e := recover(); e != nil {
			slog.Error("Recovered from panic while handling message", "user", msg.UserID, "panic", fmt.Sprint(e))
		}
	}()
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.handleTimeout)
	defer cancel()
	resp := b.route(hctx, msg)
	b.deliver(hctx, msg, resp)
}

func (b *Bot) route(ctx context.Context, msg Message) *dialogue.Response {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return b.dialogue.Handle(ctx, dialogue.Message{UserID: msg.UserID, Text: text})
	}
	cmd, args := parseCommand(text)
	slog.Debug("Parsed command", "command", cmd, "user", msg.UserID)
	switch cmd {
	case "workout":
		if args == "" {
			return textResponse(dialogue.WorkoutUsage)
		}
		return b.dialogue.Handle(ctx, dialogue.Message{UserID: msg.UserID, Text: args, ForceWorkout: true})
	case "log":
		entries, err := logbook.ParseExerciseLog(args)
		if err != nil {
			return textResponse(fmt.Sprintf("I couldn't read that log: %v. %s", err, logUsage))
		}
		return b.dialogue.LogWorkout(ctx, msg.UserID, entries)
	case "cancel":
		return b.dialogue.Cancel(ctx, msg.UserID)
	case "ping":
		return textResponse(pongMessage)
	case "start", "help":
		return textResponse(dialogue.HelpMessage)
	default:
		return textResponse(unknownCommandText)
	}
}

func (b *Bot) deliver(ctx context.Context, msg Message, resp *dialogue.Response) {
	if resp == nil {
		return
	}
	for _, text := range resp.Messages {
		if err := b.transport.Send(ctx, msg.ChatID, text); err != nil {
			slog.Error("Failed to send reply", "chat", msg.ChatID, "error", err)
		}
	}
	if !resp.AwaitUntil.IsZero() {
		b.scheduleExpiry(msg, resp.AwaitUntil)
	}
}

func (b *Bot) scheduleExpiry(msg Message, deadline time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.baseCtx == nil {
		return
	}
	if t, ok := b.timers[msg.UserID]; ok {
		t.Stop()
	}
	base := b.baseCtx
	var timer *time.Timer
	timer = time.AfterFunc(time.Until(deadline), func() {
		b.mu.Lock()
		if !b.releaseTimer(msg.UserID, timer) {
			b.mu.Unlock()
			return
		}
		b.wg.Add(1)
		b.mu.Unlock()
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(base, b.handleTimeout)
		defer cancel()
		resp := b.dialogue.Expire(ctx, msg.UserID)
		b.deliver(ctx, msg, resp)
	})
	b.timers[msg.UserID] = timer
}

// releaseTimer forgets t as user's expiry timer and reports whether it should still fire.
// A timer that was replaced after it started firing leaves the newer entry alone.
// The caller must hold b.mu.
func (b *Bot) releaseTimer(user string, t *time.Timer) bool {
	if b.closed || b.timers[user] != t {
		return false
	}
	delete(b.timers, user)
	return true
}

func (b *Bot) stopTimers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for user, t := range b.timers {
		t.Stop()
		delete(b.timers, user)
	}
}

// parseCommand splits "/cmd@botname args" into its lowercase name and trimmed arguments.
func parseCommand(text string) (string, string) {
	head, args, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	head, _, _ = strings.Cut(head, "@")
	if nl := strings.IndexByte(head, '\n'); nl >= 0 {
		args = head[nl+1:] + " " + args
		head = head[:nl]
	}
	return strings.ToLower(head), strings.TrimSpace(args)
}

func textResponse(text string) *dialogue.Response {
	return &dialogue.Response{Messages: []string{text}}
}
