// Package bot connects the workout dialogue to messaging platforms.
package bot

import "context"

type Message struct {
	ChatID string
	UserID string
	Text   string
}

type Handler func(ctx context.Context, msg Message)

// Transport delivers inbound messages to a Handler and sends replies. Run blocks until ctx
// is done or the connection fails. Messages written by the bot itself are never delivered.
type Transport interface {
	Run(ctx context.Context, handle Handler) error
	Send(ctx context.Context, chatID, text string) error
}
