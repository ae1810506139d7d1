package bot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// ConsoleTransport reads one message per line and prints replies. Every line comes from
// the same user.
type ConsoleTransport struct {
	in     io.Reader
	out    io.Writer
	user   string
	mu     sync.Mutex
	prompt string
}

func NewConsoleTransport(in io.Reader, out io.Writer, user string) *ConsoleTransport {
	return &ConsoleTransport{in: in, out: out, user: user, prompt: "> "}
}

func (c *ConsoleTransport) Run(ctx context.Context, handle Handler) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()
	c.write(c.prompt)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			if line == "" {
				c.write(c.prompt)
				continue
			}
			handle(ctx, Message{ChatID: c.user, UserID: c.user, Text: line})
		}
	}
}

func (c *ConsoleTransport) Send(ctx context.Context, chatID, text string) error {
	c.write(fmt.Sprintf("%s\n%s", text, c.prompt))
	return nil
}

func (c *ConsoleTransport) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}
