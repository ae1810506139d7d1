// Package logging builds the process wide slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string
	Format string
	// File, when set, receives JSON logs rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// New builds a logger writing to stderr and, optionally, to a rotating file. The returned
// closer releases the file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	return newLogger(os.Stderr, opts)
}

func newLogger(terminal io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if opts.Format == "json" {
		handlers = append(handlers, slog.NewJSONHandler(terminal, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(terminal, handlerOpts))
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 20),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			Compress:   true,
		}
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
		closer = file
	}
	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
