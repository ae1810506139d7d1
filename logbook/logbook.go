// Package logbook parses exercise logs sent by users.
package logbook

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

var (
	ErrEmptyLog      = errors.New("empty log")
	ErrMissingMarker = errors.New("missing a pass/fail marker")
	ErrUnknownMarker = errors.New("unknown marker")
	ErrEmptyName     = errors.New("empty exercise name")
)

type Entry struct {
	Exercise string
	Passed   bool
}

// EntryError points at the entry that failed to parse.
type EntryError struct {
	Entry string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%q: %v", e.Entry, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

var splitter = regexp.MustCompile(`[,\n;]+`)

// ParseExerciseLog parses "name:pass|fail" entries separated by commas, semicolons or
// newlines. The first malformed entry aborts parsing.
func ParseExerciseLog(text string) ([]Entry, error) {
	var entries []Entry
	for _, raw := range splitter.Split(text, -1) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, marker, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, &EntryError{Entry: raw, Err: ErrMissingMarker}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &EntryError{Entry: raw, Err: ErrEmptyName}
		}
		var passed bool
		switch strings.ToLower(strings.TrimSpace(marker)) {
		case "pass", "passed", "done", "ok":
			passed = true
		case "fail", "failed", "skip", "skipped":
			passed = false
		case "":
			return nil, &EntryError{Entry: raw, Err: ErrMissingMarker}
		default:
			return nil, &EntryError{Entry: raw, Err: ErrUnknownMarker}
		}
		entries = append(entries, Entry{Exercise: name, Passed: passed})
	}
	if len(entries) == 0 {
		return nil, ErrEmptyLog
	}
	return entries, nil
}

var skippedPattern = regexp.MustCompile(`(?i)skipped\s+(.+?)\s+because\s+([^,.;\n]+)`)

// ParseSkipped returns every "skipped X because Y" pair in text, in order.
func ParseSkipped(text string) (skipped, reasons []string) {
	for _, m := range skippedPattern.FindAllStringSubmatch(text, -1) {
		skipped = append(skipped, strings.TrimSpace(m[1]))
		reasons = append(reasons, strings.TrimSpace(m[2]))
	}
	return skipped, reasons
}

// Split separates passed and failed exercise names.
func Split(entries []Entry) (passed, failed []string) {
	for _, e := range entries {
		if e.Passed {
			passed = append(passed, e.Exercise)
		} else {
			failed = append(failed, e.Exercise)
		}
	}
	return passed, failed
}

// FormatEntries renders entries as a markdown table.
func FormatEntries(entries []Entry) string {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Exercise", "Result")
	for _, e := range entries {
		result := "fail"
		if e.Passed {
			result = "pass"
		}
		_ = table.Append(e.Exercise, result)
	}
	_ = table.Render()
	return buf.String()
}
