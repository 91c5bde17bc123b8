// Package pipeline reads and writes event streams in JSONL format, one
// EventModel per line. It is the pipe format for favourites export/import
// and for `--format jsonl`.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/util"
)

// ReadEvents reads JSONL records from r. Blank lines and lines starting with
// "//" are skipped. Every valid record is returned; bad lines (invalid JSON,
// missing id, bad date) are collected into a *util.MultiError so callers can
// choose to import what was readable.
func ReadEvents(r io.Reader) ([]model.EventModel, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var (
		events []model.EventModel
		bad    util.MultiError
	)
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		var ev model.EventModel
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			bad.Add(fmt.Errorf("line %d: invalid JSON: %w", lineNum, err))
			continue
		}
		if ev.ID == "" {
			bad.Add(fmt.Errorf("line %d: missing id", lineNum))
			continue
		}
		if ev.Date != "" {
			if _, err := util.ParseDate(ev.Date, time.UTC); err != nil {
				bad.Add(fmt.Errorf("line %d: %w", lineNum, err))
				continue
			}
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("reading input: %w", err)
	}
	if len(events) == 0 && bad.Err() == nil {
		return nil, fmt.Errorf("no events read from input (is stdin empty?)")
	}
	return events, bad.Err()
}

// WriteJSONL writes events as JSONL to w.
func WriteJSONL(w io.Writer, events []model.EventModel) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// IsTTY returns true if stdout is a terminal (not a pipe).
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
