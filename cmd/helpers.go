package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/encore/internal/app"
	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/render"
	"github.com/derickschaefer/encore/internal/state"
	"github.com/derickschaefer/encore/internal/util"
)

// settleTimeout bounds how long a command waits for the container's effects.
const settleTimeout = 30 * time.Second

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns the writer commands print results to: a file when
// --out is set, otherwise def. The close func is always safe to call.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// emit renders result to the output writer in the effective format and
// prints the footer to stderr.
func emit(out io.Writer, deps *app.Deps, result *model.Result) error {
	w, closeFn, err := outputWriter(out)
	if err != nil {
		return err
	}
	if err := render.Render(w, result, resolveFormat(deps.Config.Format)); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if !deps.Config.Quiet {
		render.PrintFooter(os.Stderr, result, deps.Config.Verbose)
	}
	return nil
}

// settle waits until every dispatched action and effect has finished.
func settle(ctx context.Context, c *state.Container) error {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for pending work: %w", err)
	}
	return nil
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

// parseOnOff accepts the usual spellings of a boolean switch.
func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid value %q: expected on|off|true|false", s)
	}
	return v, nil
}

// seasonRange returns the default listing range: today through
// 31 December, in the configured timezone.
func seasonRange(deps *app.Deps, now time.Time) (string, string) {
	today := util.Today(now, deps.Location)
	return util.VenueDate(today), util.VenueDate(util.EndOfYear(today))
}

// resolveRange fills in and normalises --from/--to.
func resolveRange(deps *app.Deps, from, to string, now time.Time) (string, string, error) {
	defFrom, defTo := seasonRange(deps, now)
	var err error
	if from == "" {
		from = defFrom
	} else if from, err = util.NormalizeDate(from, deps.Location); err != nil {
		return "", "", fmt.Errorf("--from: %w", err)
	}
	if to == "" {
		to = defTo
	} else if to, err = util.NormalizeDate(to, deps.Location); err != nil {
		return "", "", fmt.Errorf("--to: %w", err)
	}
	if to < from {
		return "", "", fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return from, to, nil
}

// buildEventsResult wraps an event slice in a Result envelope.
func buildEventsResult(command string, events []model.EventModel, start time.Time) *model.Result {
	if events == nil {
		events = []model.EventModel{}
	}
	return &model.Result{
		Kind:        model.KindEvents,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        events,
		Stats: model.ResultStats{
			Items:      len(events),
			DurationMs: time.Since(start).Milliseconds(),
		},
	}
}

// buildTableResult wraps rows in a generic table Result.
func buildTableResult(command string, columns []string, rows [][]string) *model.Result {
	return &model.Result{
		Kind:        model.KindTable,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        &model.Table{Columns: columns, Rows: rows},
		Stats:       model.ResultStats{Items: len(rows)},
	}
}
