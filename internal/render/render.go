// Package render converts Result values into human-readable or machine-parseable
// output. Each format is a separate function; the top-level Render dispatcher
// selects based on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/encore/internal/model"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
	FormatYAML  = "yaml"
)

// Formats lists every accepted --format value.
var Formats = []string{FormatTable, FormatJSON, FormatJSONL, FormatCSV, FormatTSV, FormatMD, FormatYAML}

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	case FormatYAML:
		return renderYAML(w, result)
	default:
		return renderTable(w, result)
	}
}

// ─── JSON / YAML ──────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func renderYAML(w io.Writer, result *model.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	switch data := result.Data.(type) {
	case []model.EventModel:
		for _, e := range data {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	case []model.SettingRow:
		for _, r := range data {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func newTable(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderTable(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindEvents:
		events, ok := result.Data.([]model.EventModel)
		if !ok {
			return fmt.Errorf("unexpected data type for events")
		}
		return renderEventsTable(w, events)
	case model.KindSettings:
		rows, ok := result.Data.([]model.SettingRow)
		if !ok {
			return fmt.Errorf("unexpected data type for settings")
		}
		tw := newTable(w, []string{"SETTING", "VALUE"})
		for _, r := range rows {
			tw.Append([]string{r.Name, strconv.FormatBool(r.Value)})
		}
		tw.Render()
		return nil
	case model.KindTable:
		t, ok := result.Data.(*model.Table)
		if !ok {
			return fmt.Errorf("unexpected data type for table")
		}
		tw := newTable(w, t.Columns)
		tw.AppendBulk(t.Rows)
		tw.Render()
		return nil
	default:
		// Fallback: JSON
		return renderJSON(w, result)
	}
}

func renderEventsTable(w io.Writer, events []model.EventModel) error {
	tw := newTable(w, []string{"ID", "DATE", "OPEN", "TITLE", "ROOM", "ADMISSION", "AGE", "STATUS"})
	for _, e := range events {
		tw.Append([]string{
			e.ID,
			e.Date,
			e.Open,
			truncate(e.Title, 40),
			truncate(e.Room, 20),
			truncate(e.Admission, 16),
			e.AgeLimit,
			status(e),
		})
	}
	tw.Render()
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

var eventColumns = []string{
	"id", "date", "open", "title", "sub_header", "room", "venue",
	"admission", "age_limit", "is_free_admission", "is_cancelled", "is_postponed", "ticket_url",
}

func eventRecord(e model.EventModel) []string {
	return []string{
		e.ID, e.Date, e.Open, e.Title, e.SubHeader, e.Room, e.Venue,
		e.Admission, e.AgeLimit,
		strconv.FormatBool(e.IsFreeAdmission),
		strconv.FormatBool(e.IsCancelled),
		strconv.FormatBool(e.IsPostponed),
		e.TicketURL,
	}
}

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	switch data := result.Data.(type) {
	case []model.EventModel:
		_ = cw.Write(eventColumns)
		for _, e := range data {
			_ = cw.Write(eventRecord(e))
		}
	case []model.SettingRow:
		_ = cw.Write([]string{"name", "value"})
		for _, r := range data {
			_ = cw.Write([]string{r.Name, strconv.FormatBool(r.Value)})
		}
	case *model.Table:
		_ = cw.Write(data.Columns)
		_ = cw.WriteAll(data.Rows)
	default:
		// Fallback: serialize as JSON on a single line
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	switch data := result.Data.(type) {
	case []model.EventModel:
		fmt.Fprintf(w, "| DATE | OPEN | TITLE | ROOM | ADMISSION | STATUS |\n|----|----|----|----|----|----|\n")
		for _, e := range data {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
				e.Date, e.Open, mdEscape(e.Title), mdEscape(e.Room), mdEscape(e.Admission), status(e))
		}
		return nil
	case []model.SettingRow:
		fmt.Fprintf(w, "| SETTING | VALUE |\n|----|----|\n")
		for _, r := range data {
			fmt.Fprintf(w, "| %s | %t |\n", r.Name, r.Value)
		}
		return nil
	case *model.Table:
		fmt.Fprintf(w, "| %s |\n", strings.Join(data.Columns, " | "))
		fmt.Fprintf(w, "|%s\n", strings.Repeat("----|", len(data.Columns)))
		for _, row := range data.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = mdEscape(c)
			}
			fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
		}
		return nil
	default:
		return renderJSON(w, result)
	}
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "live"
		if result.Stats.CacheHit {
			src = "cache"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
			src,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func status(e model.EventModel) string {
	switch {
	case e.IsCancelled:
		return "cancelled"
	case e.IsPostponed:
		return "postponed"
	case e.IsFreeAdmission:
		return "free"
	}
	return ""
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
