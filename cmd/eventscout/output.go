package main

// ---------------------------------------------------------------------------
// output.go — format flag, table rendering, CSV, run-outcome rendering
// ---------------------------------------------------------------------------

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/engine"
)

// OutputFormat enumerates supported output formats.
type OutputFormat int

const (
	FormatTable OutputFormat = iota
	FormatJSON
	FormatCSV
	FormatYAML
)

// parseFormat converts a --format string to an OutputFormat. "text" is an
// alias for the default table rendering.
func parseFormat(s string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatTable
	}
}

// formatName returns the canonical name for a format.
func formatName(f OutputFormat) string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatYAML:
		return "yaml"
	default:
		return "table"
	}
}

// ---------------------------------------------------------------------------
// Table renderer — auto-sized columns with box-drawing borders
// ---------------------------------------------------------------------------

// Table renders aligned, bordered tables to a writer.
type Table struct {
	headers []string
	rows    [][]string
	w       io.Writer
}

// NewTable creates a table with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{headers: headers, w: w}
}

// AddRow appends a row. Values are matched positionally to headers.
func (t *Table) AddRow(values ...string) {
	// Pad or truncate to match header count
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		}
	}
	t.rows = append(t.rows, row)
}

// Render writes the table with box-drawing borders.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	rule := func(left, join, right string) string {
		var b strings.Builder
		b.WriteString(left)
		for i, w := range widths {
			b.WriteString(strings.Repeat("─", w+2))
			if i < len(widths)-1 {
				b.WriteString(join)
			}
		}
		b.WriteString(right)
		return b.String()
	}

	printRow := func(cells []string) {
		fmt.Fprint(t.w, "│")
		for i, cell := range cells {
			fmt.Fprintf(t.w, " %-*s │", widths[i], cell)
		}
		fmt.Fprintln(t.w)
	}

	fmt.Fprintln(t.w, rule("┌", "┬", "┐"))
	printRow(t.headers)
	fmt.Fprintln(t.w, rule("├", "┼", "┤"))
	for _, row := range t.rows {
		printRow(row)
	}
	fmt.Fprintln(t.w, rule("└", "┴", "┘"))
}

// ---------------------------------------------------------------------------
// CSV writer helper
// ---------------------------------------------------------------------------

func writeCSV(w io.Writer, headers []string, rows [][]string) {
	cw := csv.NewWriter(w)
	cw.Write(headers)
	for _, row := range rows {
		cw.Write(row)
	}
	cw.Flush()
}

// ---------------------------------------------------------------------------
// outputWriter — writes to file if --output is set, otherwise stdout
// ---------------------------------------------------------------------------

func outputWriter(path string) (*os.File, func()) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		errorf("opening output file %q: %v", path, err)
	}
	return f, func() { f.Close() }
}

// ---------------------------------------------------------------------------
// Run-outcome rendering shared by discover, scan, and demo
// ---------------------------------------------------------------------------

// renderOutcome prints a finished run. JSON mode emits the report and the
// merged records as one machine-readable object; text mode prints the
// report summary and, for discover-only runs, the record table.
func renderOutcome(w io.Writer, outcome *engine.RunOutcome, format OutputFormat, discoverOnly bool) {
	report := outcome.Report

	if format == FormatJSON {
		data, err := json.MarshalIndent(map[string]interface{}{
			"report":  report,
			"records": outcome.Records,
		}, "", "  ")
		if err != nil {
			errorf("encoding run outcome: %v", err)
		}
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprintf(w, "\n%s Discovery complete\n\n", green("✓"))
	for _, line := range strings.Split(strings.TrimRight(report.RenderText(), "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)

	switch {
	case report.Events == 0 && !report.Failed():
		fmt.Fprintf(w, "%s No events discovered — the catalog was left untouched.\n", dim("▸"))
	case discoverOnly:
		renderRecords(w, outcome.Records)
		fmt.Fprintf(w, "%s Discover-only run — nothing written.\n", dim("▸"))
	default:
		fmt.Fprintf(w, "%s Catalog written to %s\n", green("✓"), report.OutputDir)
	}
}

// renderRecords prints merged records as a table, one row per channel
// producer. The first source location stands in for the full list.
func renderRecords(w io.Writer, records []core.EventRecord) {
	if len(records) == 0 {
		return
	}
	tbl := NewTable(w, "SERVICE", "CHANNEL", "BROKER", "FRAMEWORK", "CONF", "SOURCES")
	for _, rec := range records {
		first := ""
		if len(rec.Sources) > 0 {
			first = rec.Sources[0].String()
		}
		if len(rec.Sources) > 1 {
			first = fmt.Sprintf("%s (+%d)", first, len(rec.Sources)-1)
		}
		tbl.AddRow(rec.ServiceName, rec.ChannelName, string(rec.Broker), rec.Framework,
			fmt.Sprintf("%.2f", rec.Confidence), first)
	}
	tbl.Render()
	fmt.Fprintln(w)
}
