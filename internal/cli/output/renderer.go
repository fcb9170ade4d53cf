// Package output renders tabular command results.
//
// Output adapts to the environment: a terminal gets a styled table,
// anything piped gets markdown. The machine formats (csv, json, yaml)
// keep column names verbatim so downstream tooling can rely on them.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeTable    Mode = "table"
	ModeCSV      Mode = "csv"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
	ModeMarkdown Mode = "markdown"
)

// Renderer writes command results in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// NewRenderer creates a Renderer. An empty mode means auto-detect.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{out: out, errOut: errOut, mode: mode}
}

// Writer returns the underlying output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// EffectiveMode resolves ModeAuto: a terminal gets the styled table,
// anything piped gets markdown.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return ModeTable
		}
	}
	return ModeMarkdown
}

// Println writes a line to the output writer.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.out, args...)
}

// Printf writes formatted text to the output writer.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Table renders one result table in the effective mode. Column names are
// snake_case; only the styled table shows them title-cased.
func (r *Renderer) Table(columns []string, rows [][]string) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.renderJSON(columns, rows)
	case ModeYAML:
		return r.renderYAML(columns, rows)
	case ModeCSV:
		return r.renderCSV(columns, rows)
	case ModeMarkdown:
		return r.renderMarkdown(columns, rows)
	default:
		return r.renderTable(columns, rows)
	}
}

func (r *Renderer) renderTable(columns []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.out, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	// StyleLight upcases headers; keep the title-cased labels as written.
	t.Style().Format.Header = text.FormatDefault

	headerRow := make(table.Row, len(columns))
	for i, col := range columns {
		headerRow[i] = HeaderLabel(col)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	t.Render()
	_, _ = fmt.Fprintf(r.out, "(%d rows)\n", len(rows))
	return nil
}

func (r *Renderer) renderJSON(columns []string, rows [][]string) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(records(columns, rows))
}

func (r *Renderer) renderYAML(columns []string, rows [][]string) error {
	enc := yaml.NewEncoder(r.out)
	defer func() { _ = enc.Close() }()
	return enc.Encode(records(columns, rows))
}

func (r *Renderer) renderCSV(columns []string, rows [][]string) error {
	w := csv.NewWriter(r.out)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (r *Renderer) renderMarkdown(columns []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.out, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(r.out, "| %s |\n", strings.Join(columns, " | "))
	seps := make([]string, len(columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(r.out, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		_, _ = fmt.Fprintf(r.out, "| %s |\n", strings.Join(row, " | "))
	}
	return nil
}

// records converts columns and rows into the structure the json and yaml
// modes encode.
func records(columns []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// headerOverrides keeps initialisms readable in styled table headers.
var headerOverrides = map[string]string{
	"id":  "ID",
	"ppm": "PPM",
}

// HeaderLabel turns a snake_case column name into a styled table header.
func HeaderLabel(col string) string {
	caser := cases.Title(language.English)
	words := strings.Split(col, "_")
	for i, w := range words {
		if label, ok := headerOverrides[w]; ok {
			words[i] = label
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}
