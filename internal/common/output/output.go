// Package output renders command results as text tables or JSON and writes
// the user-facing progress messages shown in verbose mode.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Format selects how results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%s is not a valid output type. Allowed values are text|json", s)
}

// Printer writes results to Out and diagnostics to Err.
type Printer struct {
	Out     io.Writer
	Err     io.Writer
	Format  Format
	Verbose bool
}

// Verbosef prints a progress message to Err when verbose output is on.
func (p *Printer) Verbosef(format string, args ...any) {
	if !p.Verbose {
		return
	}
	fmt.Fprintf(p.Err, format+"\n", args...)
}

// Done prints the green DONE marker in verbose mode.
func (p *Printer) Done() {
	if !p.Verbose {
		return
	}
	fmt.Fprintln(p.Err, text.FgGreen.Sprint("DONE"))
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List prints items. Text output is a table of the given keys, JSON output
// carries every property.
func (p *Printer) List(items []map[string]any, keys ...string) error {
	if p.Format == FormatJSON {
		if items == nil {
			items = []map[string]any{}
		}
		return p.JSON(items)
	}

	if len(items) == 0 {
		return nil
	}

	t := newTable(p.Out)
	header := make(table.Row, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	t.AppendHeader(header)

	for _, item := range items {
		row := make(table.Row, len(keys))
		for i, k := range keys {
			row[i] = Value(item[k])
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

// Object prints a single item. Text output lists keys and values, restricted
// to keys when any are given.
func (p *Printer) Object(item map[string]any, keys ...string) error {
	if p.Format == FormatJSON {
		return p.JSON(item)
	}

	if len(keys) == 0 {
		for k := range item {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	t := newTable(p.Out)
	for _, k := range keys {
		t.AppendRow(table.Row{k, Value(item[k])})
	}
	t.Render()
	return nil
}

// Value formats a property for text output. Nested values are shown as JSON.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	// Headers keep the property names as returned by the service.
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)
	return t
}

// ConfigureColors enables or disables colored output for the process:
// FORCE_COLOR wins, then NO_COLOR, TERM=dumb and a non-terminal stdout turn
// colors off.
func ConfigureColors() {
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		text.EnableColors()
		return
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		text.DisableColors()
		return
	}
	if os.Getenv("TERM") == "dumb" {
		text.DisableColors()
		return
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		text.DisableColors()
		return
	}
	text.EnableColors()
}
