package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table is a Renderable grid. Data, when set, is what JSON and TOON show
// instead of the rows.
type Table struct {
	Headers []string
	Rows    [][]string
	Footer  []string
	Data    any
}

// NewTable creates a table.
func NewTable(headers []string, rows [][]string, footer []string, data any) *Table {
	return &Table{Headers: headers, Rows: rows, Footer: footer, Data: data}
}

// RenderData returns Data, or one header-keyed map per row.
func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string, len(row))
		for i, cell := range row {
			if i < len(t.Headers) {
				m[t.Headers[i]] = cell
			}
		}
		out = append(out, m)
	}
	return out
}

// RenderText draws the table without borders or column separators.
func (t *Table) RenderText(w io.Writer, _ bool) error {
	table := tablewriter.NewTable(w, tableOptions()...)
	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		cells := make([]any, 0, len(t.Footer))
		for _, cell := range t.Footer {
			cells = append(cells, cell)
		}
		table.Footer(cells...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func tableOptions() []tablewriter.Option {
	left := tw.CellAlignment{Global: tw.AlignLeft}
	return []tablewriter.Option{
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  left,
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row:    tw.CellConfig{Alignment: left},
			Footer: tw.CellConfig{Alignment: left},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	}
}
