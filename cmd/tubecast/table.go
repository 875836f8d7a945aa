package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// defaultCellWidth trims long titles and error messages so rows stay on one
// line in an 80-column terminal.
const defaultCellWidth = 48

// column describes one table column. A zero width uses defaultCellWidth and
// a negative width disables trimming.
type column struct {
	title string
	right bool
	width int
}

func col(title string) column      { return column{title: title} }
func numCol(title string) column   { return column{title: title, right: true} }
func wideCol(title string) column  { return column{title: title, width: 72} }
func fixedCol(title string) column { return column{title: title, width: -1} }

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if c.right {
			configs[i].Align = text.AlignRight
		}
		width := c.width
		if width == 0 {
			width = defaultCellWidth
		}
		if width > 0 {
			configs[i].WidthMax = width
			configs[i].WidthMaxEnforcer = text.Trim
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
