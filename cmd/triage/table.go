package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// columnLimit caps the rendered width of a free-text column. Overflowing
// feedback text wraps onto continuation lines instead of widening the table.
type columnLimit struct {
	column int // 1-based
	width  int
}

// renderTable draws a rounded, left-aligned table. Every triage listing is
// textual (ids, enum labels, feedback excerpts), so alignment is uniform and
// only width limits vary per command.
func renderTable(headers []string, rows [][]string, limits ...columnLimit) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, name := range headers {
		header[i] = name
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, columns)
	for i := 0; i < columns; i++ {
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
	}
	for _, limit := range limits {
		if limit.column < 1 || limit.column > columns || limit.width <= 0 {
			continue
		}
		configs[limit.column-1].WidthMax = limit.width
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
