package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// timingOrder is the display order of recorded stage timings.
var timingOrder = []string{"download", "transcription", "formatting", "retry", "structure", "total"}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render() + "\n"
}

// renderTimings prints stage durations in pipeline order. Unknown stages are
// skipped.
func renderTimings(seconds map[string]float64) string {
	if len(seconds) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(timingOrder))
	for _, stage := range timingOrder {
		value, ok := seconds[stage]
		if !ok {
			continue
		}
		rows = append(rows, []string{stage, formatSeconds(value)})
	}
	return renderTable([]string{"Stage", "Time"}, rows, []columnAlignment{alignLeft, alignRight})
}

func formatSeconds(value float64) string {
	if value >= 60 {
		minutes := int(value) / 60
		return fmt.Sprintf("%dm%04.1fs", minutes, value-float64(minutes*60))
	}
	return fmt.Sprintf("%.1fs", value)
}
