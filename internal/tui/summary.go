package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tiff2bit/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
	Warn  bool
	Bad   bool
}

// BatchRows builds the end-of-run table for a conversion batch.
func BatchRows(s processor.Summary) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Files in batch", Value: fmt.Sprintf("%d", s.Total)},
		{Label: "Converted to 2-bit", Value: fmt.Sprintf("%d", s.Converted)},
		{Label: "Unsupported depth", Value: fmt.Sprintf("%d", s.Unsupported), Warn: s.Unsupported > 0},
		{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed), Bad: s.Failed > 0},
	}
	if s.Skipped > 0 {
		rows = append(rows, SummaryRow{Label: "Not started (stopped)", Value: fmt.Sprintf("%d", s.Skipped), Warn: true})
	}
	rows = append(rows, SummaryRow{Label: "Elapsed", Value: s.Elapsed.Round(time.Millisecond).String()})
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}

	for _, row := range rows {
		style := valueStyle
		switch {
		case row.Bad:
			style = badValueStyle
		case row.Warn:
			style = warnValueStyle
		}
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), style.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle     = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	warnValueStyle = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	badValueStyle  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)
