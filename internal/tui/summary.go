package tui

import "github.com/charmbracelet/lipgloss"

// SummaryRow is one label/value line of a summary block. Alert rows are
// drawn in the warning colour.
type SummaryRow struct {
	Label string
	Value string
	Alert bool
}

func RenderSummary(rows []SummaryRow) string {
	if len(rows) == 0 {
		return ""
	}

	labels := make([]string, len(rows))
	values := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = labelStyle.Render(row.Label)
		style := valueStyle
		if row.Alert {
			style = alertStyle
		}
		values[i] = style.Render(row.Value)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		labelColumnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, labels...)),
		lipgloss.JoinVertical(lipgloss.Left, values...),
	)
	return summaryFrame.Render(body)
}

var (
	valueStyle       = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	alertStyle       = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	labelColumnStyle = lipgloss.NewStyle().PaddingRight(3)
	summaryFrame     = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false).BorderForeground(ColorDim)
)
