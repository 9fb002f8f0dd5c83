package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// defaultColumns returns the question table layout for a standard terminal.
func defaultColumns() []table.Column {
	return columnsForWidth(100)
}

// columnsForWidth sizes the question column to absorb the leftover width.
func columnsForWidth(width int) []table.Column {
	const fixed = 6 + 28 + 8 + 4 + 6
	questionWidth := width - fixed - 12
	if questionWidth < 20 {
		questionWidth = 20
	}
	if questionWidth > 80 {
		questionWidth = 80
	}
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Question", Width: questionWidth},
		{Title: "Status", Width: 28},
		{Title: "Time", Width: 8},
		{Title: "Src", Width: 4},
		{Title: "Retry", Width: 6},
	}
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.DefaultStyles()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatQuestionID(row),
			formatQuestionText(row.Text),
			formatStatus(row, noColor),
			formatRowDuration(row, now),
			formatSources(row),
			formatRetries(row.RetryCount),
		})
	}
	return rows
}
