package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tjfontaine/support-insights/internal/domain"
)

const statsSheet = "Agent Stats"

var statsHeader = []any{
	"Agent",
	"Answered Tickets",
	"AI Reviewed",
	"Changed",
	"Critical Errors",
	"Unnecessary Changes",
	"Unnecessary Changes %",
	"AI Efficiency %",
}

// WriteStatsWorkbook renders computed stat rows as a spreadsheet: one bold
// header row, one row per agent in the given order, and a bold TOTAL row
// whose percentages are recomputed from the summed counters with the same
// rounding as the per-agent rows.
func WriteStatsWorkbook(w io.Writer, rows []domain.AgentStatRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeRow(f, 1, statsHeader); err != nil {
		return err
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(statsSheet, 1, 1, boldStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	var answered, reviewed, changed, critical, unnecessary int
	for i, row := range rows {
		values := []any{
			row.AgentID,
			row.AnsweredTickets,
			row.AIReviewed,
			row.Changed,
			row.CriticalErrors,
			row.UnnecessaryChanges,
			row.UnnecessaryChangesPercent,
			row.AIEfficiency,
		}
		if err := writeRow(f, i+2, values); err != nil {
			return err
		}
		answered += row.AnsweredTickets
		reviewed += row.AIReviewed
		changed += row.Changed
		critical += row.CriticalErrors
		unnecessary += row.UnnecessaryChanges
	}

	var percent float64
	if reviewed > 0 {
		percent = float64(unnecessary) / float64(reviewed) * 100
	}
	footer := []any{
		"TOTAL",
		answered,
		reviewed,
		changed,
		critical,
		unnecessary,
		roundOneDecimal(percent),
		roundOneDecimal(100 - percent),
	}
	footerRow := len(rows) + 2
	if err := writeRow(f, footerRow, footer); err != nil {
		return err
	}
	if err := f.SetRowStyle(statsSheet, footerRow, footerRow, boldStyle); err != nil {
		return fmt.Errorf("failed to style total row: %w", err)
	}

	if err := f.SetColWidth(statsSheet, "A", "H", 22); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(statsSheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}
