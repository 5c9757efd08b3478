package report

import (
	"math"
	"sort"

	"github.com/tjfontaine/support-insights/internal/domain"
)

// calculateMetrics merges answered-thread sets and review tallies into the
// final per-agent rows. The agent universe is the union of both inputs: an
// agent with replies but no reviews appears, and so does one with reviews but
// no attributable replies. Agents with zero answered threads and zero
// reviewed records are dropped.
//
// Derived values per agent:
//
//	unnecessaryChanges  = max(0, changed - criticalErrors)
//	unnecessaryPercent  = aiReviewed > 0 ? unnecessary / aiReviewed * 100 : 0
//	aiEfficiency        = 100 - unnecessaryPercent
//
// Percent and efficiency both round from the raw percentage, so they stay
// complements of each other up to rounding of each side. Rows sort by
// efficiency descending with agent id as the tie break.
func calculateMetrics(
	answered map[string]map[string]struct{},
	tallies map[string]*comparisonTally,
) []domain.AgentStatRow {
	agents := make(map[string]struct{}, len(answered)+len(tallies))
	for id := range answered {
		agents[id] = struct{}{}
	}
	for id := range tallies {
		agents[id] = struct{}{}
	}

	rows := make([]domain.AgentStatRow, 0, len(agents))
	for id := range agents {
		row := domain.AgentStatRow{
			AgentID:         id,
			AnsweredTickets: len(answered[id]),
		}
		if tally := tallies[id]; tally != nil {
			row.AIReviewed = tally.reviewed
			row.Changed = tally.changed
			row.CriticalErrors = tally.critical
		}

		if row.AnsweredTickets == 0 && row.AIReviewed == 0 {
			continue
		}

		unnecessary := row.Changed - row.CriticalErrors
		if unnecessary < 0 {
			unnecessary = 0
		}
		row.UnnecessaryChanges = unnecessary

		var percent float64
		if row.AIReviewed > 0 {
			percent = float64(unnecessary) / float64(row.AIReviewed) * 100
		}
		row.UnnecessaryChangesPercent = roundOneDecimal(percent)
		row.AIEfficiency = roundOneDecimal(100 - percent)

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AIEfficiency != rows[j].AIEfficiency {
			return rows[i].AIEfficiency > rows[j].AIEfficiency
		}
		return rows[i].AgentID < rows[j].AgentID
	})

	return rows
}

// roundOneDecimal rounds to one decimal place with ties going away from
// zero, so 6.25 becomes 6.3.
func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
