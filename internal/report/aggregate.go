package report

import (
	"github.com/tjfontaine/support-insights/internal/classification"
	"github.com/tjfontaine/support-insights/internal/domain"
)

// comparisonTally accumulates one agent's review counters.
type comparisonTally struct {
	reviewed int
	changed  int
	critical int
}

// tallyComparisons folds comparison records into per-agent counters. A record
// counts only when it has been reviewed (non-nil classification) and belongs
// to a non-excluded agent; it then increments reviewed unconditionally,
// changed when the agent edited the draft, and critical when the label sits
// in the critical group. Labels outside the known taxonomy still count as
// reviewed, just never as critical.
func tallyComparisons(records []domain.ComparisonRecord, excluded map[string]struct{}) map[string]*comparisonTally {
	tallies := make(map[string]*comparisonTally)

	for _, rec := range records {
		if rec.Classification == nil {
			continue
		}
		if rec.AgentID == "" {
			continue
		}
		if _, skip := excluded[rec.AgentID]; skip {
			continue
		}

		tally := tallies[rec.AgentID]
		if tally == nil {
			tally = &comparisonTally{}
			tallies[rec.AgentID] = tally
		}

		tally.reviewed++
		if rec.Changed {
			tally.changed++
		}
		if classification.IsCritical(*rec.Classification) {
			tally.critical++
		}
	}

	return tallies
}
