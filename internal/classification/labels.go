// Package classification defines the closed taxonomy of review labels and
// the grouping rule the aggregation engine scores with.
//
// Two label generations exist: the short-form labels written by the first
// review tool and the fine-grained labels the current tool emits. Both map
// through one static table into four disjoint groups, so the aggregator only
// ever consults the group and stays generation-agnostic.
package classification

import "sort"

// Group is one of the four scoring buckets every label maps into.
type Group string

const (
	// GroupCritical marks edits that fixed a real AI failure.
	GroupCritical Group = "critical"

	// GroupNeedsWork marks edits addressing minor quality problems.
	GroupNeedsWork Group = "needs_work"

	// GroupGood marks reviews where the draft had no real issue.
	GroupGood Group = "good"

	// GroupExcluded marks reviews driven by circumstances unrelated to AI
	// quality, such as workflow shifts or stale account data.
	GroupExcluded Group = "excluded"
)

// Current-generation labels.
const (
	LabelCriticalFactError        = "CRITICAL_FACT_ERROR"
	LabelCriticalProcessViolation = "CRITICAL_PROCESS_VIOLATION"
	LabelHallucinatedReference    = "HALLUCINATED_REFERENCE"
	LabelIncompleteAnswer         = "INCOMPLETE_ANSWER"
	LabelToneMismatch             = "TONE_MISMATCH"
	LabelMinorFactSlip            = "MINOR_FACT_SLIP"
	LabelStylisticEdit            = "STYLISTIC_EDIT"
	LabelFormattingPreference     = "FORMATTING_PREFERENCE"
	LabelNoChangeNeeded           = "NO_CHANGE_NEEDED"
	LabelWorkflowShift            = "WORKFLOW_SHIFT"
	LabelDataDiscrepancy          = "DATA_DISCREPANCY"
	LabelCustomerContextChange    = "CUSTOMER_CONTEXT_CHANGE"
)

// Legacy-generation labels, still present on records written before the
// fine-grained taxonomy shipped.
const (
	LegacyCritical      = "CRITICAL"
	LegacyMinor         = "MINOR"
	LegacyOK            = "OK"
	LegacyNotApplicable = "NOT_APPLICABLE"
)

// groupByLabel is the static total mapping. Every label either review tool
// can emit appears exactly once; the partition test walks this table.
var groupByLabel = map[string]Group{
	LabelCriticalFactError:        GroupCritical,
	LabelCriticalProcessViolation: GroupCritical,
	LabelHallucinatedReference:    GroupCritical,
	LegacyCritical:                GroupCritical,

	LabelIncompleteAnswer: GroupNeedsWork,
	LabelToneMismatch:     GroupNeedsWork,
	LabelMinorFactSlip:    GroupNeedsWork,
	LegacyMinor:           GroupNeedsWork,

	LabelStylisticEdit:        GroupGood,
	LabelFormattingPreference: GroupGood,
	LabelNoChangeNeeded:       GroupGood,
	LegacyOK:                  GroupGood,

	LabelWorkflowShift:         GroupExcluded,
	LabelDataDiscrepancy:       GroupExcluded,
	LabelCustomerContextChange: GroupExcluded,
	LegacyNotApplicable:        GroupExcluded,
}

// GroupOf returns the scoring group for a label. The second return is false
// for labels outside the taxonomy.
func GroupOf(label string) (Group, bool) {
	g, ok := groupByLabel[label]
	return g, ok
}

// IsCritical reports whether a label marks a real AI failure. Unknown labels
// are not critical.
func IsCritical(label string) bool {
	return groupByLabel[label] == GroupCritical
}

// Labels returns the full label set across both generations, sorted.
func Labels() []string {
	out := make([]string, 0, len(groupByLabel))
	for label := range groupByLabel {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// CriticalLabels returns the labels of the critical group, sorted. Drill-down
// queries use it as an inclusion list.
func CriticalLabels() []string {
	return labelsWhere(func(g Group) bool { return g == GroupCritical })
}

// NonCriticalLabels returns every label outside the critical group, sorted.
// It is the complement CriticalLabels leaves, so a drill-down restricted to
// it counts exactly the records the aggregate treats as unnecessary changes.
func NonCriticalLabels() []string {
	return labelsWhere(func(g Group) bool { return g != GroupCritical })
}

func labelsWhere(keep func(Group) bool) []string {
	var out []string
	for label, g := range groupByLabel {
		if keep(g) {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}
