package report

import (
	"reflect"
	"testing"

	"github.com/tjfontaine/support-insights/internal/domain"
)

func stringPtr(s string) *string {
	return &s
}

func comparison(id, agentID string, label *string, changed bool) domain.ComparisonRecord {
	return domain.ComparisonRecord{
		ID:             id,
		ThreadID:       "thr_1",
		AgentID:        agentID,
		Classification: label,
		Changed:        changed,
		CreatedAt:      ts(6),
	}
}

func TestTallyComparisons(t *testing.T) {
	records := []domain.ComparisonRecord{
		comparison("c1", "agent_a", stringPtr("CRITICAL_FACT_ERROR"), true),
		comparison("c2", "agent_a", stringPtr("STYLISTIC_EDIT"), true),
		comparison("c3", "agent_a", stringPtr("NO_CHANGE_NEEDED"), false),
		comparison("c4", "agent_a", nil, true),
		comparison("c5", "agent_b", stringPtr("HALLUCINATED_REFERENCE"), true),
		comparison("c6", "system", stringPtr("STYLISTIC_EDIT"), true),
		comparison("c7", "", stringPtr("STYLISTIC_EDIT"), true),
	}
	excluded := map[string]struct{}{"system": {}}

	tallies := tallyComparisons(records, excluded)

	if len(tallies) != 2 {
		t.Fatalf("Expected tallies for 2 agents, got %d", len(tallies))
	}

	a := tallies["agent_a"]
	if a == nil {
		t.Fatal("Expected tally for agent_a")
	}
	if a.reviewed != 3 || a.changed != 2 || a.critical != 1 {
		t.Errorf("Expected agent_a reviewed=3 changed=2 critical=1, got %+v", *a)
	}

	b := tallies["agent_b"]
	if b == nil {
		t.Fatal("Expected tally for agent_b")
	}
	if b.reviewed != 1 || b.changed != 1 || b.critical != 1 {
		t.Errorf("Expected agent_b reviewed=1 changed=1 critical=1, got %+v", *b)
	}
}

func TestTallyComparisons_UnreviewedCountNothing(t *testing.T) {
	records := []domain.ComparisonRecord{
		comparison("c1", "agent_a", nil, true),
		comparison("c2", "agent_a", nil, false),
	}

	tallies := tallyComparisons(records, nil)

	if len(tallies) != 0 {
		t.Errorf("Expected no tallies for unreviewed records, got %v", tallies)
	}
}

func TestTallyComparisons_UnknownLabelIsNotCritical(t *testing.T) {
	records := []domain.ComparisonRecord{
		comparison("c1", "agent_a", stringPtr("SOME_FUTURE_LABEL"), true),
	}

	tallies := tallyComparisons(records, nil)

	a := tallies["agent_a"]
	if a == nil {
		t.Fatal("Expected tally for agent_a")
	}
	if a.reviewed != 1 || a.changed != 1 || a.critical != 0 {
		t.Errorf("Expected unknown label to count as reviewed and changed only, got %+v", *a)
	}
}

func TestTallyComparisons_OrderIndependent(t *testing.T) {
	records := []domain.ComparisonRecord{
		comparison("c1", "agent_a", stringPtr("CRITICAL_FACT_ERROR"), true),
		comparison("c2", "agent_b", stringPtr("STYLISTIC_EDIT"), true),
		comparison("c3", "agent_a", stringPtr("TONE_MISMATCH"), true),
		comparison("c4", "agent_b", stringPtr("NO_CHANGE_NEEDED"), false),
		comparison("c5", "agent_a", nil, true),
	}

	forward := tallyComparisons(records, nil)

	reversed := make([]domain.ComparisonRecord, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}
	backward := tallyComparisons(reversed, nil)

	if !reflect.DeepEqual(forward, backward) {
		t.Errorf("Expected order-independent tallies: %v vs %v", forward, backward)
	}
}
