package store

import (
	"encoding/json"
	"time"

	"github.com/tjfontaine/support-insights/internal/domain"
)

// Wire row shapes mirror the store's column names. Conversion to domain
// types is lenient: a malformed field degrades to its zero value rather than
// failing the whole page.

type threadRow struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticket_id"`
	CreatedAt string `json:"created_at"`
	Version   string `json:"version"`
	Category  string `json:"category"`
}

func (r threadRow) toDomain() domain.Thread {
	return domain.Thread{
		ID:        r.ID,
		TicketID:  r.TicketID,
		CreatedAt: parseTime(r.CreatedAt),
		Version:   r.Version,
		Category:  r.Category,
	}
}

type messageRow struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	TicketID  string `json:"ticket_id"`
	Direction string `json:"direction"`
	SentAt    string `json:"sent_at"`
	AgentID   string `json:"responsible_party"`
}

func (r messageRow) toDomain() domain.DialogMessage {
	return domain.DialogMessage{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		TicketID:  r.TicketID,
		Direction: domain.Direction(r.Direction),
		SentAt:    parseTime(r.SentAt),
		AgentID:   r.AgentID,
	}
}

type comparisonRow struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	AgentID        string          `json:"responsible_party"`
	Classification *string         `json:"classification"`
	Changed        bool            `json:"changed"`
	CreatedAt      string          `json:"created_at"`
	Version        string          `json:"version"`
	Category       string          `json:"category"`
	AIDraft        string          `json:"ai_draft"`
	FinalReply     string          `json:"final_reply"`
	Details        json.RawMessage `json:"details"`
}

func (r comparisonRow) toDomain() domain.ComparisonRecord {
	rec := domain.ComparisonRecord{
		ID:             r.ID,
		ThreadID:       r.ThreadID,
		AgentID:        r.AgentID,
		Classification: r.Classification,
		Changed:        r.Changed,
		CreatedAt:      parseTime(r.CreatedAt),
		Version:        r.Version,
		Category:       r.Category,
		AIDraft:        r.AIDraft,
		FinalReply:     r.FinalReply,
	}
	if len(r.Details) > 0 && string(r.Details) != "null" {
		var d domain.EditDetails
		if err := json.Unmarshal(r.Details, &d); err == nil {
			rec.Details = &d
		}
	}
	return rec
}

// parseTime decodes an RFC 3339 timestamp, returning the zero time when the
// value is missing or unparseable.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
