// Package domain defines the data model the aggregation engine works over:
// read-only snapshots fetched from the backing store and the derived
// per-agent statistic rows. Entities live for one computation and are never
// written back.
package domain

import (
	"fmt"
	"time"
)

// Direction of a dialog message within a thread.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Thread is one support conversation, grouped under a ticket. A ticket may
// span several threads.
type Thread struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	CreatedAt time.Time `json:"createdAt"`
	Version   string    `json:"version"`
	Category  string    `json:"category"`
}

// DialogMessage is one inbound or outbound message within a thread. AgentID
// is empty for inbound messages and for outbound messages the store holds
// with a null responsible party. A zero SentAt marks a timestamp that failed
// to decode; consumers treat such a message as absent.
type DialogMessage struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	TicketID  string    `json:"ticketId"`
	Direction Direction `json:"direction"`
	SentAt    time.Time `json:"sentAt"`
	AgentID   string    `json:"agentId,omitempty"`
}

// EditDetails is the structured payload attached to a comparison record by
// the review tool. It arrives as embedded JSON and decodes leniently: a
// malformed payload yields a nil EditDetails, never a failed fetch.
type EditDetails struct {
	EditReason  string `json:"edit_reason,omitempty"`
	DiffSummary string `json:"diff_summary,omitempty"`
}

// ComparisonRecord is a stored evaluation of an AI-drafted reply against the
// reply the agent actually sent. A nil Classification means the record has
// not been reviewed yet and counts toward nothing.
type ComparisonRecord struct {
	ID             string       `json:"id"`
	ThreadID       string       `json:"threadId"`
	AgentID        string       `json:"agentId"`
	Classification *string      `json:"classification"`
	Changed        bool         `json:"changed"`
	CreatedAt      time.Time    `json:"createdAt"`
	Version        string       `json:"version,omitempty"`
	Category       string       `json:"category,omitempty"`
	AIDraft        string       `json:"aiDraft,omitempty"`
	FinalReply     string       `json:"finalReply,omitempty"`
	Details        *EditDetails `json:"details,omitempty"`
}

// AgentStatRow is one derived row of the aggregate view.
//
// Counters satisfy 0 <= CriticalErrors <= Changed <= AIReviewed for any
// consistently-reviewed dataset; rows with zero answered threads and zero
// reviewed records are dropped before output.
type AgentStatRow struct {
	AgentID                   string  `json:"agentId"`
	AnsweredTickets           int     `json:"answeredTickets"`
	AIReviewed                int     `json:"aiReviewed"`
	Changed                   int     `json:"changed"`
	CriticalErrors            int     `json:"criticalErrors"`
	UnnecessaryChanges        int     `json:"unnecessaryChanges"`
	UnnecessaryChangesPercent float64 `json:"unnecessaryChangesPercent"`
	AIEfficiency              float64 `json:"aiEfficiency"`
}

// Filters narrows a computation to a date range and optional version and
// category sets. Empty slices mean no restriction. A zero From or To leaves
// that bound open.
type Filters struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Versions   []string  `json:"versions,omitempty"`
	Categories []string  `json:"categories,omitempty"`
}

// ChangeType selects which edited records a drill-down returns.
type ChangeType string

const (
	ChangeTypeAll         ChangeType = "all"
	ChangeTypeCritical    ChangeType = "critical"
	ChangeTypeUnnecessary ChangeType = "unnecessary"
)

// ParseChangeType validates a change-type string. The empty string selects
// all edited records.
func ParseChangeType(s string) (ChangeType, error) {
	switch ChangeType(s) {
	case "", ChangeTypeAll:
		return ChangeTypeAll, nil
	case ChangeTypeCritical:
		return ChangeTypeCritical, nil
	case ChangeTypeUnnecessary:
		return ChangeTypeUnnecessary, nil
	}
	return "", fmt.Errorf("unknown change type %q", s)
}

// ComparisonPage is one drill-down page plus the total match count. Total
// comes from a separate counted query, never from the page length.
type ComparisonPage struct {
	Rows  []ComparisonRecord `json:"rows"`
	Total int                `json:"total"`
}

// MessageQuery selects dialog messages by thread or ticket membership and
// direction. Empty slices mean no restriction on that key.
type MessageQuery struct {
	ThreadIDs []string
	TicketIDs []string
	Direction Direction
}

// ComparisonQuery selects comparison records. The aggregate path restricts by
// ThreadIDs only; the drill-down path restricts by agent, changed, reviewed,
// label list, and the record-level filter columns.
type ComparisonQuery struct {
	ThreadIDs []string
	AgentID   string
	Changed   bool
	Reviewed  bool
	Labels    []string
	Filters   Filters
}
