package report

import (
	"time"

	"github.com/tjfontaine/support-insights/internal/domain"
)

// attributeResponses decides, for every outbound message, which threads it
// answered. An outbound message answers a thread when both belong to the same
// ticket and the message was sent strictly after the thread's first inbound
// message. One reply can answer several threads of its ticket, and a thread
// stays unanswered until a qualifying reply exists.
//
// The result maps agent id to the set of thread ids that agent answered.
// Sets deduplicate: an agent replying three times to the same thread answers
// it once. Messages from excluded accounts or without a responsible agent
// contribute nothing.
func attributeResponses(
	messages []domain.DialogMessage,
	threadsByTicket map[string][]domain.Thread,
	inboundAt map[string]time.Time,
	excluded map[string]struct{},
) map[string]map[string]struct{} {
	answered := make(map[string]map[string]struct{})

	for _, msg := range messages {
		if msg.Direction != domain.DirectionOutbound {
			continue
		}
		if msg.AgentID == "" || msg.SentAt.IsZero() {
			continue
		}
		if _, skip := excluded[msg.AgentID]; skip {
			continue
		}

		for _, thread := range threadsByTicket[msg.TicketID] {
			inbound, ok := inboundAt[thread.ID]
			if !ok {
				continue
			}
			// Strictly after: a reply at the exact inbound timestamp
			// cannot have answered it.
			if !msg.SentAt.After(inbound) {
				continue
			}

			set := answered[msg.AgentID]
			if set == nil {
				set = make(map[string]struct{})
				answered[msg.AgentID] = set
			}
			set[thread.ID] = struct{}{}
		}
	}

	return answered
}
