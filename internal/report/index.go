package report

import (
	"time"

	"github.com/tjfontaine/support-insights/internal/domain"
)

// buildInboundIndex maps each thread to the timestamp of its earliest inbound
// message. Messages with a missing thread id or an undecodable timestamp are
// skipped; a thread whose inbound messages were all skipped ends up absent
// from the index and can never be answered.
func buildInboundIndex(messages []domain.DialogMessage) map[string]time.Time {
	index := make(map[string]time.Time)
	for _, msg := range messages {
		if msg.Direction != domain.DirectionInbound {
			continue
		}
		if msg.ThreadID == "" || msg.SentAt.IsZero() {
			continue
		}
		if earliest, ok := index[msg.ThreadID]; !ok || msg.SentAt.Before(earliest) {
			index[msg.ThreadID] = msg.SentAt
		}
	}
	return index
}
