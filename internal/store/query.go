package store

import (
	"net/url"
	"strings"
	"time"

	"github.com/tjfontaine/support-insights/internal/domain"
)

// Collection names as the store exposes them.
const (
	CollectionThreads     = "support_threads"
	CollectionMessages    = "dialog_messages"
	CollectionComparisons = "reply_comparisons"
)

// Query accumulates filter predicates for one collection request. Predicates
// encode as query parameters in the store's grammar (eq., in.(), gte., lte.,
// is.true, not.is.null); encoding order is deterministic because
// url.Values.Encode sorts keys and preserves per-key insertion order.
type Query struct {
	collection string
	params     url.Values
}

// NewQuery starts an unrestricted query against a collection.
func NewQuery(collection string) *Query {
	return &Query{collection: collection, params: url.Values{}}
}

// Eq restricts field to exactly value.
func (q *Query) Eq(field, value string) *Query {
	q.params.Add(field, "eq."+value)
	return q
}

// In restricts field to the given values. An empty list adds no restriction.
func (q *Query) In(field string, values []string) *Query {
	if len(values) == 0 {
		return q
	}
	q.params.Add(field, "in.("+strings.Join(values, ",")+")")
	return q
}

// Gte restricts a timestamp field to values at or after t. A zero t adds no
// restriction.
func (q *Query) Gte(field string, t time.Time) *Query {
	if t.IsZero() {
		return q
	}
	q.params.Add(field, "gte."+t.UTC().Format(time.RFC3339))
	return q
}

// Lte restricts a timestamp field to values at or before t. A zero t adds no
// restriction.
func (q *Query) Lte(field string, t time.Time) *Query {
	if t.IsZero() {
		return q
	}
	q.params.Add(field, "lte."+t.UTC().Format(time.RFC3339))
	return q
}

// IsTrue restricts a boolean field to true.
func (q *Query) IsTrue(field string) *Query {
	q.params.Add(field, "is.true")
	return q
}

// NotNull restricts field to non-null values.
func (q *Query) NotNull(field string) *Query {
	q.params.Add(field, "not.is.null")
	return q
}

// Collection returns the collection the query targets.
func (q *Query) Collection() string {
	return q.collection
}

// Values returns a copy of the accumulated parameters.
func (q *Query) Values() url.Values {
	out := make(url.Values, len(q.params))
	for k, vs := range q.params {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// threadQuery translates computation filters into a thread query. The date
// range applies to thread creation.
func threadQuery(f domain.Filters) *Query {
	return NewQuery(CollectionThreads).
		Gte("created_at", f.From).
		Lte("created_at", f.To).
		In("version", f.Versions).
		In("category", f.Categories)
}

// messageQuery translates a message selection into a query.
func messageQuery(mq domain.MessageQuery) *Query {
	q := NewQuery(CollectionMessages).
		In("thread_id", mq.ThreadIDs).
		In("ticket_id", mq.TicketIDs)
	if mq.Direction != "" {
		q.Eq("direction", string(mq.Direction))
	}
	return q
}

// comparisonQuery translates a comparison selection into a query. Drill-down
// selections filter on the denormalized record columns; the aggregate path
// only ever sets ThreadIDs.
func comparisonQuery(cq domain.ComparisonQuery) *Query {
	q := NewQuery(CollectionComparisons).
		In("thread_id", cq.ThreadIDs)
	if cq.AgentID != "" {
		q.Eq("responsible_party", cq.AgentID)
	}
	if cq.Changed {
		q.IsTrue("changed")
	}
	if cq.Reviewed {
		q.NotNull("classification")
	}
	q.In("classification", cq.Labels)
	q.Gte("created_at", cq.Filters.From)
	q.Lte("created_at", cq.Filters.To)
	q.In("version", cq.Filters.Versions)
	q.In("category", cq.Filters.Categories)
	return q
}
