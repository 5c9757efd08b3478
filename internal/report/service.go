// Package report computes per-agent AI efficiency statistics from the
// support store's raw collections. The store joins nothing server-side, so
// the engine fetches threads, dialog messages, and reply comparisons
// separately, stitches them together in memory, and derives one stat row per
// agent.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tjfontaine/support-insights/internal/classification"
	"github.com/tjfontaine/support-insights/internal/domain"
	"github.com/tjfontaine/support-insights/internal/fetch"
)

// ErrInvalidArgument marks request validation failures so transports can
// map them to a client error instead of a store failure.
var ErrInvalidArgument = errors.New("invalid argument")

// Drill-down paging bounds. Transports echo the defaults back to callers
// that omit paging parameters.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// defaultComputeTimeout caps one computation. It sits below the HTTP
// server's request timeout so the engine fails before the transport does.
const defaultComputeTimeout = 45 * time.Second

// DefaultExcludedAgents are the automation accounts whose messages and
// reviews never count toward any agent's statistics.
var DefaultExcludedAgents = []string{"system"}

// DataSource is the read surface the engine needs from the store. Each
// collection exposes a matched-row count and limit/offset pages over the
// same selection.
type DataSource interface {
	CountThreads(ctx context.Context, f domain.Filters) (int, error)
	ListThreads(ctx context.Context, f domain.Filters, limit, offset int) ([]domain.Thread, error)

	CountMessages(ctx context.Context, q domain.MessageQuery) (int, error)
	ListMessages(ctx context.Context, q domain.MessageQuery, limit, offset int) ([]domain.DialogMessage, error)

	CountComparisons(ctx context.Context, q domain.ComparisonQuery) (int, error)
	ListComparisons(ctx context.Context, q domain.ComparisonQuery, limit, offset int) ([]domain.ComparisonRecord, error)
}

// Service is the aggregation engine. It is stateless between computations
// and safe for concurrent use.
type Service struct {
	source    DataSource
	logger    *slog.Logger
	fetchOpts fetch.Options
	timeout   time.Duration
	excluded  map[string]struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for computation progress and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithFetchOptions overrides the paging bounds used for collection fetches.
func WithFetchOptions(opts fetch.Options) Option {
	return func(s *Service) {
		s.fetchOpts = opts
	}
}

// WithTimeout caps the wall-clock time of one computation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithExcludedAgents replaces the set of account ids ignored by attribution
// and review tallies.
func WithExcludedAgents(ids []string) Option {
	return func(s *Service) {
		s.excluded = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			s.excluded[id] = struct{}{}
		}
	}
}

// NewService creates an engine reading from source.
func NewService(source DataSource, opts ...Option) *Service {
	s := &Service{
		source:  source,
		logger:  slog.Default(),
		timeout: defaultComputeTimeout,
	}
	WithExcludedAgents(DefaultExcludedAgents)(s)

	for _, opt := range opts {
		opt(s)
	}

	if s.fetchOpts.Logger == nil {
		s.fetchOpts.Logger = s.logger
	}
	return s
}

// ComputeAgentStats builds the aggregate view for every agent active within
// the filters. Threads are fetched first; their ids scope the message and
// comparison fetches, which run concurrently. Any fetch failure aborts the
// whole computation. No matching threads is a successful empty result.
func (s *Service) ComputeAgentStats(ctx context.Context, filters domain.Filters) ([]domain.AgentStatRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()

	threads, err := fetch.All(ctx, s.fetchOpts,
		func(ctx context.Context) (int, error) {
			return s.source.CountThreads(ctx, filters)
		},
		func(ctx context.Context, limit, offset int) ([]domain.Thread, error) {
			return s.source.ListThreads(ctx, filters, limit, offset)
		},
	)
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		s.logger.Info("no threads matched filters")
		return []domain.AgentStatRow{}, nil
	}

	threadIDs := make([]string, 0, len(threads))
	ticketIDs := make([]string, 0, len(threads))
	threadsByTicket := make(map[string][]domain.Thread)
	for _, t := range threads {
		threadIDs = append(threadIDs, t.ID)
		if _, seen := threadsByTicket[t.TicketID]; !seen {
			ticketIDs = append(ticketIDs, t.TicketID)
		}
		threadsByTicket[t.TicketID] = append(threadsByTicket[t.TicketID], t)
	}

	// Inbound messages are scoped to the matched threads; outbound messages
	// to the matched tickets, because a reply anywhere on a ticket can
	// answer any of the ticket's threads.
	var (
		wg       sync.WaitGroup
		inbound  []domain.DialogMessage
		outbound []domain.DialogMessage
		reviews  []domain.ComparisonRecord
	)
	errs := make([]error, 3)

	wg.Add(3)
	go func() {
		defer wg.Done()
		inbound, errs[0] = s.fetchMessages(ctx, domain.MessageQuery{
			ThreadIDs: threadIDs,
			Direction: domain.DirectionInbound,
		})
	}()
	go func() {
		defer wg.Done()
		outbound, errs[1] = s.fetchMessages(ctx, domain.MessageQuery{
			TicketIDs: ticketIDs,
			Direction: domain.DirectionOutbound,
		})
	}()
	go func() {
		defer wg.Done()
		reviews, errs[2] = s.fetchComparisons(ctx, domain.ComparisonQuery{
			ThreadIDs: threadIDs,
		})
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	inboundAt := buildInboundIndex(inbound)
	answered := attributeResponses(outbound, threadsByTicket, inboundAt, s.excluded)
	tallies := tallyComparisons(reviews, s.excluded)
	rows := calculateMetrics(answered, tallies)

	s.logger.Info("computed agent stats",
		"threads", len(threads),
		"inbound_messages", len(inbound),
		"outbound_messages", len(outbound),
		"comparisons", len(reviews),
		"agents", len(rows),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return rows, nil
}

// ComputeAgentChanges returns one page of an agent's edited comparison
// records, narrowed by change type. Total always comes from a dedicated
// counted query, so it is exact even when the requested page lies past the
// end.
func (s *Service) ComputeAgentChanges(
	ctx context.Context,
	agentID string,
	filters domain.Filters,
	changeType domain.ChangeType,
	page, pageSize int,
) (*domain.ComparisonPage, error) {
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent id is required", ErrInvalidArgument)
	}
	if page == 0 {
		page = DefaultPage
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", ErrInvalidArgument)
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page size must be between 1 and %d", ErrInvalidArgument, MaxPageSize)
	}

	var labels []string
	switch changeType {
	case "", domain.ChangeTypeAll:
		// Every reviewed, changed record qualifies.
	case domain.ChangeTypeCritical:
		labels = classification.CriticalLabels()
	case domain.ChangeTypeUnnecessary:
		labels = classification.NonCriticalLabels()
	default:
		return nil, fmt.Errorf("%w: unknown change type %q", ErrInvalidArgument, changeType)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := domain.ComparisonQuery{
		AgentID:  agentID,
		Changed:  true,
		Reviewed: true,
		Labels:   labels,
		Filters:  filters,
	}

	total, err := s.source.CountComparisons(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &domain.ComparisonPage{
		Rows:  []domain.ComparisonRecord{},
		Total: total,
	}

	offset := (page - 1) * pageSize
	if total == 0 || offset >= total {
		return result, nil
	}

	rows, err := s.source.ListComparisons(ctx, query, pageSize, offset)
	if err != nil {
		return nil, err
	}
	result.Rows = rows

	s.logger.Debug("fetched agent changes",
		"agent_id", agentID,
		"change_type", string(changeType),
		"page", page,
		"rows", len(rows),
		"total", total,
	)
	return result, nil
}

func (s *Service) fetchMessages(ctx context.Context, q domain.MessageQuery) ([]domain.DialogMessage, error) {
	return fetch.All(ctx, s.fetchOpts,
		func(ctx context.Context) (int, error) {
			return s.source.CountMessages(ctx, q)
		},
		func(ctx context.Context, limit, offset int) ([]domain.DialogMessage, error) {
			return s.source.ListMessages(ctx, q, limit, offset)
		},
	)
}

func (s *Service) fetchComparisons(ctx context.Context, q domain.ComparisonQuery) ([]domain.ComparisonRecord, error) {
	return fetch.All(ctx, s.fetchOpts,
		func(ctx context.Context) (int, error) {
			return s.source.CountComparisons(ctx, q)
		},
		func(ctx context.Context, limit, offset int) ([]domain.ComparisonRecord, error) {
			return s.source.ListComparisons(ctx, q, limit, offset)
		},
	)
}
