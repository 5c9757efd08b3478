// Package insights provides the public API for embedding the agent-stats
// engine. This is the stable API for external consumers; internal packages
// may reorganize without notice.
package insights

import (
	"github.com/tjfontaine/support-insights/internal/domain"
	"github.com/tjfontaine/support-insights/internal/report"
	"github.com/tjfontaine/support-insights/internal/store"
)

// Service computes per-agent efficiency stats and drill-downs.
// See internal/report.Service for full documentation.
type Service = report.Service

// Option is a functional option for configuring a Service.
type Option = report.Option

// DataSource is the read surface a Service consumes. The store client
// returned by NewStoreClient satisfies it.
type DataSource = report.DataSource

// Domain types exchanged with the engine.
type (
	Filters          = domain.Filters
	AgentStatRow     = domain.AgentStatRow
	ComparisonRecord = domain.ComparisonRecord
	ComparisonPage   = domain.ComparisonPage
	ChangeType       = domain.ChangeType
)

// Drill-down selectors.
const (
	ChangeTypeAll         = domain.ChangeTypeAll
	ChangeTypeCritical    = domain.ChangeTypeCritical
	ChangeTypeUnnecessary = domain.ChangeTypeUnnecessary
)

// ParseChangeType maps a request parameter to a ChangeType, defaulting to
// ChangeTypeAll for the empty string.
var ParseChangeType = domain.ParseChangeType

// NewService creates an engine over a data source.
// Example:
//
//	client := insights.NewStoreClient("https://rows.example.com", apiKey)
//	svc := insights.NewService(client, insights.WithTimeout(30*time.Second))
var NewService = report.NewService

// Engine options
var (
	WithLogger         = report.WithLogger
	WithFetchOptions   = report.WithFetchOptions
	WithTimeout        = report.WithTimeout
	WithExcludedAgents = report.WithExcludedAgents
)

// NewStoreClient creates a client for the hosted row store.
var NewStoreClient = store.New

// Store client options
var (
	WithStoreHTTPClient = store.WithHTTPClient
	WithStoreLogger     = store.WithLogger
)
