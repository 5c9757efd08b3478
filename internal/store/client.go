// Package store implements a read-only client for the support data store's
// REST interface. The store exposes collections as paged row lists and
// reports exact collection sizes through the Content-Range header; it has no
// join support, so callers stitch collections together themselves.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tjfontaine/support-insights/internal/domain"
)

const defaultUserAgent = "support-insights/1.0"

// Client issues count and list requests against one store deployment.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, mainly for tests and recording.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the store at baseURL. An empty apiKey sends
// unauthenticated requests, which local fixture stores accept.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CountThreads returns how many threads match the filters.
func (c *Client) CountThreads(ctx context.Context, f domain.Filters) (int, error) {
	return c.count(ctx, threadQuery(f))
}

// ListThreads returns one page of threads matching the filters.
func (c *Client) ListThreads(ctx context.Context, f domain.Filters, limit, offset int) ([]domain.Thread, error) {
	rows, err := list[threadRow](ctx, c, threadQuery(f), limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Thread, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CountMessages returns how many dialog messages match the selection.
func (c *Client) CountMessages(ctx context.Context, mq domain.MessageQuery) (int, error) {
	return c.count(ctx, messageQuery(mq))
}

// ListMessages returns one page of dialog messages matching the selection.
func (c *Client) ListMessages(ctx context.Context, mq domain.MessageQuery, limit, offset int) ([]domain.DialogMessage, error) {
	rows, err := list[messageRow](ctx, c, messageQuery(mq), limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DialogMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CountComparisons returns how many comparison records match the selection.
func (c *Client) CountComparisons(ctx context.Context, cq domain.ComparisonQuery) (int, error) {
	return c.count(ctx, comparisonQuery(cq))
}

// ListComparisons returns one page of comparison records matching the
// selection.
func (c *Client) ListComparisons(ctx context.Context, cq domain.ComparisonQuery, limit, offset int) ([]domain.ComparisonRecord, error) {
	rows, err := list[comparisonRow](ctx, c, comparisonQuery(cq), limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ComparisonRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// count issues a HEAD request with Prefer: count=exact and reads the total
// from the Content-Range header.
func (c *Client) count(ctx context.Context, q *Query) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.requestURL(q, nil), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create count request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("count request to %s failed: %w", q.Collection(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return 0, c.apiError(q.Collection(), resp)
	}

	total, err := parseContentRangeTotal(resp.Header.Get("Content-Range"))
	if err != nil {
		return 0, fmt.Errorf("count response for %s: %w", q.Collection(), err)
	}
	return total, nil
}

// list fetches one page of rows. The row type T carries the wire shape;
// callers convert to domain types afterwards.
func list[T any](ctx context.Context, c *Client, q *Query, limit, offset int) ([]T, error) {
	params := q.Values()
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(q, params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create list request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list request to %s failed: %w", q.Collection(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, c.apiError(q.Collection(), resp)
	}

	var rows []T
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", q.Collection(), err)
	}
	return rows, nil
}

func (c *Client) requestURL(q *Query, params url.Values) string {
	if params == nil {
		params = q.Values()
	}
	u := c.baseURL + "/" + q.Collection()
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// apiError drains the response body and wraps the failure in a typed store
// error so callers can distinguish store failures from local ones.
func (c *Client) apiError(collection string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	c.logger.Error("store request failed",
		"collection", collection,
		"status", resp.StatusCode,
	)
	return domain.NewStoreError(collection, resp.StatusCode, msg)
}

// parseContentRangeTotal extracts the total row count from a Content-Range
// value such as "0-24/3573". A missing header or an unknown total ("*") is
// an error: counts drive pagination and cannot be guessed.
func parseContentRangeTotal(header string) (int, error) {
	if header == "" {
		return 0, fmt.Errorf("missing Content-Range header")
	}
	parts := strings.SplitN(header, "/", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed Content-Range header %q", header)
	}
	if parts[1] == "*" {
		return 0, fmt.Errorf("store did not report an exact count in %q", header)
	}
	total, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range total in %q", header)
	}
	if total < 0 {
		return 0, fmt.Errorf("negative Content-Range total in %q", header)
	}
	return total, nil
}
