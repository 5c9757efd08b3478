// Package fetch pulls whole collections out of the row-limited store.
// The store caps every list response, so a full read is a count followed by
// ceil(total/pageSize) page requests, issued in bounded concurrent groups
// with a pause between groups to stay under the store's rate limits.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Defaults applied when an Options field is left at its zero value.
const (
	DefaultPageSize    = 1000
	DefaultConcurrency = 3
	DefaultPause       = 150 * time.Millisecond
)

// CountFunc reports how many rows the selection matches.
type CountFunc func(ctx context.Context) (int, error)

// PageFunc fetches one page of rows at the given offset.
type PageFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// Options bound a collection fetch.
type Options struct {
	// PageSize is the number of rows requested per page.
	PageSize int

	// Concurrency is how many pages are requested at once within a group.
	Concurrency int

	// Pause is the delay between page groups.
	Pause time.Duration

	// Logger receives per-group progress at debug level.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Pause <= 0 {
		o.Pause = DefaultPause
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// All reads every row the selection matches and returns them in page order.
// A zero count returns immediately without issuing any page requests. Any
// page failure aborts the whole fetch; pages already retrieved are
// discarded, and the first failing page's error is returned.
func All[T any](ctx context.Context, opts Options, count CountFunc, page PageFunc[T]) ([]T, error) {
	opts = opts.withDefaults()

	total, err := count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	pages := (total + opts.PageSize - 1) / opts.PageSize
	results := make([][]T, pages)

	for start := 0; start < pages; start += opts.Concurrency {
		end := start + opts.Concurrency
		if end > pages {
			end = pages
		}

		var wg sync.WaitGroup
		errs := make([]error, end-start)

		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				rows, err := page(ctx, opts.PageSize, idx*opts.PageSize)
				if err != nil {
					errs[idx-start] = err
					return
				}
				results[idx] = rows
			}(i)
		}
		wg.Wait()

		// Fail fast: the first error in page order wins.
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}

		opts.Logger.Debug("fetched page group",
			"pages_done", end,
			"pages_total", pages,
		)

		if end < pages {
			select {
			case <-time.After(opts.Pause):
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch interrupted between page groups: %w", ctx.Err())
			}
		}
	}

	out := make([]T, 0, total)
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}
