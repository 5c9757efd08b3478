package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tjfontaine/support-insights/internal/domain"
)

// sliceSource serves rows out of a slice the way the store would: a count
// plus limit/offset pages.
func sliceSource(rows []int, pageCalls *atomic.Int32) (CountFunc, PageFunc[int]) {
	count := func(ctx context.Context) (int, error) {
		return len(rows), nil
	}
	page := func(ctx context.Context, limit, offset int) ([]int, error) {
		if pageCalls != nil {
			pageCalls.Add(1)
		}
		if offset >= len(rows) {
			return nil, nil
		}
		end := offset + limit
		if end > len(rows) {
			end = len(rows)
		}
		return rows[offset:end:end], nil
	}
	return count, page
}

func intRange(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func TestAll_PreservesPageOrder(t *testing.T) {
	rows := intRange(10)
	count, page := sliceSource(rows, nil)

	got, err := All(context.Background(), Options{PageSize: 3, Concurrency: 2, Pause: time.Millisecond}, count, page)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("Expected %d rows, got %d", len(rows), len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("Expected row %d at index %d, got %d", i, i, v)
		}
	}
}

func TestAll_ResultIndependentOfPageSize(t *testing.T) {
	rows := intRange(23)

	var baseline []int
	for _, pageSize := range []int{1, 3, 10, 1000} {
		count, page := sliceSource(rows, nil)
		got, err := All(context.Background(), Options{PageSize: pageSize, Concurrency: 3, Pause: time.Millisecond}, count, page)
		if err != nil {
			t.Fatalf("All() with page size %d error = %v", pageSize, err)
		}
		if baseline == nil {
			baseline = got
			continue
		}
		if len(got) != len(baseline) {
			t.Fatalf("Page size %d changed row count: %d vs %d", pageSize, len(got), len(baseline))
		}
		for i := range got {
			if got[i] != baseline[i] {
				t.Fatalf("Page size %d changed row %d: %d vs %d", pageSize, i, got[i], baseline[i])
			}
		}
	}
}

func TestAll_ZeroCountSkipsPages(t *testing.T) {
	var pageCalls atomic.Int32
	count, page := sliceSource(nil, &pageCalls)

	got, err := All(context.Background(), Options{Pause: time.Millisecond}, count, page)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil result for empty collection, got %v", got)
	}
	if pageCalls.Load() != 0 {
		t.Errorf("Expected no page requests, got %d", pageCalls.Load())
	}
}

func TestAll_CountErrorSkipsPages(t *testing.T) {
	countErr := domain.NewStoreError("support_threads", http.StatusServiceUnavailable, "down")
	count := func(ctx context.Context) (int, error) {
		return 0, countErr
	}
	var pageCalls atomic.Int32
	page := func(ctx context.Context, limit, offset int) ([]int, error) {
		pageCalls.Add(1)
		return nil, nil
	}

	_, err := All(context.Background(), Options{}, count, page)
	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected *domain.StoreError, got %T: %v", err, err)
	}
	if pageCalls.Load() != 0 {
		t.Errorf("Expected no page requests after count failure, got %d", pageCalls.Load())
	}
}

func TestAll_FailFastStopsLaterGroups(t *testing.T) {
	pageErr := domain.NewStoreError("dialog_messages", http.StatusBadGateway, "boom")
	count := func(ctx context.Context) (int, error) {
		// 4 pages of work at page size 1.
		return 4, nil
	}
	var pageCalls atomic.Int32
	page := func(ctx context.Context, limit, offset int) ([]int, error) {
		pageCalls.Add(1)
		if offset == 1 {
			return nil, pageErr
		}
		return []int{offset}, nil
	}

	_, err := All(context.Background(), Options{PageSize: 1, Concurrency: 2, Pause: time.Millisecond}, count, page)

	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected *domain.StoreError, got %T: %v", err, err)
	}
	if storeErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", storeErr.StatusCode)
	}
	// Only the first group of two pages may have run.
	if pageCalls.Load() != 2 {
		t.Errorf("Expected 2 page requests before abort, got %d", pageCalls.Load())
	}
}

func TestAll_ConcurrencyBounded(t *testing.T) {
	var mu sync.Mutex
	inflight, peak := 0, 0

	count := func(ctx context.Context) (int, error) {
		return 12, nil
	}
	page := func(ctx context.Context, limit, offset int) ([]int, error) {
		mu.Lock()
		inflight++
		if inflight > peak {
			peak = inflight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inflight--
		mu.Unlock()
		return []int{offset}, nil
	}

	_, err := All(context.Background(), Options{PageSize: 1, Concurrency: 2, Pause: time.Millisecond}, count, page)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent page requests, observed %d", peak)
	}
}

func TestAll_CancelDuringPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	count := func(ctx context.Context) (int, error) {
		return 4, nil
	}
	page := func(ctx context.Context, limit, offset int) ([]int, error) {
		return []int{offset}, nil
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := All(ctx, Options{PageSize: 1, Concurrency: 2, Pause: 5 * time.Second}, count, page)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	if opts.PageSize != DefaultPageSize {
		t.Errorf("Expected page size %d, got %d", DefaultPageSize, opts.PageSize)
	}
	if opts.Concurrency != DefaultConcurrency {
		t.Errorf("Expected concurrency %d, got %d", DefaultConcurrency, opts.Concurrency)
	}
	if opts.Pause != DefaultPause {
		t.Errorf("Expected pause %v, got %v", DefaultPause, opts.Pause)
	}
	if opts.Logger == nil {
		t.Error("Expected default logger")
	}
}
