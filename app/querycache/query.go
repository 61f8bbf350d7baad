// Package querycache keeps the result of one remote request in memory and
// decides when to serve it, when to refresh it and what to show while no
// result is available yet.
//
// A Query treats its data as fresh for StaleTime. Stale data is still served
// while a refresh runs in the background. Concurrent fetches for the same
// query share a single in-flight request. Failed fetches are retried with
// exponential backoff before the failure is recorded.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime = 5 * time.Minute
	DefaultTimeout   = 30 * time.Second
	maxRetryDelay    = 30 * time.Second
)

var (
	ErrClosed = errors.New("query is closed")
	ErrNoData = errors.New("query has no data")
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

type Options[T any] struct {
	Key       string
	StaleTime time.Duration
	// Retry is the number of additional attempts after a failed fetch.
	Retry      int
	RetryDelay func(attempt int) time.Duration
	// Timeout bounds each attempt.
	Timeout time.Duration
	// Placeholder supplies data for State before the first fetch resolves.
	Placeholder func() T
	// OnError supplies the data to serve after a fetch has failed for good.
	// When nil the previous data is kept.
	OnError func(err error) T
	Now     func() time.Time
}

type State[T any] struct {
	Data          T
	HasData       bool
	IsPlaceholder bool
	IsLoading     bool
	IsFetching    bool
	IsStale       bool
	IsError       bool
	Error         error
	UpdatedAt     time.Time
}

type Query[T any] struct {
	fetch FetchFunc[T]
	opts  Options[T]
	group singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	data        T
	hasData     bool
	updatedAt   time.Time
	invalidated bool
	err         error
	closed      bool

	// inflight counts started fetches whose result has not been delivered.
	inflight int
}

// DefaultRetryDelay doubles from one second per retry, capped at 30 seconds.
func DefaultRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		return maxRetryDelay
	}
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

func New[T any](fetch FetchFunc[T], opts Options[T]) *Query[T] {
	if opts.Key == "" {
		opts.Key = "query"
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	if opts.RetryDelay == nil {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Query[T]{
		fetch:  fetch,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Fetch returns the best data available. Fresh data is returned as is. Stale
// data is returned immediately and refreshed in the background. Without any
// data the call waits for a fetch, sharing it with concurrent callers.
//
// The returned error reports a failed fetch; the data returned alongside it
// is whatever OnError supplied.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	q.mu.RLock()
	data, hasData, fresh := q.data, q.hasData, q.isFreshLocked()
	q.mu.RUnlock()

	if hasData {
		if !fresh {
			q.revalidate()
		}
		return data, nil
	}

	data, err := q.wait(ctx, q.start())
	if err != nil && q.opts.OnError == nil && !errors.Is(err, ErrClosed) {
		return data, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	return data, err
}

// Refetch fetches regardless of freshness and waits for the result.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	return q.wait(ctx, q.start())
}

// State reports the current data and request status without blocking. It
// starts a background fetch when the data is missing or stale.
func (q *Query[T]) State() State[T] {
	q.mu.RLock()
	fresh := q.isFreshLocked()
	s := State[T]{
		Data:       q.data,
		HasData:    q.hasData,
		IsFetching: q.inflight > 0,
		IsStale:    !fresh,
		IsError:    q.err != nil,
		Error:      q.err,
		UpdatedAt:  q.updatedAt,
	}
	closed := q.closed
	q.mu.RUnlock()

	if !fresh && !s.IsFetching && !closed {
		q.revalidate()
		s.IsFetching = true
	}

	if !s.HasData {
		s.IsLoading = s.IsFetching
		if q.opts.Placeholder != nil {
			s.Data = q.opts.Placeholder()
			s.IsPlaceholder = true
		}
	}

	return s
}

// Seed installs data fetched earlier, for example restored from persistent
// storage. It never replaces newer data.
func (q *Query[T]) Seed(data T, updatedAt time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.hasData && q.err == nil && !updatedAt.After(q.updatedAt) {
		return false
	}

	q.data = data
	q.hasData = true
	q.updatedAt = updatedAt
	q.invalidated = false
	q.err = nil
	return true
}

// Invalidate marks the current data stale.
func (q *Query[T]) Invalidate() {
	q.mu.Lock()
	q.invalidated = true
	q.mu.Unlock()
}

// Close cancels in-flight fetches and waits for them to finish.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Query[T]) isFreshLocked() bool {
	if !q.hasData || q.invalidated || q.updatedAt.IsZero() {
		return false
	}
	return q.opts.Now().Sub(q.updatedAt) < q.opts.StaleTime
}

func (q *Query[T]) revalidate() {
	q.mu.RLock()
	skip := q.inflight > 0 || q.closed
	q.mu.RUnlock()

	if !skip {
		q.start()
	}
}

func (q *Query[T]) start() <-chan singleflight.Result {
	out := make(chan singleflight.Result, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		out <- singleflight.Result{Err: ErrClosed}
		return out
	}
	q.inflight++
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()

		res := <-q.group.DoChan(q.opts.Key, func() (any, error) {
			return q.execute()
		})

		q.mu.Lock()
		q.inflight--
		q.mu.Unlock()

		out <- res
	}()

	return out
}

func (q *Query[T]) wait(ctx context.Context, ch <-chan singleflight.Result) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		data, _ := res.Val.(T)
		return data, res.Err
	}
}

func (q *Query[T]) execute() (T, error) {
	data, err := q.run(q.ctx)

	q.mu.Lock()
	defer q.mu.Unlock()

	if err != nil {
		q.err = err
		q.invalidated = true
		if q.opts.OnError != nil {
			q.data = q.opts.OnError(err)
			q.hasData = true
		}
		slog.Warn("Query fetch failed", "key", q.opts.Key, "attempts", q.opts.Retry+1, "error", err)
		return q.data, err
	}

	q.data = data
	q.hasData = true
	q.updatedAt = q.opts.Now()
	q.invalidated = false
	q.err = nil

	return data, nil
}

func (q *Query[T]) run(ctx context.Context) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= q.opts.Retry; attempt++ {
		if attempt > 0 {
			delay := q.opts.RetryDelay(attempt)
			slog.Debug("Query retry scheduled", "key", q.opts.Key, "retry", attempt, "max_retries", q.opts.Retry, "delay", delay.String())

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, q.opts.Timeout)
		data, err := q.fetch(attemptCtx)
		cancel()

		if err == nil {
			return data, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
