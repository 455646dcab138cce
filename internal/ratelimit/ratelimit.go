// Package ratelimit counts requests per key over a rolling window.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/go-chi/httprate"
)

// Decision is the outcome of one CheckAndIncrement call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, at least 1.
func (d Decision) RetryAfterSeconds() int {
	s := int(math.Ceil(d.RetryAfter.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// Limiter records a hit for key and reports whether it stays within max
// hits per window. Refund takes one hit back.
type Limiter interface {
	CheckAndIncrement(key string, window time.Duration, max int) (Decision, error)
	Refund(key string, window time.Duration) error
}

// Counter implements Limiter on httprate's sliding window counters. The
// estimate is the current window's count plus the previous window's count
// weighted by how much of it still overlaps the rolling window.
type Counter struct {
	mu       sync.Mutex
	counters map[time.Duration]httprate.LimitCounter
	newFn    func(window time.Duration) httprate.LimitCounter
	now      func() time.Time
}

// NewLocal returns a Counter keeping state in process memory.
func NewLocal() *Counter {
	return &Counter{
		counters: make(map[time.Duration]httprate.LimitCounter),
		newFn: func(window time.Duration) httprate.LimitCounter {
			return httprate.NewLocalLimitCounter(window)
		},
		now: time.Now,
	}
}

// WithClock replaces the time source.
func (c *Counter) WithClock(now func() time.Time) *Counter {
	c.now = now
	return c
}

func (c *Counter) counter(window time.Duration, max int) httprate.LimitCounter {
	lc, ok := c.counters[window]
	if !ok {
		lc = c.newFn(window)
		lc.Config(max, window)
		c.counters[window] = lc
	}
	return lc
}

// CheckAndIncrement counts the hit first and then evaluates the window, so
// a denied request still counts against the key.
func (c *Counter) CheckAndIncrement(key string, window time.Duration, max int) (Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UTC()
	current := now.Truncate(window)
	previous := current.Add(-window)
	lc := c.counter(window, max)

	if err := lc.Increment(key, current); err != nil {
		return Decision{}, err
	}
	curr, prev, err := lc.Get(key, current, previous)
	if err != nil {
		return Decision{}, err
	}

	elapsed := now.Sub(current)
	rate := estimate(prev, curr, window, elapsed)

	d := Decision{Allowed: rate <= max, Limit: max, Remaining: max - rate}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = retryAfter(prev, curr, max, window, elapsed)
	}
	return d, nil
}

// estimate is the rolling count at elapsed into the current window.
func estimate(prev, curr int, window, elapsed time.Duration) int {
	weight := float64(window-elapsed) / float64(window)
	return int(math.Round(float64(prev)*weight)) + curr
}

// retryAfter is the wait until one more hit fits under limit, given the
// counts that include the denied hit.
func retryAfter(prev, curr, limit int, window, elapsed time.Duration) time.Duration {
	if limit <= 0 {
		return 2*window - elapsed
	}
	if wait, ok := firstFit(prev, curr+1, limit, window, elapsed); ok {
		return wait
	}
	// In the next window this window's hits become the weighted previous
	// count and the retry is the only current hit.
	if wait, ok := firstFit(curr, 1, limit, window, 0); ok {
		return window - elapsed + wait
	}
	return 2*window - elapsed
}

// firstFit returns how long after from, within one window, the estimate
// for prev and curr first drops to limit or below.
func firstFit(prev, curr, limit int, window, from time.Duration) (time.Duration, bool) {
	if curr > limit {
		return 0, false
	}
	at := from
	if prev > 0 {
		// round(prev*weight) <= limit-curr once prev*weight < limit-curr+0.5.
		threshold := 1 - (float64(limit-curr)+0.5)/float64(prev)
		at = max(at, time.Duration(math.Ceil(threshold*float64(window))))
	}
	for at < window && estimate(prev, curr, window, at) > limit {
		at += time.Millisecond
	}
	if at >= window {
		return 0, false
	}
	return at - from, true
}

// Refund removes one hit for key from the current window.
func (c *Counter) Refund(key string, window time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lc, ok := c.counters[window]
	if !ok {
		return nil
	}
	return lc.IncrementBy(key, c.now().UTC().Truncate(window), -1)
}

type refundKey struct{}

// WithRefund stores fn so handlers further down can give a hit back.
func WithRefund(ctx context.Context, fn func()) context.Context {
	return context.WithValue(ctx, refundKey{}, fn)
}

// RefundFromContext gives back the hit recorded for this request, if a
// limiter registered one.
func RefundFromContext(ctx context.Context) {
	if fn, ok := ctx.Value(refundKey{}).(func()); ok {
		fn()
	}
}
