package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/concord-labs/concord/discord"
)

const (
	// Cool-down applied when a rate limit header fails to parse. A
	// malformed header is treated as already-limited rather than
	// unlimited, so a misbehaving server cannot under-throttle us.
	failClosedBackoff = 5 * time.Second

	// Upper bound for a single admission sleep. The wait interval is
	// recomputed every iteration so a stale cached wait is never
	// trusted across a reset.
	maxAdmissionSleep = time.Second
)

// Executor performs one outbound call. It is the REST executor
// boundary: transport failures surface as an error with a nil response.
type Executor func() (*discord.RESTResponse, error)

// Bucket tracks the rate limit of a single resource. Exactly one call
// is in flight per bucket at a time; queued callers block in submission
// order. Different buckets are fully independent.
type Bucket struct {
	Key string

	Limit     *atomic.Int32
	Remaining *atomic.Int32
	Reset     *atomic.Time

	// Shared with every other bucket of the owning RateLimiter.
	global *atomic.Time

	logger zerolog.Logger

	mu sync.Mutex
}

func newBucket(key string, global *atomic.Time, logger zerolog.Logger) *Bucket {
	return &Bucket{
		Key: key,

		Limit:     &atomic.Int32{},
		Remaining: &atomic.Int32{},
		Reset:     &atomic.Time{},

		global: global,

		logger: logger.With().Str("bucket", key).Logger(),
	}
}

// CanPerform reports whether a call would be admitted right now. It
// never blocks. True when no limit has been observed yet, calls remain
// in the current window, or the window has reset.
func (b *Bucket) CanPerform() bool {
	if wait := time.Until(b.global.Load()); wait > 0 {
		return false
	}

	if b.Limit.Load() == 0 {
		return true
	}

	if b.Remaining.Load() > 0 {
		return true
	}

	return time.Now().After(b.Reset.Load())
}

// Perform acquires the bucket, waits until admissible, executes the
// call and folds the reply's rate limit headers back into the bucket.
// On a 429 it retries exactly once; a second 429 is logged and returned
// as-is. Transport errors return a nil response and leave the bucket
// state untouched.
func (b *Bucket) Perform(ctx context.Context, fn Executor) (*discord.RESTResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := fn()
	if err != nil {
		return nil, err
	}

	b.update(resp)

	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	retryAfter := b.retryAfter(resp)

	b.logger.Debug().Dur("retryAfter", retryAfter).Msg("Bucket received 429, retrying once")

	select {
	case <-time.After(retryAfter):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	resp, err = fn()
	if err != nil {
		return nil, err
	}

	b.update(resp)

	if resp.StatusCode == http.StatusTooManyRequests {
		// Retried once already. Never retry indefinitely, surface the
		// reply to the caller instead.
		b.logger.Warn().Msg("Bucket received 429 after retry")
	}

	return resp, nil
}

// wait blocks until the bucket (and the global limit) admit a call,
// recomputing the remaining interval each iteration.
func (b *Bucket) wait(ctx context.Context) error {
	if !b.CanPerform() {
		bucketWaitCount.WithLabelValues(b.Key).Inc()
	}

	for !b.CanPerform() {
		wait := time.Until(b.Reset.Load())

		if globalWait := time.Until(b.global.Load()); globalWait > wait {
			wait = globalWait
		}

		if wait > maxAdmissionSleep {
			wait = maxAdmissionSleep
		}

		if wait <= 0 {
			wait = time.Millisecond
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// update folds the reply's rate limit headers into the bucket. The
// reset time is corrected against the remote's Date header so local
// clock skew cannot shift the window.
func (b *Bucket) update(resp *discord.RESTResponse) {
	if resp.StatusCode == http.StatusTooManyRequests && isGlobal(resp.Header) {
		b.global.Store(time.Now().Add(b.retryAfter(resp)))

		return
	}

	if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "" {
		value, err := strconv.ParseInt(limit, 10, 32)
		if err != nil {
			b.failClosed("X-RateLimit-Limit", limit)

			return
		}

		b.Limit.Store(int32(value))
	}

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		value, err := strconv.ParseInt(remaining, 10, 32)
		if err != nil {
			b.failClosed("X-RateLimit-Remaining", remaining)

			return
		}

		b.Remaining.Store(int32(value))
	}

	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		value, err := strconv.ParseFloat(reset, 64)
		if err != nil {
			b.failClosed("X-RateLimit-Reset", reset)

			return
		}

		resetAt := time.Unix(0, int64(value*float64(time.Second)))

		// Shift the remote window onto the local clock.
		b.Reset.Store(time.Now().Add(resetAt.Sub(resp.Date)))
	}
}

// retryAfter returns the server specified retry interval, failing
// closed on parse errors.
func (b *Bucket) retryAfter(resp *discord.RESTResponse) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return failClosedBackoff
	}

	value, err := strconv.ParseFloat(retryAfter, 64)
	if err != nil || value < 0 {
		b.logger.Warn().Str("retryAfter", retryAfter).Msg("Failed to parse Retry-After header")

		return failClosedBackoff
	}

	return time.Duration(value * float64(time.Second))
}

func (b *Bucket) failClosed(header, value string) {
	b.logger.Warn().Str("header", header).Str("value", value).Msg("Failed to parse rate limit header")

	b.Remaining.Store(0)
	b.Reset.Store(time.Now().Add(failClosedBackoff))
}

func isGlobal(header http.Header) bool {
	return strings.EqualFold(header.Get("X-RateLimit-Global"), "true")
}
