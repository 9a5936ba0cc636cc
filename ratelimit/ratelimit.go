package ratelimit

import (
	"net/http"
	"strings"
	"time"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/concord-labs/concord/discord"
)

// RateLimiter owns the bucket collection and the process wide global
// limit. Bucket lookup never holds a lock across a blocking Perform,
// only bucket-local exclusion may block.
type RateLimiter struct {
	buckets *csmap.CsMap[string, *Bucket]

	// Time the global throttle clears. Zero when not globally limited.
	global *atomic.Time

	logger zerolog.Logger
}

func NewRateLimiter(logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		buckets: csmap.Create(
			csmap.WithSize[string, *Bucket](64),
		),

		global: &atomic.Time{},

		logger: logger,
	}
}

// GetOrCreateBucket lazily creates a bucket on first use of a key and
// returns the same instance on every subsequent call.
func (rl *RateLimiter) GetOrCreateBucket(key string) *Bucket {
	if bucket, ok := rl.buckets.Load(key); ok {
		return bucket
	}

	rl.buckets.SetIfAbsent(key, newBucket(key, rl.global, rl.logger))

	bucket, _ := rl.buckets.Load(key)

	return bucket
}

// GloballyLimited reports whether the global throttle is active.
func (rl *RateLimiter) GloballyLimited() bool {
	return time.Until(rl.global.Load()) > 0
}

// SetGlobalLimit halts every bucket until the given time passes.
func (rl *RateLimiter) SetGlobalLimit(until time.Time) {
	rl.global.Store(until)
}

// Interface implements discord.RESTInterface, routing every call
// through the bucket matching its route before delegating to the
// wrapped executor.
type Interface struct {
	inner   discord.RESTInterface
	limiter *RateLimiter
}

func NewInterface(inner discord.RESTInterface, limiter *RateLimiter) *Interface {
	return &Interface{
		inner:   inner,
		limiter: limiter,
	}
}

func (rli *Interface) Fetch(s *discord.Session, method, endpoint, contentType string, body []byte, headers http.Header) (*discord.RESTResponse, error) {
	bucket := rli.limiter.GetOrCreateBucket(BucketKey(method, endpoint))

	return bucket.Perform(s.Context, func() (*discord.RESTResponse, error) {
		return rli.inner.Fetch(s, method, endpoint, contentType, body, headers)
	})
}

func (rli *Interface) FetchBJ(s *discord.Session, method, endpoint, contentType string, body []byte, headers http.Header, response interface{}) error {
	resp, err := rli.Fetch(s, method, endpoint, contentType, body, headers)
	if err != nil {
		return err
	}

	return discord.DecodeResponse(method, endpoint, resp, response)
}

func (rli *Interface) FetchJJ(s *discord.Session, method, endpoint string, payload interface{}, headers http.Header, response interface{}) error {
	body, err := discord.MarshalPayload(payload)
	if err != nil {
		return err
	}

	return rli.FetchBJ(s, method, endpoint, "application/json", body, headers, response)
}

// BucketKey derives the rate limit bucket for a route. Rate limits
// partition on the major resource id (channel, guild or webhook);
// every other path parameter is collapsed so that, for example, all
// message routes of one channel share a bucket.
func BucketKey(method, endpoint string) string {
	endpoint = strings.SplitN(endpoint, "?", 2)[0]

	parts := strings.Split(endpoint, "/")

	var builder strings.Builder

	builder.WriteString(method)
	builder.WriteByte(':')

	for i, part := range parts {
		if i > 0 {
			previous := parts[i-1]

			switch {
			case previous == "channels", previous == "guilds", previous == "webhooks":
				// Major parameter, keep as-is.
			case previous == "reactions":
				// Emoji names are unbounded, collapse them.
				part = "!"
			case isSnowflakeSegment(part):
				part = "!"
			}
		}

		if i > 0 {
			builder.WriteByte('/')
		}

		builder.WriteString(part)
	}

	return builder.String()
}

func isSnowflakeSegment(part string) bool {
	if part == "" {
		return false
	}

	for _, r := range part {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
