package ratelimit_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/concord-labs/concord/discord"
	"github.com/concord-labs/concord/ratelimit"
)

func TestBucketKey(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		method   string
		endpoint string
		expected string
	}{
		{http.MethodGet, "/channels/123/messages/456", "GET:/channels/123/messages/!"},
		{http.MethodGet, "/channels/789/messages/456", "GET:/channels/789/messages/!"},
		{http.MethodDelete, "/channels/123/messages/456", "DELETE:/channels/123/messages/!"},
		{http.MethodGet, "/guilds/123/members?limit=1000", "GET:/guilds/123/members"},
		{http.MethodGet, "/guilds/123/members/456", "GET:/guilds/123/members/!"},
		{http.MethodPut, "/channels/123/messages/456/reactions/custom:512/@me", "PUT:/channels/123/messages/!/reactions/!/@me"},
		{http.MethodGet, "/webhooks/123/sometoken", "GET:/webhooks/123/sometoken"},
		{http.MethodGet, "/gateway/bot", "GET:/gateway/bot"},
		{http.MethodGet, "/users/@me", "GET:/users/@me"},
	} {
		assert.Equal(t, tt.expected, ratelimit.BucketKey(tt.method, tt.endpoint), tt.endpoint)
	}
}

func TestBucketKeySeparatesMajorParameters(t *testing.T) {
	t.Parallel()

	a := ratelimit.BucketKey(http.MethodGet, "/channels/111/messages")
	b := ratelimit.BucketKey(http.MethodGet, "/channels/222/messages")

	assert.NotEqual(t, a, b)
}

func rateLimitHeaders(limit, remaining int, reset time.Time) http.Header {
	header := http.Header{}
	header.Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	header.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
	header.Set("X-RateLimit-Reset", fmt.Sprintf("%.3f", float64(reset.UnixNano())/float64(time.Second)))

	return header
}

func TestBucketAdmission(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())
	bucket := rl.GetOrCreateBucket("GET:/channels/123/messages")

	calls := 0
	now := time.Now()

	executor := func() (*discord.RESTResponse, error) {
		calls++

		return &discord.RESTResponse{
			StatusCode: http.StatusOK,
			Date:       time.Now(),
			Header:     rateLimitHeaders(1, 0, now.Add(150*time.Millisecond)),
		}, nil
	}

	resp, err := bucket.Perform(context.Background(), executor)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, calls)

	// The window is exhausted, the second call must block until reset.
	assert.False(t, bucket.CanPerform())

	start := time.Now()

	_, err = bucket.Perform(context.Background(), executor)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestBucketAdmissionHonoursContext(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())
	bucket := rl.GetOrCreateBucket("GET:/channels/123")

	bucket.Limit.Store(1)
	bucket.Remaining.Store(0)
	bucket.Reset.Store(time.Now().Add(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := bucket.Perform(ctx, func() (*discord.RESTResponse, error) {
		t.Fatal("executor must not run when the context expires first")

		return nil, nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBucketRetriesExactlyOnceOn429(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())
	bucket := rl.GetOrCreateBucket("POST:/channels/123/messages")

	calls := 0

	header := http.Header{}
	header.Set("Retry-After", "0.01")

	resp, err := bucket.Perform(context.Background(), func() (*discord.RESTResponse, error) {
		calls++

		return &discord.RESTResponse{
			StatusCode: http.StatusTooManyRequests,
			Date:       time.Now(),
			Header:     header,
		}, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 2, calls)
}

func TestBucketRetrySucceeds(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())
	bucket := rl.GetOrCreateBucket("POST:/channels/456/messages")

	calls := 0

	header := http.Header{}
	header.Set("Retry-After", "0.01")

	resp, err := bucket.Perform(context.Background(), func() (*discord.RESTResponse, error) {
		calls++

		if calls == 1 {
			return &discord.RESTResponse{
				StatusCode: http.StatusTooManyRequests,
				Date:       time.Now(),
				Header:     header,
			}, nil
		}

		return &discord.RESTResponse{
			StatusCode: http.StatusOK,
			Date:       time.Now(),
			Header:     http.Header{},
		}, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, calls)
}

func TestGlobalLimitHaltsEveryBucket(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())
	bucketA := rl.GetOrCreateBucket("GET:/channels/123")
	bucketB := rl.GetOrCreateBucket("GET:/guilds/456")

	header := http.Header{}
	header.Set("X-RateLimit-Global", "true")
	header.Set("Retry-After", "0.01")

	finalHeader := http.Header{}
	finalHeader.Set("X-RateLimit-Global", "true")
	finalHeader.Set("Retry-After", "30")

	calls := 0

	resp, err := bucketA.Perform(context.Background(), func() (*discord.RESTResponse, error) {
		calls++

		if calls == 1 {
			return &discord.RESTResponse{
				StatusCode: http.StatusTooManyRequests,
				Date:       time.Now(),
				Header:     header,
			}, nil
		}

		return &discord.RESTResponse{
			StatusCode: http.StatusTooManyRequests,
			Date:       time.Now(),
			Header:     finalHeader,
		}, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 2, calls)

	// A global 429 halts unrelated buckets too, without any call ever
	// having gone through them.
	assert.True(t, rl.GloballyLimited())
	assert.False(t, bucketB.CanPerform())
}

func TestGlobalLimitShortCircuitsAdmission(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())
	bucket := rl.GetOrCreateBucket("GET:/users/@me")

	rl.SetGlobalLimit(time.Now().Add(100 * time.Millisecond))

	assert.True(t, rl.GloballyLimited())
	assert.False(t, bucket.CanPerform())

	start := time.Now()

	_, err := bucket.Perform(context.Background(), func() (*discord.RESTResponse, error) {
		return &discord.RESTResponse{
			StatusCode: http.StatusOK,
			Date:       time.Now(),
			Header:     http.Header{},
		}, nil
	})

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestMalformedHeadersFailClosed(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())
	bucket := rl.GetOrCreateBucket("GET:/guilds/123")

	header := http.Header{}
	header.Set("X-RateLimit-Limit", "5")
	header.Set("X-RateLimit-Remaining", "not-a-number")

	_, err := bucket.Perform(context.Background(), func() (*discord.RESTResponse, error) {
		return &discord.RESTResponse{
			StatusCode: http.StatusOK,
			Date:       time.Now(),
			Header:     header,
		}, nil
	})

	assert.NoError(t, err)

	// A header that fails to parse treats the bucket as exhausted
	// rather than unlimited.
	assert.Equal(t, int32(0), bucket.Remaining.Load())
	assert.False(t, bucket.CanPerform())
}

func TestResetCorrectedForClockSkew(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())
	bucket := rl.GetOrCreateBucket("GET:/guilds/456")

	// Remote clock runs an hour behind. The reset is 100ms after the
	// remote Date, so locally the bucket should clear in about 100ms,
	// not an hour ago.
	remoteNow := time.Now().Add(-time.Hour)
	remoteReset := remoteNow.Add(100 * time.Millisecond)

	header := rateLimitHeaders(1, 0, remoteReset)

	_, err := bucket.Perform(context.Background(), func() (*discord.RESTResponse, error) {
		return &discord.RESTResponse{
			StatusCode: http.StatusOK,
			Date:       remoteNow,
			Header:     header,
		}, nil
	})

	assert.NoError(t, err)
	assert.False(t, bucket.CanPerform())

	time.Sleep(200 * time.Millisecond)

	assert.True(t, bucket.CanPerform())
}

func TestGetOrCreateBucketReturnsSameInstance(t *testing.T) {
	t.Parallel()

	rl := ratelimit.NewRateLimiter(zerolog.Nop())

	a := rl.GetOrCreateBucket("GET:/channels/123")
	b := rl.GetOrCreateBucket("GET:/channels/123")

	assert.Same(t, a, b)
}
