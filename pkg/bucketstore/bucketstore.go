package bucketstore

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/concord-labs/concord/pkg/limiter"
)

// ErrNoSuchBucket is returned when a bucket was requested that does not
// exist. Use CreateWaitForBucket to create a bucket on demand.
var ErrNoSuchBucket = errors.New("bucket does not exist, use CreateWaitForBucket instead")

// BucketStore manages a collection of named duration limiters.
type BucketStore struct {
	logger zerolog.Logger

	bucketsMu sync.RWMutex
	buckets   map[string]*limiter.DurationLimiter
}

// NewBucketStore creates a new bucket store.
func NewBucketStore(logger zerolog.Logger) *BucketStore {
	return &BucketStore{
		logger:  logger,
		buckets: make(map[string]*limiter.DurationLimiter),
	}
}

// CreateBucket creates a new bucket, overwriting any existing bucket
// with the same name.
func (bs *BucketStore) CreateBucket(name string, limit int32, duration time.Duration) *limiter.DurationLimiter {
	bucket := limiter.NewDurationLimiter(name, bs.logger, limit, duration)

	bs.bucketsMu.Lock()
	bs.buckets[name] = bucket
	bs.bucketsMu.Unlock()

	return bucket
}

// WaitForBucket waits for a slot in an existing bucket.
func (bs *BucketStore) WaitForBucket(name string) error {
	bs.bucketsMu.RLock()
	bucket, exists := bs.buckets[name]
	bs.bucketsMu.RUnlock()

	if !exists {
		return ErrNoSuchBucket
	}

	bucket.Lock()

	return nil
}

// CreateWaitForBucket creates the bucket if it does not exist then
// waits for a slot in it.
func (bs *BucketStore) CreateWaitForBucket(name string, limit int32, duration time.Duration) error {
	bs.bucketsMu.RLock()
	bucket, exists := bs.buckets[name]
	bs.bucketsMu.RUnlock()

	if !exists {
		bucket = bs.CreateBucket(name, limit, duration)
	}

	bucket.Lock()

	return nil
}
