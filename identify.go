package concord

import (
	"fmt"
	"time"
)

// The gateway allows one identify per 5 seconds per concurrency slot;
// the extra half second absorbs clock skew.
const IdentifyRateLimit = 5500 * time.Millisecond

// WaitForIdentify blocks until the shard may identify. Shards sharing
// a token and a concurrency slot contend on the same bucket.
func (c *Concord) WaitForIdentify(shardID int32) error {
	c.configurationMu.RLock()
	token := c.Configuration.Token
	c.configurationMu.RUnlock()

	c.gatewayMu.RLock()
	maxConcurrency := c.Gateway.SessionStartLimit.MaxConcurrency
	c.gatewayMu.RUnlock()

	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	bucketName := fmt.Sprintf(
		"identify:%s:%d",
		tokenHash(token),
		shardID%maxConcurrency,
	)

	return c.IdentifyBuckets.CreateWaitForBucket(
		bucketName, 1, IdentifyRateLimit,
	)
}
