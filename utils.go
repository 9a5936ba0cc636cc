package concord

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

type void struct{}

// returnRangeInt32 converts a string like 0-4,6-7 to [0,1,2,3,4,6,7].
func returnRangeInt32(_range string, max int32) (result []int32) {
	splits := strings.Split(_range, ",")

	for _, split := range splits {
		ranges := strings.Split(split, "-")

		if low, err := strconv.Atoi(ranges[0]); err == nil {
			if hi, err := strconv.Atoi(ranges[len(ranges)-1]); err == nil {
				for i := int32(low); i < int32(hi+1); i++ {
					if 0 <= i && i < max {
						result = append(result, i)
					}
				}
			}
		}
	}

	return result
}

// randomHex returns a random hex string used for chunking nonces.
func randomHex(length int) string {
	buf := make([]byte, length)
	_, _ = rand.Read(buf)

	return hex.EncodeToString(buf)[:length]
}

// tokenHash hashes a bot token for use in identify bucket names so the
// raw token never appears in logs or bucket keys.
func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

func replaceIfEmpty(v string, s string) string {
	if v == "" {
		return s
	}

	return v
}

// DeadSignal orchestrates closing long running goroutines and waiting
// for them to acknowledge completion.
type DeadSignal struct {
	sync.Mutex
	waiting sync.WaitGroup

	alreadyClosed atomic.Bool
	dead          chan void
}

func (ds *DeadSignal) init() {
	ds.Lock()
	if ds.dead == nil {
		ds.alreadyClosed = *atomic.NewBool(false)
		ds.dead = make(chan void, 1)
		ds.waiting = sync.WaitGroup{}
	}
	ds.Unlock()
}

// Dead returns the dead channel.
func (ds *DeadSignal) Dead() chan void {
	ds.init()

	ds.Lock()
	defer ds.Unlock()

	return ds.dead
}

// Started signifies the goroutine has started. Done must be called on
// end.
func (ds *DeadSignal) Started() {
	ds.init()
	ds.waiting.Add(1)
}

// Done signifies the goroutine is done.
func (ds *DeadSignal) Done() {
	ds.init()
	ds.waiting.Done()
}

// Close closes the dead channel and waits for goroutines waiting on
// Dead() to call Done().
func (ds *DeadSignal) Close(t string) {
	ds.init()

	ds.Lock()
	if !ds.alreadyClosed.Load() {
		close(ds.dead)
		ds.alreadyClosed.Store(true)
	}
	ds.Unlock()

	ds.waiting.Wait()
}

// Revive makes a closed DeadSignal create a new dead channel so it can
// be reused. Do not revive while the old channel is still in use.
func (ds *DeadSignal) Revive() {
	ds.init()

	ds.Lock()
	ds.dead = make(chan void, 1)
	ds.alreadyClosed.Store(false)
	ds.Unlock()
}
