package limiter

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ConcurrencyLimiter limits how many operations may run at once.
type ConcurrencyLimiter struct {
	name       string
	limit      int
	tickets    chan int
	inProgress int32
}

// NewConcurrencyLimiter allocates a new ConcurrencyLimiter. This is useful
// for limiting the amount of functions running at once, such as only
// allowing a specific number of sessions to start concurrently.
func NewConcurrencyLimiter(name string, limit int) *ConcurrencyLimiter {
	c := &ConcurrencyLimiter{
		name:    name,
		limit:   limit,
		tickets: make(chan int, limit),
	}

	for i := 0; i < c.limit; i++ {
		c.tickets <- i
	}

	return c
}

// Wait waits for a free ticket in the queue. Callers must pass the
// returned ticket to FreeTicket once the operation is complete.
func (c *ConcurrencyLimiter) Wait() (ticket int) {
	ticket = <-c.tickets
	atomic.AddInt32(&c.inProgress, 1)

	return ticket
}

// FreeTicket adds the ticket back into the queue.
func (c *ConcurrencyLimiter) FreeTicket(ticket int) {
	c.tickets <- ticket
	atomic.AddInt32(&c.inProgress, -1)
}

// InProgress returns how many tickets are being used.
func (c *ConcurrencyLimiter) InProgress() int32 {
	return atomic.LoadInt32(&c.inProgress)
}

// DurationLimiter allows an operation to run only X times within a
// duration of Y, blocking once the window is exhausted.
type DurationLimiter struct {
	name     string
	logger   zerolog.Logger
	limit    *int32
	duration *int64

	resetsAt  *int64
	available *int32
}

// NewDurationLimiter creates a DurationLimiter.
func NewDurationLimiter(name string, logger zerolog.Logger, limit int32, duration time.Duration) (l *DurationLimiter) {
	nanos := duration.Nanoseconds()
	l = &DurationLimiter{
		name:     name,
		logger:   logger,
		limit:    &limit,
		duration: &nanos,

		resetsAt:  new(int64),
		available: new(int32),
	}

	return l
}

// Lock waits until there is an available slot in the limiter.
func (l *DurationLimiter) Lock() {
	now := time.Now().UnixNano()

	// Window elapsed, start a fresh one.
	if atomic.LoadInt64(l.resetsAt) <= now {
		atomic.StoreInt64(l.resetsAt, now+atomic.LoadInt64(l.duration))
		atomic.StoreInt32(l.available, atomic.LoadInt32(l.limit))
	}

	if atomic.LoadInt32(l.available) <= 0 {
		// Two routines waiting simultaneously could both see the window
		// roll over, so re-enter Lock after sleeping instead of
		// decrementing directly.
		sleepDuration := time.Duration(atomic.LoadInt64(l.resetsAt) - now)

		l.logger.Debug().
			Str("limiter", l.name).
			Int64("sleep", sleepDuration.Milliseconds()).
			Msg("Duration limiter exhausted, waiting for window reset")

		time.Sleep(sleepDuration)
		l.Lock()

		return
	}

	atomic.AddInt32(l.available, -1)
}

// Reset restarts the current window without freeing slots.
func (l *DurationLimiter) Reset() {
	now := time.Now().UnixNano()
	atomic.StoreInt64(l.resetsAt, now+atomic.LoadInt64(l.duration))
}
