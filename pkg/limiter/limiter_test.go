package limiter_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/concord-labs/concord/pkg/limiter"
)

func TestConcurrencyLimiter(t *testing.T) {
	t.Parallel()

	cl := limiter.NewConcurrencyLimiter("test", 2)

	ticketA := cl.Wait()
	ticketB := cl.Wait()

	assert.Equal(t, int32(2), cl.InProgress())

	released := make(chan int)

	go func() {
		released <- cl.Wait()
	}()

	select {
	case <-released:
		t.Fatal("third caller should block until a ticket frees")
	case <-time.After(50 * time.Millisecond):
	}

	cl.FreeTicket(ticketA)

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("expected ticket to be handed to waiting caller")
	}

	cl.FreeTicket(ticketB)
}

func TestDurationLimiterBlocksWhenExhausted(t *testing.T) {
	t.Parallel()

	dl := limiter.NewDurationLimiter("test", zerolog.Nop(), 2, 100*time.Millisecond)

	start := time.Now()

	dl.Lock()
	dl.Lock()

	// The first two slots are free, the third must wait for the window
	// to roll over.
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	dl.Lock()

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestDurationLimiterReset(t *testing.T) {
	t.Parallel()

	dl := limiter.NewDurationLimiter("test", zerolog.Nop(), 1, time.Minute)

	dl.Lock()
	dl.Reset()

	done := make(chan struct{})

	go func() {
		dl.Lock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected reset to free the window")
	}
}

func TestDurationLimiterLogsThroughInjectedLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	dl := limiter.NewDurationLimiter("injected", logger, 1, 20*time.Millisecond)

	dl.Lock()
	dl.Lock()

	assert.Contains(t, buf.String(), "injected")
	assert.Contains(t, buf.String(), "Duration limiter exhausted")
}
