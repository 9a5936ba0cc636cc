package concord

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"nhooyr.io/websocket"

	"github.com/concord-labs/concord/discord"
)

func testConcord() *Concord {
	return NewConcord(&Configuration{Token: "testtoken"}, io.Discard)
}

func TestReconnectBackoffSelection(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ReconnectBackoff, reconnectBackoff(false))
	assert.Equal(t, AbnormalReconnectBackoff, reconnectBackoff(true))
}

func TestUnrecoverableCloseCodes(t *testing.T) {
	t.Parallel()

	for _, code := range []int{
		discord.CloseNotAuthenticated,
		discord.CloseAuthenticationFailed,
		discord.CloseInvalidShard,
		discord.CloseShardingRequired,
		discord.CloseInvalidAPIVersion,
		discord.CloseInvalidIntents,
		discord.CloseDisallowedIntents,
	} {
		assert.True(t, isUnrecoverableCloseCode(websocket.StatusCode(code)), code)
	}

	for _, code := range []int{
		discord.CloseUnknownError,
		discord.CloseRateLimited,
		discord.CloseSessionTimeout,
		discord.CloseInvalidSeq,
	} {
		assert.False(t, isUnrecoverableCloseCode(websocket.StatusCode(code)), code)
	}
}

func TestAbnormalClosureClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, isAbnormalClosure(&websocket.CloseError{
		Code: websocket.StatusAbnormalClosure,
	}))

	assert.False(t, isAbnormalClosure(&websocket.CloseError{
		Code: websocket.StatusNormalClosure,
	}))

	// A read failure without a close frame means the transport dropped.
	assert.True(t, isAbnormalClosure(errors.New("connection reset by peer")))
}

func TestShutdownSupersedesReconnect(t *testing.T) {
	t.Parallel()

	c := testConcord()
	sh := c.NewShard(0, 1)

	c.cancel()

	start := time.Now()

	err := sh.Reconnect(false)

	// The pending backoff timer never fires once the client shuts down.
	assert.ErrorIs(t, err, ErrReconnectSuperseded)
	assert.Less(t, time.Since(start), ReconnectBackoff)
}

func TestWriteQueuePreservesSubmissionOrder(t *testing.T) {
	t.Parallel()

	c := testConcord()
	sh := c.NewShard(0, 1)

	for i := int32(0); i < 5; i++ {
		err := sh.SendEvent(context.Background(), discord.GatewayOpStatusUpdate, i)
		assert.NoError(t, err)
	}

	for i := int32(0); i < 5; i++ {
		frame := <-sh.writeQueue
		assert.Equal(t, discord.GatewayOpStatusUpdate, frame.op)
		assert.Equal(t, i, frame.data)
	}
}

func TestSendEventHonoursContextWhenQueueFull(t *testing.T) {
	t.Parallel()

	c := testConcord()
	sh := c.NewShard(0, 1)

	for i := 0; i < WriteQueueBuffer; i++ {
		err := sh.SendEvent(context.Background(), discord.GatewayOpStatusUpdate, i)
		assert.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sh.SendEvent(ctx, discord.GatewayOpStatusUpdate, "overflow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHeartbeatDiesOnMissedAck(t *testing.T) {
	t.Parallel()

	c := testConcord()
	sh := c.NewShard(0, 1)

	sh.channelMu.Lock()
	sh.ErrorCh = make(chan error, 1)
	sh.channelMu.Unlock()

	// The previous heartbeat was sent but never acknowledged.
	sh.LastHeartbeatAck.Store(time.Now().UTC().Add(-time.Minute))
	sh.LastHeartbeatSent.Store(time.Now().UTC())

	sh.Heartbeater = time.NewTicker(10 * time.Millisecond)
	defer sh.Heartbeater.Stop()

	done := make(chan void)

	go func() {
		sh.Heartbeat(context.Background())
		close(done)
	}()

	select {
	case err := <-sh.ErrorCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("expected heartbeat to report a dead connection")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected heartbeat goroutine to exit")
	}
}

func TestSequenceOnlyAdvancesOnServerValues(t *testing.T) {
	t.Parallel()

	c := testConcord()
	sh := c.NewShard(0, 1)

	sh.OnEvent(context.Background(), discord.GatewayPayload{
		Op:       discord.GatewayOpHeartbeatACK,
		Sequence: 12,
	})

	assert.Equal(t, int32(12), sh.Sequence.Load())

	// Heartbeat acks arrive without a sequence; the stored value must
	// not be clobbered back to zero.
	sh.OnEvent(context.Background(), discord.GatewayPayload{
		Op: discord.GatewayOpHeartbeatACK,
	})

	assert.Equal(t, int32(12), sh.Sequence.Load())
}

func TestShardStatusTransitions(t *testing.T) {
	t.Parallel()

	c := testConcord()
	sh := c.NewShard(0, 1)

	assert.Equal(t, ShardStatusIdle, sh.GetStatus())

	sh.SetStatus(ShardStatusConnecting)
	assert.Equal(t, ShardStatusConnecting, sh.GetStatus())

	sh.Close(websocket.StatusNormalClosure)
	assert.Equal(t, ShardStatusClosed, sh.GetStatus())
}

func TestCloseStopsHeartbeatTicker(t *testing.T) {
	t.Parallel()

	c := testConcord()
	sh := c.NewShard(0, 1)

	sh.Heartbeater = time.NewTicker(time.Millisecond)

	sh.Close(websocket.StatusNormalClosure)

	// Drain any tick buffered before the stop, then confirm the ticker
	// stays quiet.
	select {
	case <-sh.Heartbeater.C:
	default:
	}

	time.Sleep(10 * time.Millisecond)

	select {
	case <-sh.Heartbeater.C:
		t.Fatal("heartbeat ticker still firing after close")
	default:
	}
}

func TestDrainWriteQueueRestartsDeterministically(t *testing.T) {
	t.Parallel()

	c := testConcord()
	sh := c.NewShard(0, 1)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	go sh.DrainWriteQueue(firstCtx)

	// Let the drainer register before tearing it down.
	time.Sleep(10 * time.Millisecond)

	// Closing the signal waits for the drainer, so once it returns the
	// next session can start its own without racing the old one.
	sh.RoutineDeadSignal.Close("TEST")
	sh.RoutineDeadSignal.Revive()
	cancelFirst()

	err := sh.SendEvent(context.Background(), discord.GatewayOpStatusUpdate, nil)
	assert.NoError(t, err)

	go sh.DrainWriteQueue(context.Background())

	// The restarted drainer owns the queue and flushes the frame.
	assert.Eventually(t, func() bool {
		return len(sh.writeQueue) == 0
	}, 3*time.Second, 50*time.Millisecond)

	sh.RoutineDeadSignal.Close("TEST")
	sh.RoutineDeadSignal.Revive()
}
