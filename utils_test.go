package concord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReturnRangeInt32(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		rangeString string
		max         int32
		expected    []int32
	}{
		{"0-4", 5, []int32{0, 1, 2, 3, 4}},
		{"0-4,6-7", 8, []int32{0, 1, 2, 3, 4, 6, 7}},
		{"3", 5, []int32{3}},
		{"0-10", 3, []int32{0, 1, 2}},
		{"", 5, nil},
		{"garbage", 5, nil},
	} {
		assert.Equal(t, tt.expected, returnRangeInt32(tt.rangeString, tt.max), tt.rangeString)
	}
}

func TestTokenHash(t *testing.T) {
	t.Parallel()

	a := tokenHash("token-a")
	b := tokenHash("token-b")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, tokenHash("token-a"))
	assert.NotContains(t, a, "token-a")
}

func TestRandomHex(t *testing.T) {
	t.Parallel()

	nonce := randomHex(16)

	assert.Len(t, nonce, 16)
	assert.NotEqual(t, nonce, randomHex(16))
}

func TestReplaceIfEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fallback", replaceIfEmpty("", "fallback"))
	assert.Equal(t, "value", replaceIfEmpty("value", "fallback"))
}

func TestDeadSignalCloseWaitsForGoroutines(t *testing.T) {
	t.Parallel()

	ds := DeadSignal{}

	exited := make(chan void)

	ds.Started()

	go func() {
		<-ds.Dead()

		ds.Done()
		close(exited)
	}()

	ds.Close("TEST")

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("expected goroutine to observe the dead signal")
	}
}

func TestDeadSignalRevive(t *testing.T) {
	t.Parallel()

	ds := DeadSignal{}

	ds.Close("TEST")
	ds.Revive()

	select {
	case <-ds.Dead():
		t.Fatal("revived dead signal should be open again")
	default:
	}

	// Closing twice without a revive must not panic.
	ds.Close("TEST")
	ds.Close("TEST")
}
