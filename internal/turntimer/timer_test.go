package turntimer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() (*atomic.Int32, Func) {
	var n atomic.Int32
	return &n, func(uint64) { n.Add(1) }
}

func TestStartFiresOnce(t *testing.T) {
	n, fn := counter()
	tm := New(fn)
	tm.Start(20 * time.Millisecond)
	assert.True(t, tm.Running())

	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
	assert.False(t, tm.Running())
}

func TestStartRearmsAndCancelsPending(t *testing.T) {
	n, fn := counter()
	tm := New(fn)
	tm.Start(30 * time.Millisecond)
	tm.Start(200 * time.Millisecond)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load(), "first arming must not fire")
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestStopCancels(t *testing.T) {
	n, fn := counter()
	tm := New(fn)
	tm.Start(20 * time.Millisecond)
	tm.Stop()
	tm.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load())
	assert.False(t, tm.Running())
}

func TestPauseResumeKeepsRemaining(t *testing.T) {
	n, fn := counter()
	tm := New(fn)
	tm.Start(400 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	tm.Pause()
	assert.True(t, tm.Paused())
	left := tm.Remaining()
	assert.Less(t, left, 400*time.Millisecond)
	assert.Greater(t, left, 200*time.Millisecond)

	// paused time does not count down
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load())
	assert.Equal(t, left, tm.Remaining())

	tm.Resume()
	assert.True(t, tm.Running())
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPauseWhenIdleIsNoop(t *testing.T) {
	_, fn := counter()
	tm := New(fn)
	tm.Pause()
	assert.False(t, tm.Paused())
	tm.Resume()
	assert.False(t, tm.Running())
}

func TestResumeUsesFloor(t *testing.T) {
	tm := New(func(uint64) {})
	tm.Start(time.Hour)
	tm.Pause()
	tm.remaining = 0

	tm.Resume()
	assert.True(t, tm.Running())
	assert.LessOrEqual(t, tm.Remaining(), MinResume)
	tm.Dispose()
}

func TestDisposeIsFinal(t *testing.T) {
	n, fn := counter()
	tm := New(fn)
	tm.Start(20 * time.Millisecond)
	tm.Dispose()
	tm.Dispose()

	tm.Start(10 * time.Millisecond)
	tm.Pause()
	tm.Resume()
	tm.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load())
	assert.True(t, tm.Disposed())
	assert.False(t, tm.Current(tm.Generation()))
}

func TestCurrentTracksGeneration(t *testing.T) {
	fired := make(chan uint64, 1)
	tm := New(func(gen uint64) { fired <- gen })
	tm.Start(10 * time.Millisecond)

	var gen uint64
	select {
	case gen = <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	assert.True(t, tm.Current(gen))

	tm.Start(time.Hour)
	assert.False(t, tm.Current(gen), "restart retires the fired generation")
	tm.Stop()
}
