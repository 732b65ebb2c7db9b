package application

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisconnectTimers_Fire(t *testing.T) {
	timers := NewDisconnectTimers()
	defer timers.Stop()

	fired := make(chan struct{})
	timers.Schedule("q", "alice", 10*time.Millisecond, func() { close(fired) })
	assert.True(t, timers.Pending("q", "alice"))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return !timers.Pending("q", "alice") }, time.Second, time.Millisecond)
}

func TestDisconnectTimers_RescheduleReplaces(t *testing.T) {
	timers := NewDisconnectTimers()
	defer timers.Stop()

	var calls atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)
	timers.Schedule("q", "alice", 10*time.Millisecond, func() { calls.Add(100) })
	timers.Schedule("q", "alice", 20*time.Millisecond, func() {
		calls.Add(1)
		wg.Done()
	})
	wg.Wait()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDisconnectTimers_Cancel(t *testing.T) {
	timers := NewDisconnectTimers()
	defer timers.Stop()

	var calls atomic.Int32
	fn := func() { calls.Add(1) }
	timers.Schedule("q1", "alice", 20*time.Millisecond, fn)
	timers.Schedule("q2", "alice", 20*time.Millisecond, fn)
	timers.Schedule("q1", "bob", 20*time.Millisecond, fn)
	timers.Schedule("q2", "carol", 20*time.Millisecond, fn)

	assert.True(t, timers.Cancel("q2", "carol"))
	assert.False(t, timers.Cancel("q2", "carol"))
	assert.Equal(t, 2, timers.CancelMember("alice"))
	assert.Equal(t, 1, timers.CancelQueue("q1"))
	assert.Equal(t, 0, timers.CancelQueue("q1"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDisconnectTimers_Stop(t *testing.T) {
	timers := NewDisconnectTimers()
	var calls atomic.Int32
	timers.Schedule("q", "a", 10*time.Millisecond, func() { calls.Add(1) })
	timers.Schedule("q", "b", 10*time.Millisecond, func() { calls.Add(1) })
	timers.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, timers.Pending("q", "a"))
}
