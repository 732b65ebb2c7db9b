package application

import (
	"sync"
	"time"
)

type timerKey struct {
	queueID  string
	memberID string
}

type pendingTimer struct {
	timer *time.Timer
}

// DisconnectTimers holds the cancellable removal timers armed when a queued
// member leaves a waiting room. One timer per (queue, member).
type DisconnectTimers struct {
	mu     sync.Mutex
	timers map[timerKey]*pendingTimer
}

func NewDisconnectTimers() *DisconnectTimers {
	return &DisconnectTimers{timers: make(map[timerKey]*pendingTimer)}
}

// Schedule arms fn to run after d, replacing any timer pending for the same key.
func (d *DisconnectTimers) Schedule(queueID, memberID string, after time.Duration, fn func()) {
	key := timerKey{queueID: queueID, memberID: memberID}
	p := &pendingTimer{}

	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.timers[key]; ok {
		old.timer.Stop()
	}
	p.timer = time.AfterFunc(after, func() {
		d.mu.Lock()
		current, ok := d.timers[key]
		if !ok || current != p {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = p
}

// Cancel disarms the timer of (queue, member). It reports whether one was pending.
func (d *DisconnectTimers) Cancel(queueID, memberID string) bool {
	key := timerKey{queueID: queueID, memberID: memberID}
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.timers[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.timers, key)
	return true
}

// CancelMember disarms every timer of memberID and returns how many were pending.
func (d *DisconnectTimers) CancelMember(memberID string) int {
	return d.cancelWhere(func(k timerKey) bool { return k.memberID == memberID })
}

// CancelQueue disarms every timer of queueID.
func (d *DisconnectTimers) CancelQueue(queueID string) int {
	return d.cancelWhere(func(k timerKey) bool { return k.queueID == queueID })
}

// Stop disarms everything.
func (d *DisconnectTimers) Stop() {
	d.cancelWhere(func(timerKey) bool { return true })
}

func (d *DisconnectTimers) Pending(queueID, memberID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[timerKey{queueID: queueID, memberID: memberID}]
	return ok
}

func (d *DisconnectTimers) cancelWhere(match func(timerKey) bool) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for k, p := range d.timers {
		if match(k) {
			p.timer.Stop()
			delete(d.timers, k)
			n++
		}
	}
	return n
}
