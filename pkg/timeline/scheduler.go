package timeline

import (
	"sync"
	"time"
)

// Handle cancels a repeating callback. Stop is idempotent.
type Handle interface {
	Stop()
}

// Scheduler runs fn every period until the returned Handle is stopped.
// Implementations must not run fn concurrently with itself.
type Scheduler interface {
	Every(period time.Duration, fn func()) Handle
}

// TimerScheduler schedules callbacks with [time.AfterFunc]. The next tick is
// armed only after the previous one returns, so ticks never overlap.
type TimerScheduler struct{}

// Every implements Scheduler.
func (TimerScheduler) Every(period time.Duration, fn func()) Handle {
	h := &timerHandle{period: period, fn: fn}
	h.mu.Lock()
	h.timer = time.AfterFunc(period, h.fire)
	h.mu.Unlock()
	return h
}

type timerHandle struct {
	mu      sync.Mutex
	timer   *time.Timer
	period  time.Duration
	fn      func()
	stopped bool
}

func (h *timerHandle) fire() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.fn()

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.timer = time.AfterFunc(h.period, h.fire)
	}
}

func (h *timerHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
	}
}
