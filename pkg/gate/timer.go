package gate

import (
	"sync"
	"time"
)

// epochTimer is the periodic signal described in spec §4.4/§9: it does
// nothing but set a flag and re-arm, never performing work inside the
// callback ("Timers as signals, not threads... it runs in restricted
// context and would deadlock against the scheduler mutex"). Disarming is
// synchronous: Stop blocks until any concurrently-firing callback has
// finished, satisfying spec §5's teardown requirement.
type epochTimer struct {
	mu       sync.Mutex
	timer    *time.Timer
	interval time.Duration
	armFn    func()
	stopped  bool
}

func newEpochTimer(interval time.Duration, armFn func()) *epochTimer {
	return &epochTimer{interval: interval, armFn: armFn}
}

// start arms the first tick.
func (t *epochTimer) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.timer = time.AfterFunc(t.interval, t.fire)
}

func (t *epochTimer) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.armFn()
	t.timer.Reset(t.interval)
}

// setInterval updates the period used for the next re-arm.
func (t *epochTimer) setInterval(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = d
}

// stop synchronously disarms the timer: if a callback is concurrently
// running, stop blocks until it completes before returning (spec §5).
func (t *epochTimer) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
