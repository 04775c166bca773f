package viewstate

import (
	"sync"
	"time"
)

// DefaultToastDelay is how long a toast stays visible.
const DefaultToastDelay = 3 * time.Second

// Toast is a transient notice that hides itself after a delay. Triggering it
// again while visible restarts the delay; only one reset is ever pending.
type Toast struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	visible bool
	message string
	timer   Timer
	gen     uint64
	closed  bool
}

func NewToast(clock Clock, delay time.Duration) *Toast {
	if clock == nil {
		clock = SystemClock
	}
	if delay <= 0 {
		delay = DefaultToastDelay
	}
	return &Toast{clock: clock, delay: delay}
}

// Trigger shows message and (re)schedules the hide.
func (t *Toast) Trigger(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.visible = true
	t.message = message
	t.stopLocked()
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.delay, func() { t.expire(gen) })
}

func (t *Toast) expire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.visible = false
	t.timer = nil
}

// Visible returns whether the toast is showing and its message.
func (t *Toast) Visible() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible, t.message
}

// Close cancels any pending hide; the toast stays inert afterwards.
func (t *Toast) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.visible = false
	t.stopLocked()
}

func (t *Toast) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}
