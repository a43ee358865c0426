package engine

import (
	"sync"
	"time"

	"go-beatclock/debug"
)

// tickSource delivers periodic scan signals from a dedicated goroutine, so
// contention on the caller's goroutine (rendering, synchronous work) cannot
// stall the scheduling cadence. Delivery is not jitter-free; the scheduling
// pass tolerates early and late ticks because event times are absolute.
type tickSource struct {
	fn func() // invoked once per tick, on the tick goroutine

	mu       sync.Mutex
	interval time.Duration
	ctrl     chan time.Duration
	done     chan struct{}
	running  bool
}

func newTickSource(fn func()) *tickSource {
	return &tickSource{fn: fn}
}

// Start begins periodic signaling. Calling Start again with the same interval
// is a no-op; a different interval restarts the ticker.
func (t *tickSource) Start(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		if interval == t.interval {
			return
		}
		t.interval = interval
		t.swap(interval)
		return
	}

	t.interval = interval
	t.ctrl = make(chan time.Duration, 1)
	t.done = make(chan struct{})
	t.running = true
	go t.loop(interval, t.ctrl, t.done)
	debug.Log("tick", "started, interval=%s", interval)
}

// SetInterval hot-swaps the tick interval. The ticker is cancelled and
// restarted, never patched by interval math, so there is no double-fire and
// no long gap. When not running it only records the interval for the next
// Start.
func (t *tickSource) SetInterval(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interval == interval {
		return
	}
	t.interval = interval
	if t.running {
		t.swap(interval)
	}
}

// swap coalesces interval changes onto the control channel. Caller holds mu,
// which makes it the only sender, so drain-then-send cannot race.
func (t *tickSource) swap(interval time.Duration) {
	select {
	case <-t.ctrl:
	default:
	}
	t.ctrl <- interval
	debug.Log("tick", "interval changed to %s", interval)
}

// Stop halts signaling. Safe to call when not running. The tick goroutine may
// complete one in-flight callback before exiting.
func (t *tickSource) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	close(t.done)
	t.running = false
	debug.Log("tick", "stopped")
}

// Interval returns the current nominal tick interval
func (t *tickSource) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// Running reports whether the tick goroutine is active
func (t *tickSource) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *tickSource) loop(interval time.Duration, ctrl chan time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-done:
			return
		case iv := <-ctrl:
			ticker.Stop()
			ticker = time.NewTicker(iv)
		case <-ticker.C:
			t.fn()
		}
	}
}
