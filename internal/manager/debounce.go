// internal/manager/debounce.go
package manager

import (
	"sync"
	"time"
)

// debouncer collapses bursts of calls per key into one trailing-edge
// invocation. Rate limiting only; mutual exclusion is the single-flight
// executor's job.
type debouncer[K comparable] struct {
	mu       sync.Mutex
	interval time.Duration
	timers   map[K]*time.Timer
}

func newDebouncer[K comparable](interval time.Duration) *debouncer[K] {
	return &debouncer[K]{
		interval: interval,
		timers:   make(map[K]*time.Timer),
	}
}

// Call schedules fn to run after the interval, restarting the clock if
// a call for key is already pending.
func (d *debouncer[K]) Call(key K, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.interval <= 0 {
		go fn()
		return
	}

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops any pending call for key.
func (d *debouncer[K]) Cancel(key K) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}
