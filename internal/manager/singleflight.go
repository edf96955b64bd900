// internal/manager/singleflight.go
package manager

import "sync"

// singleflight guarantees at most one in-flight run per key. A call
// arriving while the key is running records a pending rerun instead of
// being dropped: triggers are coalesced forward, never lost, and never
// produce overlapping runs for the same key.
type singleflight[K comparable] struct {
	mu      sync.Mutex
	running map[K]bool
	rerun   map[K]bool
}

func newSingleflight[K comparable]() *singleflight[K] {
	return &singleflight[K]{
		running: make(map[K]bool),
		rerun:   make(map[K]bool),
	}
}

// Do schedules fn for key. The run happens on its own goroutine; if the
// key is already running, exactly one rerun follows on completion no
// matter how many triggers arrived meanwhile.
func (s *singleflight[K]) Do(key K, fn func()) {
	s.mu.Lock()
	if s.running[key] {
		s.rerun[key] = true
		s.mu.Unlock()
		return
	}
	s.running[key] = true
	s.mu.Unlock()

	go func() {
		for {
			fn()

			s.mu.Lock()
			if s.rerun[key] {
				delete(s.rerun, key)
				s.mu.Unlock()
				continue
			}
			delete(s.running, key)
			s.mu.Unlock()
			return
		}
	}()
}

// Running reports whether key currently has an in-flight run.
func (s *singleflight[K]) Running(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[key]
}
