// internal/diff/pool.go
package diff

// pool runs the line-diff primitive off the caller's goroutine. The
// computation is side-effect free and shares no state with the caller,
// so this is purely a throughput path.
type pool struct {
	requests chan request
	done     chan struct{}
}

type request struct {
	algo          Algorithm
	before, after []string
	reply         chan []edit
}

func newPool(workers int) *pool {
	p := &pool{
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	for {
		select {
		case req := <-p.requests:
			req.reply <- req.algo(req.before, req.after)
		case <-p.done:
			return
		}
	}
}

// diff marshals one call to a worker and waits for the result.
func (p *pool) diff(algo Algorithm, before, after []string) []edit {
	reply := make(chan []edit, 1)
	select {
	case p.requests <- request{algo: algo, before: before, after: after, reply: reply}:
		return <-reply
	case <-p.done:
		// Pool shut down mid-call; fall back to the synchronous path.
		return algo(before, after)
	}
}

func (p *pool) close() {
	close(p.done)
}
