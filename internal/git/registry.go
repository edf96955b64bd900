// internal/git/registry.go
package git

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/qosmio/gitsigns/internal/logging"
	"github.com/qosmio/gitsigns/internal/runner"
)

// Registry shares one Repo record per toplevel across all the documents
// opened inside it.
type Registry struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, *Repo]
	run    *runner.Runner
	logger *logging.Logger
}

func NewRegistry(size int, run *runner.Runner, logger *logging.Logger) (*Registry, error) {
	if size <= 0 {
		size = 32
	}
	cache, err := lru.New[string, *Repo](size)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache, run: run, logger: logger}, nil
}

// Resolve returns the shared record for the repository containing dir,
// resolving it on first use. A nil result means dir is not inside a
// repository.
func (g *Registry) Resolve(ctx context.Context, dir string, opts ResolveOptions) (*Repo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	repo, err := Resolve(ctx, g.run, g.logger, dir, opts)
	if err != nil || repo == nil {
		return nil, err
	}

	if cached, ok := g.cache.Get(repo.Toplevel); ok && cached.Tool == repo.Tool {
		return cached, nil
	}
	g.cache.Add(repo.Toplevel, repo)
	return repo, nil
}

// All returns the currently cached repository records.
func (g *Registry) All() []*Repo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.Values()
}
