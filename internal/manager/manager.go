// internal/manager/manager.go
package manager

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qosmio/gitsigns/internal/blobcache"
	"github.com/qosmio/gitsigns/internal/config"
	"github.com/qosmio/gitsigns/internal/diff"
	"github.com/qosmio/gitsigns/internal/git"
	"github.com/qosmio/gitsigns/internal/host"
	"github.com/qosmio/gitsigns/internal/hunk"
	"github.com/qosmio/gitsigns/internal/logging"
	"github.com/qosmio/gitsigns/internal/runner"
)

// FileHandle is the slice of the tracked-file surface the pipeline
// drives. *git.File implements it.
type FileHandle interface {
	FetchText(ctx context.Context, revision string) ([]string, error)
	UpdateInfo(ctx context.Context) error
	Tracked() bool
	DetectRename(ctx context.Context) (string, error)
	RevertRename(ctx context.Context) (bool, error)
	Location() (path, relpath string)
}

// entry is the cache record for one open document. The manager owns it
// exclusively for the lifetime of the document.
type entry struct {
	id   host.DocID
	file FileHandle
	repo *git.Repo

	compareRev   string
	compareText  []string
	compareValid bool
	hunks        []hunk.Hunk
	forceNext    bool
	encoding     string

	// refreshInfo requests a file-status refresh at the start of the
	// next run. The file handle is mutated only inside the single-flight
	// run, so a run in FetchText never races a status write.
	refreshInfo bool
}

// Manager orchestrates per-document updates: single-flight plus
// debounced scheduling, compare-text caching, rename handling and event
// emission.
type Manager struct {
	cfg    *config.Config
	logger *logging.Logger
	run    *runner.Runner
	engine *diff.Engine
	reg    *git.Registry
	cache  *blobcache.Store
	source host.Source
	sink   host.Sink

	mu       sync.Mutex
	entries  map[host.DocID]*entry
	watchers map[string]*repoWatcher

	sf  *singleflight[host.DocID]
	deb *debouncer[host.DocID]

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg *config.Config, source host.Source, sink host.Sink, logger *logging.Logger) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	run := runner.New(cfg.Tool, logger)
	reg, err := git.NewRegistry(0, run, logger)
	if err != nil {
		return nil, err
	}

	var cache *blobcache.Store
	if cfg.CacheDir != "" {
		cache, err = blobcache.Open(cfg.CacheDir, logger)
		if err != nil {
			// The cache is an optimization; run without it.
			logger.Warn("opening blob cache", zap.Error(err))
			cache = nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		cfg:    cfg,
		logger: logger,
		run:    run,
		engine: diff.NewEngine(diff.Options{
			Algorithm:       cfg.DiffAlgorithm,
			IndentHeuristic: cfg.IndentHeuristic,
			Workers:         cfg.DiffWorkers,
		}, logger),
		reg:      reg,
		cache:    cache,
		source:   source,
		sink:     sink,
		entries:  make(map[host.DocID]*entry),
		watchers: make(map[string]*repoWatcher),
		sf:       newSingleflight[host.DocID](),
		deb:      newDebouncer[host.DocID](time.Duration(cfg.DebounceMs) * time.Millisecond),
		ctx:      ctx,
		cancel:   cancel,
	}
	return m, nil
}

// Attach creates the cache entry for a newly opened document and kicks
// off the first recomputation. A document outside any repository is an
// absence: Attach is a no-op, not an error.
func (m *Manager) Attach(ctx context.Context, id host.DocID, path, encoding string) error {
	repo, err := m.reg.Resolve(ctx, filepath.Dir(path), git.ResolveOptions{
		Tool:    m.cfg.Tool,
		AltTool: m.cfg.AltTool,
	})
	if err != nil {
		return err
	}
	if repo == nil {
		m.logger.Debug("not in a repository", zap.String("path", path))
		return nil
	}

	file := git.NewFile(m.run, m.logger, repo, path, m.cache)
	if err := file.UpdateInfo(ctx); err != nil {
		return err
	}

	e := &entry{
		id:         id,
		file:       file,
		repo:       repo,
		compareRev: m.cfg.Base,
		encoding:   encoding,
		forceNext:  true,
	}

	m.mu.Lock()
	m.entries[id] = e
	m.mu.Unlock()

	if err := m.ensureWatcher(repo); err != nil {
		m.logger.Warn("watching repository", zap.Error(err))
	}

	m.trigger(id)
	return nil
}

// Detach destroys the document's cache entry. Any in-flight run notices
// at its next revalidation and abandons silently.
func (m *Manager) Detach(id host.DocID) {
	m.deb.Cancel(id)
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
}

// Attached reports whether a document has a cache entry.
func (m *Manager) Attached(id host.DocID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

// OnEdit is the host's edit-notification callback. Bursts collapse into
// one scheduled recomputation.
func (m *Manager) OnEdit(id host.DocID) {
	m.deb.Call(id, func() { m.trigger(id) })
}

// Refresh invalidates the cached reference text and forces the next
// publication even when hunks are value-equal.
func (m *Manager) Refresh(id host.DocID) {
	m.mu.Lock()
	if e, ok := m.entries[id]; ok {
		e.compareValid = false
		e.forceNext = true
	}
	m.mu.Unlock()
	m.trigger(id)
}

// ChangeBase switches the revision the document is compared against.
func (m *Manager) ChangeBase(id host.DocID, base string) {
	m.mu.Lock()
	if e, ok := m.entries[id]; ok {
		e.compareRev = base
		e.compareValid = false
		e.forceNext = true
	}
	m.mu.Unlock()
	m.trigger(id)
}

// Hunks returns the last published hunks for a document.
func (m *Manager) Hunks(id host.DocID) []hunk.Hunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		return e.hunks
	}
	return nil
}

func (m *Manager) trigger(id host.DocID) {
	m.sf.Do(id, func() { m.runUpdate(id) })
}

// runUpdate is one Running pass of the per-document state machine.
// Every step after a suspension point re-validates that the document is
// still open; abandonment is silent, the expected race not a fault.
func (m *Manager) runUpdate(id host.DocID) {
	ctx := m.ctx

	if !m.source.IsOpen(id) {
		return
	}
	lines, ok := m.source.SnapshotLines(id)
	if !ok {
		return
	}
	if m.cfg.MaxFileLength > 0 && len(lines) > m.cfg.MaxFileLength {
		m.logger.Debug("document exceeds max file length", zap.String("doc", string(id)))
		return
	}

	m.mu.Lock()
	e := m.entries[id]
	if e == nil {
		m.mu.Unlock()
		return
	}
	refresh := e.refreshInfo
	e.refreshInfo = false
	m.mu.Unlock()

	if refresh {
		wasTracked := e.file.Tracked()
		if err := e.file.UpdateInfo(ctx); err != nil {
			m.logger.Warn("refreshing file state", zap.String("doc", string(id)), zap.Error(err))
			return
		}
		if m.cfg.FollowRenames {
			m.followRename(e, wasTracked)
		}
		if !m.source.IsOpen(id) {
			return
		}
	}

	m.mu.Lock()
	if m.entries[id] != e {
		m.mu.Unlock()
		return
	}
	needFetch := !e.compareValid || e.compareRev != ""
	rev := e.compareRev
	compare := e.compareText
	encoding := e.encoding
	m.mu.Unlock()

	if needFetch {
		text, err := e.file.FetchText(ctx, rev)
		if err != nil {
			m.logger.Warn("fetching reference text", zap.String("doc", string(id)), zap.Error(err))
			return
		}

		// Suspension point passed; re-validate before touching state.
		if !m.source.IsOpen(id) {
			return
		}
		if text, err = git.ConvertLines(text, encoding); err != nil {
			m.logger.Warn("converting reference text", zap.Error(err))
		}

		m.mu.Lock()
		if m.entries[id] != e {
			m.mu.Unlock()
			return
		}
		e.compareText = text
		e.compareValid = true
		compare = text
		m.mu.Unlock()
	}

	hunks := m.engine.DiffLines(compare, lines)

	if !m.source.IsOpen(id) {
		return
	}

	m.mu.Lock()
	if m.entries[id] != e {
		m.mu.Unlock()
		return
	}
	changed := e.forceNext || !hunk.Compare(e.hunks, hunks)
	if changed {
		e.hunks = hunks
		e.forceNext = false
	}
	published := e.hunks
	m.mu.Unlock()

	if changed {
		m.sink.HunksChanged(id, published)
	}

	// The summary goes out even when hunks are unchanged so status
	// displays stay live.
	summary := hunk.Summarize(published)
	summary.Head = e.repo.Head()
	m.sink.Summary(id, summary)
}

// Repos returns the repository records the manager currently knows.
func (m *Manager) Repos() []*git.Repo {
	return m.reg.All()
}

// Close tears the pipeline down: watchers, worker pool and cache.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	watchers := m.watchers
	m.watchers = make(map[string]*repoWatcher)
	m.entries = make(map[host.DocID]*entry)
	m.mu.Unlock()

	for _, w := range watchers {
		w.stop()
	}
	m.engine.Close()
	if m.cache != nil {
		m.cache.Close()
	}
}
