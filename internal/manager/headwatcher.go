// internal/manager/headwatcher.go
package manager

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/qosmio/gitsigns/internal/git"
)

// HeadWatcher reports the HEAD of the repository containing a working
// directory, independent of any attached document. It reuses repository
// records the manager already holds before resolving afresh, and it only
// re-arms its filesystem watch when the watched gitdir actually changes.
type HeadWatcher struct {
	m      *Manager
	cwd    string
	onHead func(head string)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	watched string
	repo    *git.Repo
	deb     *debouncer[string]
	done    chan struct{}
	started bool
}

func NewHeadWatcher(m *Manager, cwd string, onHead func(head string)) *HeadWatcher {
	return &HeadWatcher{
		m:      m,
		cwd:    cwd,
		onHead: onHead,
		deb:    newDebouncer[string](200 * time.Millisecond),
	}
}

// Start arms the watcher and reports the current head. Idempotent.
func (w *HeadWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	done := make(chan struct{})
	w.watcher = watcher
	w.done = done
	w.started = true
	w.mu.Unlock()

	// The loop holds its own references: Stop may clear the fields while
	// an event body is still executing.
	go w.loop(watcher, done)
	return w.refresh(ctx)
}

// Stop disarms the watcher. Idempotent.
func (w *HeadWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	close(w.done)
	w.watcher.Close()
	w.watcher = nil
	w.watched = ""
	w.repo = nil
	w.started = false
}

// SetDir retargets the watcher at a new working directory.
func (w *HeadWatcher) SetDir(ctx context.Context, cwd string) error {
	w.mu.Lock()
	w.cwd = cwd
	started := w.started
	w.mu.Unlock()
	if !started {
		return nil
	}
	return w.refresh(ctx)
}

// refresh re-resolves the repository for cwd, reports its head, and
// re-arms the watch only when the gitdir moved.
func (w *HeadWatcher) refresh(ctx context.Context) error {
	w.mu.Lock()
	cwd := w.cwd
	w.mu.Unlock()

	repo := w.m.repoFor(cwd)
	if repo == nil {
		var err error
		repo, err = w.m.reg.Resolve(ctx, cwd, git.ResolveOptions{
			Tool:    w.m.cfg.Tool,
			AltTool: w.m.cfg.AltTool,
		})
		if err != nil {
			return err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}

	if repo == nil {
		if w.watched != "" {
			w.watcher.Remove(w.watched)
			w.watched = ""
		}
		w.repo = nil
		w.onHead("")
		return nil
	}

	w.repo = repo
	if repo.GitDir != w.watched {
		if w.watched != "" {
			w.watcher.Remove(w.watched)
		}
		if err := w.watcher.Add(repo.GitDir); err != nil {
			return err
		}
		w.watched = repo.GitDir
	}
	w.onHead(repo.Head())
	return nil
}

func (w *HeadWatcher) loop(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "HEAD" {
				continue
			}
			w.deb.Call("head", w.update)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.m.logger.Error("head watcher", zap.Error(err))
		case <-done:
			return
		}
	}
}

func (w *HeadWatcher) update() {
	w.mu.Lock()
	repo := w.repo
	started := w.started
	w.mu.Unlock()
	if !started || repo == nil {
		return
	}

	if err := repo.Update(w.m.ctx); err != nil {
		w.m.logger.Warn("refreshing head", zap.Error(err))
		return
	}
	w.onHead(repo.Head())
}

// repoFor returns an already-resolved repository record containing dir,
// or nil when none is known yet.
func (m *Manager) repoFor(dir string) *git.Repo {
	m.mu.Lock()
	for _, e := range m.entries {
		if containsPath(e.repo.Toplevel, dir) {
			repo := e.repo
			m.mu.Unlock()
			return repo
		}
	}
	m.mu.Unlock()

	for _, repo := range m.reg.All() {
		if containsPath(repo.Toplevel, dir) {
			return repo
		}
	}
	return nil
}

func containsPath(root, dir string) bool {
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
