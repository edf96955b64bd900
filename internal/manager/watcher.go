// internal/manager/watcher.go
package manager

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/qosmio/gitsigns/internal/git"
)

// repoWatcher follows one repository's gitdir so index mutations made
// outside the host (commits, staging, checkouts) reach the pipeline.
type repoWatcher struct {
	repo    *git.Repo
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func (w *repoWatcher) stop() {
	close(w.done)
	w.watcher.Close()
}

// ensureWatcher starts a gitdir watcher for repo unless one exists.
func (m *Manager) ensureWatcher(repo *git.Repo) error {
	m.mu.Lock()
	if _, ok := m.watchers[repo.GitDir]; ok {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(repo.GitDir); err != nil {
		watcher.Close()
		return err
	}

	w := &repoWatcher{repo: repo, watcher: watcher, done: make(chan struct{})}

	m.mu.Lock()
	if _, ok := m.watchers[repo.GitDir]; ok {
		m.mu.Unlock()
		w.stop()
		return nil
	}
	m.watchers[repo.GitDir] = w
	m.mu.Unlock()

	go m.watchRepo(w)
	return nil
}

func (m *Manager) watchRepo(w *repoWatcher) {
	// Git writes through *.lock files constantly; coalesce the bursts.
	deb := newDebouncer[string](200 * time.Millisecond)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if strings.HasSuffix(event.Name, ".lock") {
				continue
			}
			deb.Call(w.repo.GitDir, func() { m.handleRepoChange(w.repo) })
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("gitdir watcher", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// handleRepoChange refreshes repository state and every attached
// document in it after the gitdir changed underneath us.
func (m *Manager) handleRepoChange(repo *git.Repo) {
	ctx := m.ctx

	if err := repo.Update(ctx); err != nil {
		m.logger.Warn("refreshing repository state", zap.Error(err))
	}

	m.mu.Lock()
	var affected []*entry
	for _, e := range m.entries {
		if e.repo == repo {
			affected = append(affected, e)
		}
	}
	m.mu.Unlock()

	// The file handles themselves are touched only inside the
	// single-flight run; here we just mark what the next run must redo.
	for _, e := range affected {
		m.mu.Lock()
		e.refreshInfo = true
		e.compareValid = false
		e.forceNext = true
		m.mu.Unlock()

		m.trigger(e.id)
	}
}

// followRename migrates the document's identity when the index shows the
// file was renamed, or back when a pending rename was reverted. Runs
// inside the document's single-flight run.
func (m *Manager) followRename(e *entry, wasTracked bool) {
	ctx := m.ctx

	if wasTracked && !e.file.Tracked() {
		newRel, err := e.file.DetectRename(ctx)
		if err != nil {
			m.logger.Warn("detecting rename", zap.Error(err))
			return
		}
		if newRel == "" {
			return
		}
	} else {
		reverted, err := e.file.RevertRename(ctx)
		if err != nil {
			m.logger.Warn("reverting rename", zap.Error(err))
			return
		}
		if !reverted {
			return
		}
	}

	newPath, _ := e.file.Location()
	if err := m.source.Rename(e.id, newPath); err != nil {
		m.logger.Warn("renaming document", zap.Error(err))
		return
	}
	m.sink.FileIdentityChanged(e.id, newPath)
}
