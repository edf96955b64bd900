// internal/host/filedocs.go
package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qosmio/gitsigns/internal/logging"
)

// FileDocs is a file-backed Source: each "document" is a file on disk
// and edit notifications come from the filesystem. It adapts the CLI
// (which has no editor buffers) to the pipeline.
type FileDocs struct {
	mu      sync.Mutex
	docs    map[DocID]string // id -> absolute path
	byPath  map[string]DocID
	watcher *fsnotify.Watcher
	onEdit  func(DocID)
	logger  *logging.Logger
}

func NewFileDocs(logger *logging.Logger) (*FileDocs, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	d := &FileDocs{
		docs:    make(map[DocID]string),
		byPath:  make(map[string]DocID),
		watcher: watcher,
		logger:  logger,
	}
	go d.watchLoop()
	return d, nil
}

// SetEditHandler registers the edit-notification callback.
func (d *FileDocs) SetEditHandler(fn func(DocID)) {
	d.mu.Lock()
	d.onEdit = fn
	d.mu.Unlock()
}

// Open registers a file as an open document and starts watching it.
func (d *FileDocs) Open(path string) (DocID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}

	id := DocID(uuid.NewString())
	d.mu.Lock()
	d.docs[id] = abs
	d.byPath[abs] = id
	d.mu.Unlock()

	// Watch the parent directory: editors replace files on save, which
	// drops a watch placed on the file itself.
	if err := d.watcher.Add(filepath.Dir(abs)); err != nil {
		return "", fmt.Errorf("watching %s: %w", abs, err)
	}
	return id, nil
}

// Close forgets a document.
func (d *FileDocs) Close(id DocID) {
	d.mu.Lock()
	if path, ok := d.docs[id]; ok {
		delete(d.byPath, path)
		delete(d.docs, id)
	}
	d.mu.Unlock()
}

// Shutdown stops the watcher.
func (d *FileDocs) Shutdown() error {
	return d.watcher.Close()
}

// Path returns the file behind a document.
func (d *FileDocs) Path(id DocID) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.docs[id]
	return path, ok
}

func (d *FileDocs) SnapshotLines(id DocID) ([]string, bool) {
	path, ok := d.Path(id)
	if !ok {
		return nil, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return splitFileLines(string(content)), true
}

func (d *FileDocs) IsOpen(id DocID) bool {
	_, ok := d.Path(id)
	return ok
}

func (d *FileDocs) Rename(id DocID, newPath string) error {
	d.mu.Lock()
	old, ok := d.docs[id]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("document not open: %s", id)
	}
	delete(d.byPath, old)
	d.docs[id] = newPath
	d.byPath[newPath] = id
	d.mu.Unlock()

	// The file may have moved into a directory we are not watching yet.
	if err := d.watcher.Add(filepath.Dir(newPath)); err != nil {
		return fmt.Errorf("watching %s: %w", newPath, err)
	}
	return nil
}

func (d *FileDocs) watchLoop() {
	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handleEvent(event)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (d *FileDocs) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	d.mu.Lock()
	id, ok := d.byPath[event.Name]
	fn := d.onEdit
	d.mu.Unlock()

	if ok && fn != nil {
		fn(id)
	}
}

func splitFileLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
