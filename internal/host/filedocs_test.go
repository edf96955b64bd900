// internal/host/filedocs_test.go
package host

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocs(t *testing.T) *FileDocs {
	t.Helper()
	d, err := NewFileDocs(nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Shutdown() })
	return d
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenAndSnapshot(t *testing.T) {
	d := newDocs(t)
	path := writeFile(t, t.TempDir(), "f.txt", "a\nb\n")

	id, err := d.Open(path)
	require.NoError(t, err)

	assert.True(t, d.IsOpen(id))
	lines, ok := d.SnapshotLines(id)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestOpenMissingFile(t *testing.T) {
	d := newDocs(t)
	_, err := d.Open(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestCloseDocument(t *testing.T) {
	d := newDocs(t)
	path := writeFile(t, t.TempDir(), "f.txt", "a\n")

	id, err := d.Open(path)
	require.NoError(t, err)

	d.Close(id)
	assert.False(t, d.IsOpen(id))
	_, ok := d.SnapshotLines(id)
	assert.False(t, ok)
}

func TestRenameMigratesIdentity(t *testing.T) {
	d := newDocs(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "old.txt", "a\n")

	id, err := d.Open(path)
	require.NoError(t, err)

	newPath := filepath.Join(dir, "new.txt")
	require.NoError(t, os.Rename(path, newPath))
	require.NoError(t, d.Rename(id, newPath))

	got, ok := d.Path(id)
	require.True(t, ok)
	assert.Equal(t, newPath, got)

	lines, ok := d.SnapshotLines(id)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, lines)
}

func TestEditNotification(t *testing.T) {
	d := newDocs(t)
	path := writeFile(t, t.TempDir(), "f.txt", "a\n")

	edited := make(chan DocID, 8)
	d.SetEditHandler(func(id DocID) { edited <- id })

	id, err := d.Open(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))

	select {
	case got := <-edited:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no edit notification")
	}
}

func TestRenameKeepsEditNotifications(t *testing.T) {
	d := newDocs(t)
	dirA := t.TempDir()
	dirB := t.TempDir()
	path := writeFile(t, dirA, "f.txt", "a\n")

	edited := make(chan DocID, 8)
	d.SetEditHandler(func(id DocID) { edited <- id })

	id, err := d.Open(path)
	require.NoError(t, err)

	// Move into a directory that was never watched; Rename must start
	// watching it or later edits go unseen.
	newPath := filepath.Join(dirB, "f.txt")
	require.NoError(t, os.Rename(path, newPath))
	require.NoError(t, d.Rename(id, newPath))

	// Drain events the move itself produced in the old directory.
drain:
	for {
		select {
		case <-edited:
		case <-time.After(200 * time.Millisecond):
			break drain
		}
	}

	require.NoError(t, os.WriteFile(newPath, []byte("a\nb\n"), 0o644))

	select {
	case got := <-edited:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no edit notification after rename")
	}
}

func TestSplitFileLines(t *testing.T) {
	assert.Nil(t, splitFileLines(""))
	assert.Equal(t, []string{"a"}, splitFileLines("a\n"))
	assert.Equal(t, []string{"a", "b"}, splitFileLines("a\nb"))
	assert.Equal(t, []string{"a", ""}, splitFileLines("a\n\n"))
}
