// internal/git/file_test.go
package git

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qosmio/gitsigns/internal/logging"
	"github.com/qosmio/gitsigns/internal/runner"
)

func TestParseFileInfoTracked(t *testing.T) {
	info, err := parseFileInfo([]string{
		"100644 3b18e512dba79e4c8300dd08aeb37f8e728b8dad 0\ti/lf w/lf attr/\tREADME.md",
	})
	require.NoError(t, err)

	assert.Equal(t, "README.md", info.relpath)
	assert.Equal(t, "3b18e512dba79e4c8300dd08aeb37f8e728b8dad", info.objectHash)
	assert.Equal(t, "100644", info.modeBits)
	assert.False(t, info.hasConflicts)
	assert.False(t, info.indexCRLF)
	assert.False(t, info.workingCRLF)
}

func TestParseFileInfoConflict(t *testing.T) {
	info, err := parseFileInfo([]string{
		"100644 aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa 1\ti/lf w/lf attr/\tmain.go",
		"100644 bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb 2\ti/lf w/lf attr/\tmain.go",
		"100644 cccccccccccccccccccccccccccccccccccccccc 3\ti/lf w/lf attr/\tmain.go",
	})
	require.NoError(t, err)

	assert.True(t, info.hasConflicts)
	assert.Equal(t, "main.go", info.relpath)
	// Stage 1 still supplies the base object.
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", info.objectHash)
}

func TestParseFileInfoUntracked(t *testing.T) {
	info, err := parseFileInfo([]string{"i/lf w/lf attr/\tscratch.txt"})
	require.NoError(t, err)

	assert.Equal(t, "scratch.txt", info.relpath)
	assert.Empty(t, info.objectHash)
	assert.False(t, info.hasConflicts)
}

func TestParseFileInfoCRLFFlags(t *testing.T) {
	info, err := parseFileInfo([]string{
		"100644 3b18e512dba79e4c8300dd08aeb37f8e728b8dad 0\ti/crlf w/crlf attr/\twin.txt",
	})
	require.NoError(t, err)

	assert.True(t, info.indexCRLF)
	assert.True(t, info.workingCRLF)
}

func TestParseFileInfoMalformed(t *testing.T) {
	_, err := parseFileInfo([]string{"100644\tbroken\textra\tfile"})
	assert.Error(t, err)

	_, err = parseFileInfo([]string{"100644 hash notanumber\ti/lf w/lf\tfile"})
	assert.Error(t, err)
}

func TestParseFileInfoEmpty(t *testing.T) {
	info, err := parseFileInfo(nil)
	require.NoError(t, err)
	assert.Empty(t, info.relpath)
}

func TestRestoreCRLF(t *testing.T) {
	lines := []string{"a", "b"}

	// Working tree CRLF, index LF: the tool stripped \r on output, put
	// it back so comparison matches on-disk content.
	assert.Equal(t, []string{"a\r", "b\r"}, restoreCRLF(lines, false, true))

	// Index already CRLF: nothing was stripped.
	assert.Equal(t, lines, restoreCRLF(lines, true, true))

	// All-LF file: untouched.
	assert.Equal(t, lines, restoreCRLF(lines, false, false))
}

func TestFileTracked(t *testing.T) {
	f := &File{}
	assert.False(t, f.Tracked())

	f.ObjectHash = "abc"
	assert.True(t, f.Tracked())

	f = &File{HasConflicts: true}
	assert.True(t, f.Tracked())
}

func TestRepoRelPath(t *testing.T) {
	r := &Repo{Toplevel: "/home/user/project"}
	assert.Equal(t, "pkg/mod.go", r.RelPath("/home/user/project/pkg/mod.go"))
}

// recordingTool writes an executable that appends its arguments to a log
// file and exits cleanly, so index mutations can be asserted on.
func recordingTool(t *testing.T) (script, log string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}

	dir := t.TempDir()
	log = filepath.Join(dir, "args.log")
	script = filepath.Join(dir, "fake-git")
	body := "#!/bin/sh\necho \"$@\" >> " + log + "\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script, log
}

func TestEnsureIndexedConflictUsesKnownHash(t *testing.T) {
	script, log := recordingTool(t)

	dir := t.TempDir()
	f := &File{
		Repo:         &Repo{Toplevel: dir, Tool: script},
		Path:         filepath.Join(dir, "f.txt"),
		Relpath:      "f.txt",
		ObjectHash:   "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ModeBits:     "100644",
		HasConflicts: true,
		run:          runner.New(script, nil),
		logger:       logging.NewNop(),
	}

	require.NoError(t, f.EnsureIndexed(context.Background()))

	out, err := os.ReadFile(log)
	require.NoError(t, err)

	// The stage-derived base object is injected as-is; the working tree
	// is never re-hashed.
	assert.Contains(t, string(out),
		"update-index --add --cacheinfo 100644,aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa,f.txt")
	assert.NotContains(t, string(out), "hash-object")
}

func TestEnsureIndexedUntracked(t *testing.T) {
	script, log := recordingTool(t)

	dir := t.TempDir()
	f := &File{
		Repo:    &Repo{Toplevel: dir, Tool: script},
		Path:    filepath.Join(dir, "new.txt"),
		Relpath: "new.txt",
		run:     runner.New(script, nil),
		logger:  logging.NewNop(),
	}

	require.NoError(t, f.EnsureIndexed(context.Background()))

	out, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Contains(t, string(out), "update-index --add --intent-to-add")
}
