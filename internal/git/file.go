// internal/git/file.go
package git

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/qosmio/gitsigns/internal/blobcache"
	gserrors "github.com/qosmio/gitsigns/internal/errors"
	"github.com/qosmio/gitsigns/internal/hunk"
	"github.com/qosmio/gitsigns/internal/logging"
	"github.com/qosmio/gitsigns/internal/runner"
)

// File is the per-file handle into a repository. It holds a non-owning
// reference to its Repo record; repository mutations are external events
// it reacts to, never mutations it performs.
type File struct {
	Repo    *Repo
	Path    string
	Relpath string

	// ObjectHash is empty while the file is untracked.
	ObjectHash   string
	ModeBits     string
	HasConflicts bool
	IndexCRLF    bool
	WorkingCRLF  bool

	// OrigRelpath is set only while a rename is pending confirmation,
	// so a later revert can be detected.
	OrigRelpath string

	run    *runner.Runner
	logger *logging.Logger
	cache  *blobcache.Store
}

// NewFile builds a handle for path inside repo. Cache may be nil.
func NewFile(run *runner.Runner, logger *logging.Logger, repo *Repo, path string, cache *blobcache.Store) *File {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &File{
		Repo:    repo,
		Path:    path,
		Relpath: repo.RelPath(path),
		run:     run,
		logger:  logger,
		cache:   cache,
	}
}

// Tracked reports whether the index knows the file.
func (f *File) Tracked() bool {
	return f.ObjectHash != "" || f.HasConflicts
}

// Location returns the absolute path and repository-relative path.
func (f *File) Location() (string, string) {
	return f.Path, f.Relpath
}

func (f *File) git(ctx context.Context, opts runner.Options, args ...string) ([]string, string, error) {
	full := append([]string{"-c", "core.quotepath=off"}, args...)
	opts.Command = f.Repo.Tool
	if opts.Dir == "" {
		opts.Dir = f.Repo.Toplevel
	}
	return f.run.Run(ctx, full, opts)
}

// fileInfo is the parsed result of one status query.
type fileInfo struct {
	relpath      string
	objectHash   string
	modeBits     string
	hasConflicts bool
	indexCRLF    bool
	workingCRLF  bool
}

// parseFileInfo consumes `ls-files --stage --others --exclude-standard
// --eol` lines: tab-separated columns holding "mode hash stage", the
// end-of-line flags, and the path. A stage above 1 marks a conflict
// rather than a resolved object hash.
func parseFileInfo(lines []string) (fileInfo, error) {
	var info fileInfo
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) > 2 {
			meta := strings.Fields(fields[0])
			if len(meta) < 3 {
				return info, gserrors.Parse("malformed status line %q", line)
			}
			stage, err := strconv.Atoi(meta[2])
			if err != nil {
				return info, gserrors.Parse("malformed stage in status line %q", line)
			}

			eol := strings.Fields(fields[1])
			if len(eol) > 0 {
				info.indexCRLF = eol[0] == "i/crlf"
			}
			if len(eol) > 1 {
				info.workingCRLF = eol[1] == "w/crlf"
			}
			info.relpath = fields[len(fields)-1]

			if stage <= 1 {
				info.modeBits = meta[0]
				info.objectHash = meta[1]
			} else {
				info.hasConflicts = true
			}
		} else if len(fields) == 2 {
			// Untracked entry: eol flags and path only.
			info.relpath = fields[1]
		}
	}
	return info, nil
}

// UpdateInfo refreshes the index entry hash, permission bits,
// line-ending flags and conflict flag in one status round trip.
func (f *File) UpdateInfo(ctx context.Context) error {
	lines, _, err := f.git(ctx, runner.Options{SuppressStderr: true},
		"ls-files", "--stage", "--others", "--exclude-standard", "--eol", "--", f.Path)
	if err != nil {
		return err
	}

	info, err := parseFileInfo(lines)
	if err != nil {
		return err
	}

	f.ObjectHash = info.objectHash
	f.ModeBits = info.modeBits
	f.HasConflicts = info.hasConflicts
	f.IndexCRLF = info.indexCRLF
	f.WorkingCRLF = info.workingCRLF
	if info.relpath != "" {
		f.Relpath = info.relpath
	}
	return nil
}

// FetchText retrieves the file's content at revision as lines. An empty
// revision addresses the index version. "No content there" is an
// absence: both results are nil. The tool normalizes line endings on
// output; when the working tree is CRLF but the index is not, the
// carriage returns are restored so the result matches true on-disk
// content.
func (f *File) FetchText(ctx context.Context, revision string) ([]string, error) {
	useCache := f.cache != nil && revision == "" && f.ObjectHash != "" && !f.HasConflicts
	if useCache {
		if lines, ok := f.cache.Get(f.ObjectHash); ok {
			return restoreCRLF(lines, f.IndexCRLF, f.WorkingCRLF), nil
		}
	}

	object := revision + ":" + f.Relpath
	lines, stderr, err := f.git(ctx, runner.Options{SuppressStderr: true}, "show", object)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(stderr) != "" {
		// Not tracked at this revision; diff against nothing.
		f.logger.Debug("no reference content",
			zap.String("object", object),
			zap.String("stderr", strings.TrimSpace(stderr)))
		return nil, nil
	}

	if useCache {
		if err := f.cache.Put(f.ObjectHash, lines); err != nil {
			f.logger.Warn("blob cache write", zap.Error(err))
		}
	}

	return restoreCRLF(lines, f.IndexCRLF, f.WorkingCRLF), nil
}

// restoreCRLF appends a carriage return to every line when the working
// tree is CRLF but the index is not.
func restoreCRLF(lines []string, indexCRLF, workingCRLF bool) []string {
	if indexCRLF || !workingCRLF {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\r"
	}
	return out
}

// EnsureIndexed makes sure the index has an entry for the file: an
// untracked file is marked intent-to-add; a conflicted file gets a cache
// entry injected for its current mode/hash/path instead of running add.
func (f *File) EnsureIndexed(ctx context.Context) error {
	switch {
	case f.HasConflicts:
		// Inject the already-known base object, not a fresh hash of the
		// working tree: patches built against the base must stay
		// applicable.
		hash := f.ObjectHash
		if hash == "" {
			var err error
			hash, err = f.hashObject(ctx, nil)
			if err != nil {
				return err
			}
		}
		mode := f.ModeBits
		if mode == "" {
			mode = "100644"
		}
		info := mode + "," + hash + "," + f.Relpath
		_, stderr, err := f.git(ctx, runner.Options{}, "update-index", "--add", "--cacheinfo", info)
		if err != nil {
			return err
		}
		if strings.TrimSpace(stderr) != "" {
			return gserrors.Process("update-index --cacheinfo: "+strings.TrimSpace(stderr), nil)
		}
	case !f.Tracked():
		_, stderr, err := f.git(ctx, runner.Options{}, "update-index", "--add", "--intent-to-add", "--", f.Path)
		if err != nil {
			return err
		}
		if strings.TrimSpace(stderr) != "" {
			return gserrors.Process("update-index --intent-to-add: "+strings.TrimSpace(stderr), nil)
		}
	}
	return nil
}

// hashObject writes content into the object store and returns its hash.
// Nil lines hash the on-disk file instead of stdin.
func (f *File) hashObject(ctx context.Context, lines []string) (string, error) {
	var out []string
	var stderr string
	var err error
	if lines == nil {
		out, stderr, err = f.git(ctx, runner.Options{}, "hash-object", "-w", "--", f.Path)
	} else {
		out, stderr, err = f.git(ctx, runner.Options{Stdin: lines},
			"hash-object", "-w", "--path", f.Relpath, "--stdin")
	}
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", gserrors.Process("hash-object produced no hash: "+strings.TrimSpace(stderr), nil)
	}
	return out[0], nil
}

// StageLines hashes the given content into the object store and points
// the index entry at the new object, staging exactly that content.
func (f *File) StageLines(ctx context.Context, lines []string) error {
	hash, err := f.hashObject(ctx, lines)
	if err != nil {
		return err
	}

	mode := f.ModeBits
	if mode == "" {
		mode = "100644"
	}
	info := mode + "," + hash + "," + f.Relpath
	_, stderr, err := f.git(ctx, runner.Options{}, "update-index", "--cacheinfo", info)
	if err != nil {
		return err
	}
	if strings.TrimSpace(stderr) != "" {
		return gserrors.Process("update-index --cacheinfo: "+strings.TrimSpace(stderr), nil)
	}

	f.ObjectHash = hash
	return nil
}

// StageHunks applies a zero-context patch built from hunks directly to
// the index, never the working tree. Invert reverses the patch to
// unstage a subset.
func (f *File) StageHunks(ctx context.Context, hunks []hunk.Hunk, invert bool) error {
	if err := f.EnsureIndexed(ctx); err != nil {
		return err
	}

	patch := hunk.CreatePatch(f.Relpath, hunks, f.ModeBits, invert)
	_, stderr, err := f.git(ctx, runner.Options{Stdin: patch},
		"apply", "--whitespace=nowarn", "--cached", "--unidiff-zero", "-")
	if err != nil {
		return err
	}
	if strings.TrimSpace(stderr) != "" {
		return gserrors.Process("apply --cached: "+strings.TrimSpace(stderr), nil)
	}
	return nil
}

// DetectRename diffs the index against HEAD with rename detection and
// matches the file's last known path against the source column. On a
// match the live relative path migrates and the original is remembered
// so a later revert can be detected. Returns the new relative path, or
// "" when no rename is found.
func (f *File) DetectRename(ctx context.Context) (string, error) {
	orig := f.OrigRelpath
	if orig == "" {
		orig = f.Relpath
	}

	lines, _, err := f.git(ctx, runner.Options{SuppressStderr: true},
		"diff", "--name-status", "-C", "--cached")
	if err != nil {
		return "", err
	}

	for _, line := range lines {
		cols := strings.Split(line, "\t")
		if len(cols) != 3 || !strings.HasPrefix(cols[0], "R") {
			continue
		}
		if cols[1] != orig {
			continue
		}
		f.OrigRelpath = orig
		f.Relpath = cols[2]
		f.Path = filepath.Join(f.Repo.Toplevel, filepath.FromSlash(cols[2]))
		f.logger.Debug("rename detected",
			zap.String("from", orig),
			zap.String("to", cols[2]))
		return cols[2], nil
	}

	return "", nil
}

// RevertRename checks whether the pre-rename path is tracked again and,
// if so, migrates the handle back. Returns true when reverted.
func (f *File) RevertRename(ctx context.Context) (bool, error) {
	if f.OrigRelpath == "" {
		return false, nil
	}

	origPath := filepath.Join(f.Repo.Toplevel, filepath.FromSlash(f.OrigRelpath))
	lines, _, err := f.git(ctx, runner.Options{SuppressStderr: true},
		"ls-files", "--stage", "--", origPath)
	if err != nil {
		return false, err
	}
	if len(lines) == 0 {
		return false, nil
	}

	f.Relpath = f.OrigRelpath
	f.Path = origPath
	f.OrigRelpath = ""
	return true, f.UpdateInfo(ctx)
}
