// internal/git/repo.go
package git

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/qosmio/gitsigns/internal/logging"
	"github.com/qosmio/gitsigns/internal/runner"
)

// Repo is the resolved metadata of one repository. Many tracked files
// share a single record; it is mutated only by Update.
type Repo struct {
	Toplevel   string
	GitDir     string
	AbbrevHead string
	Detached   bool

	// Tool is the executable the repository answered to ("git", or the
	// alternate tool when the overlay probe matched).
	Tool string

	mu     sync.Mutex
	run    *runner.Runner
	logger *logging.Logger
}

// ResolveOptions tunes repository resolution.
type ResolveOptions struct {
	// Tool overrides the runner's default executable.
	Tool string

	// AltTool is probed once when the primary tool reports no
	// repository (a dotfiles manager sharing the home directory).
	AltTool string

	// GitDirHint and ToplevelHint skip discovery when both are set.
	GitDirHint   string
	ToplevelHint string

	altProbe bool // guards against infinite recursion
}

// Resolve maps a working directory to its repository metadata, batching
// toplevel, metadata dir and abbreviated head into one process call.
// "Not a repository" is an absence, not an error: the result is nil.
func Resolve(ctx context.Context, run *runner.Runner, logger *logging.Logger, dir string, opts ResolveOptions) (*Repo, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	tool := opts.Tool
	if tool == "" {
		tool = run.Tool()
	}

	r := &Repo{Tool: tool, run: run, logger: logger}

	if opts.ToplevelHint != "" && opts.GitDirHint != "" {
		r.Toplevel = opts.ToplevelHint
		r.GitDir = opts.GitDirHint
		r.Detached = r.GitDir != filepath.Join(r.Toplevel, ".git")
		if err := r.updateHead(ctx); err != nil {
			return nil, err
		}
		return r, nil
	}

	ver, err := toolVersion(ctx, run, tool)
	if err != nil {
		return nil, err
	}

	// Git older than 2.13 has no --absolute-git-dir; ask for the plain
	// path and resolve it ourselves afterwards.
	gitDirFlag := "--absolute-git-dir"
	if !ver.AtLeast(2, 13) {
		gitDirFlag = "--git-dir"
	}

	args := []string{"rev-parse", "--show-toplevel", gitDirFlag, "--abbrev-ref", "HEAD"}
	lines, _, err := run.Run(ctx, args, runner.Options{
		Command:        tool,
		Dir:            dir,
		SuppressStderr: true,
	})
	if err != nil {
		return nil, err
	}

	if len(lines) < 3 {
		// Not a repository. Try the alternate tool exactly once.
		if opts.AltTool != "" && !opts.altProbe {
			alt := opts
			alt.Tool = opts.AltTool
			alt.AltTool = ""
			alt.altProbe = true
			return Resolve(ctx, run, logger, dir, alt)
		}
		return nil, nil
	}

	r.Toplevel = lines[0]
	r.GitDir = lines[1]
	r.AbbrevHead = lines[2]

	if !ver.AtLeast(2, 13) {
		abs, err := filepath.Abs(filepath.Join(dir, r.GitDir))
		if err == nil {
			if resolved, rerr := filepath.EvalSymlinks(abs); rerr == nil {
				abs = resolved
			}
			r.GitDir = abs
		}
	}

	r.Detached = r.GitDir != filepath.Join(r.Toplevel, ".git")

	if err := r.resolveHead(ctx); err != nil {
		return nil, err
	}

	logger.Debug("repository resolved",
		zap.String("toplevel", r.Toplevel),
		zap.String("gitdir", r.GitDir),
		zap.String("head", r.AbbrevHead),
		zap.Bool("detached", r.Detached))

	return r, nil
}

// resolveHead normalizes the already-fetched symbolic head: the generic
// HEAD pointer becomes the short revision id, and an in-progress rebase
// gets a marker suffix.
func (r *Repo) resolveHead(ctx context.Context) error {
	if r.AbbrevHead == "HEAD" {
		lines, _, err := r.run.Run(ctx, []string{"rev-parse", "--short", "HEAD"},
			runner.Options{Command: r.Tool, Dir: r.Toplevel, SuppressStderr: true})
		if err != nil {
			return err
		}
		if len(lines) > 0 {
			r.AbbrevHead = lines[0]
		} else {
			// No commits exist yet.
			r.AbbrevHead = ""
		}
	}

	if r.rebaseInProgress() {
		r.AbbrevHead += "(rebasing)"
	}
	return nil
}

// updateHead re-fetches the abbreviated head only.
func (r *Repo) updateHead(ctx context.Context) error {
	lines, _, err := r.run.Run(ctx, []string{"rev-parse", "--abbrev-ref", "HEAD"},
		runner.Options{Command: r.Tool, Dir: r.Toplevel, SuppressStderr: true})
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		r.AbbrevHead = ""
		return nil
	}
	r.AbbrevHead = lines[0]
	return r.resolveHead(ctx)
}

// rebaseInProgress probes for rebase-state marker files under the
// metadata directory.
func (r *Repo) rebaseInProgress() bool {
	for _, marker := range []string{"rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(r.GitDir, marker)); err == nil {
			return true
		}
	}
	return false
}

// Update re-resolves the head after a repository-directory notification.
// Callers serialize their own updates per repository.
func (r *Repo) Update(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateHead(ctx)
}

// Head returns the abbreviated head.
func (r *Repo) Head() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.AbbrevHead
}

// RelPath returns file's path relative to the repository toplevel.
func (r *Repo) RelPath(file string) string {
	rel, err := filepath.Rel(r.Toplevel, file)
	if err != nil {
		return file
	}
	return filepath.ToSlash(rel)
}
