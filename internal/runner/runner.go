// internal/runner/runner.go
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	gserrors "github.com/qosmio/gitsigns/internal/errors"
	"github.com/qosmio/gitsigns/internal/logging"
)

// jobCount tracks concurrently running subprocesses across the whole
// process. Advisory only, exposed for diagnostics.
var jobCount atomic.Int64

// JobCount returns the number of subprocesses currently running.
func JobCount() int64 {
	return jobCount.Load()
}

// Options tunes a single run.
type Options struct {
	// Command overrides the runner's default executable.
	Command string

	// Dir is the working directory for the subprocess.
	Dir string

	// SuppressStderr drops stderr from error reporting. The text is
	// still returned so callers can inspect it.
	SuppressStderr bool

	// Stdin, when non-nil, is piped in as newline-terminated lines, for
	// data that must not touch a temp file.
	Stdin []string
}

// Runner executes an external version-control command asynchronously
// and captures stdout/stderr as line sequences.
type Runner struct {
	tool   string
	logger *logging.Logger
}

func New(tool string, logger *logging.Logger) *Runner {
	if tool == "" {
		tool = "git"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{tool: tool, logger: logger}
}

// Tool returns the default executable name.
func (r *Runner) Tool() string {
	return r.tool
}

// Run executes the tool with args and blocks the calling goroutine until
// the subprocess exits. Stdout is returned as lines with the trailing
// empty element stripped; stderr is returned raw. A non-zero exit is not
// itself an error: callers inspect stderr. Only a spawn failure is
// reported as an error.
func (r *Runner) Run(ctx context.Context, args []string, opts Options) ([]string, string, error) {
	command := opts.Command
	if command == "" {
		command = r.tool
	}

	jobID := uuid.NewString()
	r.logger.Debug("running subprocess",
		zap.String("job", jobID),
		zap.String("command", command),
		zap.Strings("args", args),
		zap.Int64("jobs", jobCount.Load()+1))

	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if opts.Stdin != nil {
		cmd.Stdin = strings.NewReader(strings.Join(opts.Stdin, "\n") + "\n")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	jobCount.Add(1)
	err := cmd.Run()
	jobCount.Add(-1)

	stderrText := stderr.String()

	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			// The process never started.
			return nil, stderrText, gserrors.Process("spawning "+command, err)
		}
		if !opts.SuppressStderr && strings.TrimSpace(stderrText) != "" {
			r.logger.Warn("subprocess stderr",
				zap.String("job", jobID),
				zap.String("command", command),
				zap.Strings("args", args),
				zap.String("stderr", strings.TrimSpace(stderrText)))
		}
	}

	return splitLines(stdout.String()), stderrText, nil
}

// splitLines breaks output into lines, stripping the trailing empty
// element a final newline would otherwise produce.
func splitLines(output string) []string {
	if output == "" {
		return nil
	}
	lines := strings.Split(output, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
