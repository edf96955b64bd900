// internal/git/version.go
package git

import (
	"context"
	"strconv"
	"strings"
	"sync"

	gserrors "github.com/qosmio/gitsigns/internal/errors"
	"github.com/qosmio/gitsigns/internal/runner"
)

// Version is a semantic tool version. Comparison is lexicographic on
// (major, minor, patch).
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

// AtLeast reports whether v is at least major.minor.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// ParseVersion parses "git version 2.39.2" or a bare "2.39.2". A
// malformed version is a hard error: it signals an incompatible tool and
// there is no safe continuation. A ".GIT" pre-release patch counts as 0.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "git version"))
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return Version{}, gserrors.Parse("unparsable version string %q", s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, gserrors.Parse("unparsable major version in %q", s)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, gserrors.Parse("unparsable minor version in %q", s)
	}

	patch := 0
	if len(parts) > 2 {
		// Development builds report e.g. "2.45.GIT"; treat as patch 0.
		if p, err := strconv.Atoi(parts[2]); err == nil {
			patch = p
		}
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

var (
	versionMu    sync.Mutex
	versionCache = map[string]Version{}
)

// toolVersion resolves and caches the installed version per executable.
func toolVersion(ctx context.Context, run *runner.Runner, command string) (Version, error) {
	versionMu.Lock()
	if v, ok := versionCache[command]; ok {
		versionMu.Unlock()
		return v, nil
	}
	versionMu.Unlock()

	lines, _, err := run.Run(ctx, []string{"--version"}, runner.Options{Command: command})
	if err != nil {
		return Version{}, err
	}
	if len(lines) == 0 {
		return Version{}, gserrors.Parse("%s --version produced no output", command)
	}

	v, err := ParseVersion(lines[0])
	if err != nil {
		return Version{}, err
	}

	versionMu.Lock()
	versionCache[command] = v
	versionMu.Unlock()
	return v, nil
}
