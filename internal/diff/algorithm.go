// internal/diff/algorithm.go
package diff

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Algorithm turns two line arrays into an edit script.
type Algorithm func(before, after []string) []edit

// ForName resolves an algorithm by its configuration name. Unknown names
// fall back to Myers.
func ForName(name string) Algorithm {
	switch name {
	case "lcs":
		return LCS
	default:
		return Myers
	}
}

// joinLines builds the text blob an algorithm consumes. An empty input
// becomes an explicit empty string, never omitted, so a fully-added or
// fully-removed file still diffs correctly.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Myers runs the Myers diff over a line-to-rune interning of both
// texts, one rune per line.
func Myers(before, after []string) []edit {
	dmp := diffmatchpatch.New()
	c1, c2, _ := dmp.DiffLinesToRunes(joinLines(before), joinLines(after))
	diffs := dmp.DiffMainRunes(c1, c2, false)
	return editsFromDiffs(diffs)
}

// editsFromDiffs converts diffmatchpatch output into an edit script.
// Each rune in a diff's text stands for one whole line (or one character
// for the word-level path).
func editsFromDiffs(diffs []diffmatchpatch.Diff) []edit {
	edits := make([]edit, 0, len(diffs))
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			edits = append(edits, edit{op: opEqual, count: n})
		case diffmatchpatch.DiffDelete:
			edits = append(edits, edit{op: opDelete, count: n})
		case diffmatchpatch.DiffInsert:
			edits = append(edits, edit{op: opInsert, count: n})
		}
	}
	return edits
}

// LCS diffs via a longest-common-subsequence matrix walk.
func LCS(before, after []string) []edit {
	m, n := len(before), len(after)

	matrix := make([][]int, m+1)
	for i := range matrix {
		matrix[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if before[i-1] == after[j-1] {
				matrix[i][j] = matrix[i-1][j-1] + 1
			} else {
				matrix[i][j] = max(matrix[i-1][j], matrix[i][j-1])
			}
		}
	}

	// Backtrack from (m,n), then reverse into a forward edit script.
	var rev []editOp
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && before[i-1] == after[j-1]:
			rev = append(rev, opEqual)
			i--
			j--
		case j > 0 && (i == 0 || matrix[i][j-1] >= matrix[i-1][j]):
			rev = append(rev, opInsert)
			j--
		default:
			rev = append(rev, opDelete)
			i--
		}
	}

	var edits []edit
	for k := len(rev) - 1; k >= 0; k-- {
		op := rev[k]
		if len(edits) > 0 && edits[len(edits)-1].op == op {
			edits[len(edits)-1].count++
		} else {
			edits = append(edits, edit{op: op, count: 1})
		}
	}
	return edits
}
