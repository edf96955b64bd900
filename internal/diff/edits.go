// internal/diff/edits.go
package diff

import (
	"github.com/qosmio/gitsigns/internal/hunk"
)

type editOp int

const (
	opEqual editOp = iota
	opDelete
	opInsert
)

// edit is one run of an edit script. Algorithms emit these instead of
// hunks so tuple derivation lives in exactly one place.
type edit struct {
	op    editOp
	count int
}

// tuple is a raw (removedStart, removedCount, addedStart, addedCount)
// change record. Starts are 1-based when the count is non-zero; a
// zero-count side addresses the line the empty span sits after.
type tuple struct {
	removedStart, removedCount int
	addedStart, addedCount     int
}

// tuplesFromEdits folds an edit script into change tuples. Adjacent
// delete/insert runs collapse into a single tuple.
func tuplesFromEdits(edits []edit) []tuple {
	var out []tuple

	a, b := 0, 0 // lines consumed on each side
	open := false
	var baseA, baseB, rc, ac int

	flush := func() {
		if !open {
			return
		}
		t := tuple{removedCount: rc, addedCount: ac}
		if rc > 0 {
			t.removedStart = baseA + 1
		} else {
			t.removedStart = baseA
		}
		if ac > 0 {
			t.addedStart = baseB + 1
		} else {
			t.addedStart = baseB
		}
		out = append(out, t)
		open = false
	}

	for _, e := range edits {
		switch e.op {
		case opEqual:
			flush()
			a += e.count
			b += e.count
		case opDelete:
			if !open {
				open, baseA, baseB, rc, ac = true, a, b, 0, 0
			}
			rc += e.count
			a += e.count
		case opInsert:
			if !open {
				open, baseA, baseB, rc, ac = true, a, b, 0, 0
			}
			ac += e.count
			b += e.count
		}
	}
	flush()

	return out
}

// hunksFromTuples instantiates hunks, slicing line bodies out of the
// original arrays. Out-of-range indices become empty strings so
// algorithm edge cases at buffer boundaries cannot panic.
func hunksFromTuples(tuples []tuple, before, after []string) []hunk.Hunk {
	hunks := make([]hunk.Hunk, 0, len(tuples))
	for _, t := range tuples {
		h := hunk.New(t.removedStart, t.removedCount, t.addedStart, t.addedCount)
		h.Removed.Lines = sliceLines(before, t.removedStart, t.removedCount)
		h.Added.Lines = sliceLines(after, t.addedStart, t.addedCount)
		hunks = append(hunks, h)
	}
	return hunks
}

func sliceLines(lines []string, start, count int) []string {
	if count == 0 {
		return nil
	}
	out := make([]string, count)
	for i := 0; i < count; i++ {
		idx := start - 1 + i
		if idx >= 0 && idx < len(lines) {
			out[i] = lines[idx]
		}
	}
	return out
}
