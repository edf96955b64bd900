// internal/hunk/hunk.go
package hunk

import "fmt"

// Type classifies a hunk by which sides carry lines.
type Type int

const (
	Add Type = iota
	Change
	Delete
)

func (t Type) String() string {
	switch t {
	case Add:
		return "add"
	case Change:
		return "change"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Side is one half of a hunk. Start is 1-based; a Count of zero marks a
// pure insertion/deletion and Start then names the line the empty span
// sits after.
type Side struct {
	Start int
	Count int
	Lines []string
}

// Hunk is a single contiguous change between two text snapshots.
type Hunk struct {
	Type    Type
	Removed Side
	Added   Side

	// Vend is the last visible line the hunk occupies after insertion,
	// used for viewport queries.
	Vend int
}

// New builds a hunk from a diff tuple, deriving its type and Vend.
func New(removedStart, removedCount, addedStart, addedCount int) Hunk {
	h := Hunk{
		Removed: Side{Start: removedStart, Count: removedCount},
		Added:   Side{Start: addedStart, Count: addedCount},
	}

	switch {
	case addedCount == 0:
		h.Type = Delete
	case removedCount == 0:
		h.Type = Add
	default:
		h.Type = Change
	}

	h.Vend = addedStart + max(addedCount-1, 0)
	return h
}

// Summary aggregates hunk counts for status displays.
type Summary struct {
	Added   int
	Changed int
	Removed int

	// Head is the repository's abbreviated head at publication time.
	Head string
}

// Summarize counts added, changed and removed lines across hunks. For a
// change hunk the paired lines count as changed and the surplus on the
// longer side as added or removed.
func Summarize(hunks []Hunk) Summary {
	var s Summary
	for _, h := range hunks {
		switch h.Type {
		case Add:
			s.Added += h.Added.Count
		case Delete:
			s.Removed += h.Removed.Count
		case Change:
			delta := h.Added.Count - h.Removed.Count
			switch {
			case delta > 0:
				s.Added += delta
				s.Changed += h.Removed.Count
			case delta < 0:
				s.Removed += -delta
				s.Changed += h.Added.Count
			default:
				s.Changed += h.Added.Count
			}
		}
	}
	return s
}

// Covers reports whether the hunk occupies lnum in the current document.
// A delete hunk occupies only the line it sits after (line 1 when the
// deletion was at the top of the file).
func (h Hunk) Covers(lnum int) bool {
	if h.Type == Delete {
		return lnum == h.Added.Start || (h.Added.Start == 0 && lnum == 1)
	}
	return h.Added.Start <= lnum && lnum <= h.Vend
}

// Find returns the hunk covering lnum, or nil.
func Find(hunks []Hunk, lnum int) *Hunk {
	for i := range hunks {
		if hunks[i].Covers(lnum) {
			return &hunks[i]
		}
	}
	return nil
}

// FindNearest returns the index of the next hunk at or after lnum,
// wrapping to the first hunk. Returns -1 for an empty list.
func FindNearest(hunks []Hunk, lnum int, forward bool) int {
	if len(hunks) == 0 {
		return -1
	}
	if forward {
		for i := range hunks {
			if hunks[i].Added.Start > lnum {
				return i
			}
		}
		return 0
	}
	for i := len(hunks) - 1; i >= 0; i-- {
		if hunks[i].Vend < lnum {
			return i
		}
	}
	return len(hunks) - 1
}

// Equal compares two hunks by their range tuples, ignoring line bodies.
func Equal(a, b Hunk) bool {
	return a.Type == b.Type &&
		a.Added.Start == b.Added.Start &&
		a.Added.Count == b.Added.Count &&
		a.Removed.Start == b.Removed.Start &&
		a.Removed.Count == b.Removed.Count
}

// Compare reports whether two hunk lists are equal by value, regardless
// of slice identity.
func Compare(a, b []Hunk) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Header renders the unified-diff range header for the hunk.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@",
		h.Removed.Start, h.Removed.Count,
		h.Added.Start, h.Added.Count)
}

// RegionKind classifies an intraline change region.
type RegionKind int

const (
	RegionAdd RegionKind = iota
	RegionChange
	RegionDelete
)

func (k RegionKind) String() string {
	switch k {
	case RegionAdd:
		return "add"
	case RegionChange:
		return "change"
	case RegionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Region is a word-level change span on a single line. Columns are
// 1-based and half-open: [StartCol, EndCol).
type Region struct {
	Line     int
	Kind     RegionKind
	StartCol int
	EndCol   int
}
