// internal/diff/word.go
package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/qosmio/gitsigns/internal/hunk"
)

// denoiseGap is the maximum gap (in columns) between two adjacent
// intraline hunks before they are merged into one. Character-level
// output otherwise produces visually noisy runs of tiny highlights.
const denoiseGap = 5

// WordDiff derives intraline change regions for a removed/added line
// pairing. It only activates when both sides have the same length;
// mismatched inputs yield two empty region lists.
func WordDiff(removedLines, addedLines []string) ([]hunk.Region, []hunk.Region) {
	if len(removedLines) != len(addedLines) || len(removedLines) == 0 {
		return nil, nil
	}

	var removed, added []hunk.Region

	dmp := diffmatchpatch.New()
	for i := range removedLines {
		diffs := dmp.DiffMainRunes([]rune(removedLines[i]), []rune(addedLines[i]), false)
		hunks := charHunks(diffs)
		hunks = Denoise(hunks)

		for _, h := range hunks {
			kind := regionKind(h.Type)
			if h.Removed.Count > 0 {
				removed = append(removed, hunk.Region{
					Line:     i + 1,
					Kind:     kind,
					StartCol: h.Removed.Start,
					EndCol:   h.Removed.Start + h.Removed.Count,
				})
			}
			if h.Added.Count > 0 {
				added = append(added, hunk.Region{
					Line:     i + 1,
					Kind:     kind,
					StartCol: h.Added.Start,
					EndCol:   h.Added.Start + h.Added.Count,
				})
			}
		}
	}

	return removed, added
}

// charHunks reconstitutes hunks from a character-level diff, treating
// each character as a line. Zero-count sides get a +1 start adjustment:
// an empty span is represented at the position immediately after the
// last shared character, not before.
func charHunks(diffs []diffmatchpatch.Diff) []hunk.Hunk {
	tuples := tuplesFromEdits(editsFromDiffs(diffs))

	hunks := make([]hunk.Hunk, 0, len(tuples))
	for _, t := range tuples {
		if t.removedCount == 0 {
			t.removedStart++
		}
		if t.addedCount == 0 {
			t.addedStart++
		}
		hunks = append(hunks, hunk.New(t.removedStart, t.removedCount, t.addedStart, t.addedCount))
	}
	return hunks
}

// Denoise merges hunk N+1 into hunk N while the gap between the end of
// N's added range and the start of N+1's added range is under the
// threshold. The pass is idempotent.
func Denoise(hunks []hunk.Hunk) []hunk.Hunk {
	if len(hunks) < 2 {
		return hunks
	}

	out := make([]hunk.Hunk, 0, len(hunks))
	cur := hunks[0]
	for _, next := range hunks[1:] {
		gap := next.Added.Start - (cur.Added.Start + cur.Added.Count)
		if gap >= denoiseGap {
			out = append(out, cur)
			cur = next
			continue
		}

		cur.Added.Count += next.Added.Count
		cur.Removed.Count += next.Removed.Count
		cur.Added.Lines = append(cur.Added.Lines, next.Added.Lines...)
		cur.Removed.Lines = append(cur.Removed.Lines, next.Removed.Lines...)
		if cur.Added.Count > 0 && cur.Removed.Count > 0 {
			cur.Type = hunk.Change
		}
		cur.Vend = cur.Added.Start + max(cur.Added.Count-1, 0)
	}
	out = append(out, cur)

	return out
}

func regionKind(t hunk.Type) hunk.RegionKind {
	switch t {
	case hunk.Add:
		return hunk.RegionAdd
	case hunk.Delete:
		return hunk.RegionDelete
	default:
		return hunk.RegionChange
	}
}
