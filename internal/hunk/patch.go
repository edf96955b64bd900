// internal/hunk/patch.go
package hunk

import "fmt"

// CreatePatch renders hunks as a zero-context unified diff suitable for
// `git apply --cached --unidiff-zero`. The offset keeps "+" positions
// consistent when only a subset of a document's hunks is staged. Invert
// swaps the sides to build the reverse patch for unstaging.
func CreatePatch(relpath string, hunks []Hunk, modeBits string, invert bool) []string {
	if modeBits == "" {
		modeBits = "100644"
	}

	results := []string{
		fmt.Sprintf("diff --git a/%s b/%s", relpath, relpath),
		"index 000000..000000 " + modeBits,
		"--- a/" + relpath,
		"+++ b/" + relpath,
	}

	offset := 0
	for _, h := range hunks {
		preStart := h.Removed.Start
		preCount := h.Removed.Count
		nowCount := h.Added.Count
		preLines := h.Removed.Lines
		nowLines := h.Added.Lines

		if invert {
			preStart = h.Added.Start
			preCount, nowCount = nowCount, preCount
			preLines, nowLines = nowLines, preLines
		}

		// A zero-count side addresses the line the span sits after, so
		// the opposite position shifts by one around it.
		nowStart := preStart + offset
		switch {
		case preCount == 0:
			nowStart++
		case nowCount == 0:
			nowStart--
		}

		results = append(results, fmt.Sprintf("@@ -%d,%d +%d,%d @@",
			preStart, preCount, nowStart, nowCount))
		for _, l := range preLines {
			results = append(results, "-"+l)
		}
		for _, l := range nowLines {
			results = append(results, "+"+l)
		}

		offset += nowCount - preCount
	}

	return results
}
