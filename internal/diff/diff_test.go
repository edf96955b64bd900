// internal/diff/diff_test.go
package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qosmio/gitsigns/internal/hunk"
)

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e := NewEngine(opts, nil)
	t.Cleanup(e.Close)
	return e
}

func TestDiffLinesChange(t *testing.T) {
	e := newEngine(t, Options{})

	hunks := e.DiffLines(
		[]string{"a", "b", "c"},
		[]string{"a", "x", "c"},
	)

	require.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, hunk.Change, h.Type)
	assert.Equal(t, 2, h.Removed.Start)
	assert.Equal(t, 1, h.Removed.Count)
	assert.Equal(t, 2, h.Added.Start)
	assert.Equal(t, 1, h.Added.Count)
	assert.Equal(t, []string{"b"}, h.Removed.Lines)
	assert.Equal(t, []string{"x"}, h.Added.Lines)
}

func TestDiffLinesIdentical(t *testing.T) {
	e := newEngine(t, Options{})
	assert.Empty(t, e.DiffLines([]string{"a", "b"}, []string{"a", "b"}))
	assert.Empty(t, e.DiffLines(nil, nil))
}

func TestDiffLinesFullyAdded(t *testing.T) {
	e := newEngine(t, Options{})

	hunks := e.DiffLines(nil, []string{"a"})

	require.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, hunk.Add, h.Type)
	assert.Equal(t, 0, h.Removed.Start)
	assert.Equal(t, 0, h.Removed.Count)
	assert.Equal(t, 1, h.Added.Start)
	assert.Equal(t, 1, h.Added.Count)
}

func TestDiffLinesFullyRemoved(t *testing.T) {
	e := newEngine(t, Options{})

	hunks := e.DiffLines([]string{"a", "b"}, nil)

	require.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, hunk.Delete, h.Type)
	assert.Equal(t, 1, h.Removed.Start)
	assert.Equal(t, 2, h.Removed.Count)
	assert.Equal(t, 0, h.Added.Count)
}

func TestDiffLinesInsertion(t *testing.T) {
	e := newEngine(t, Options{})

	hunks := e.DiffLines(
		[]string{"a", "b"},
		[]string{"a", "new", "b"},
	)

	require.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, hunk.Add, h.Type)
	assert.Equal(t, 1, h.Removed.Start)
	assert.Equal(t, 0, h.Removed.Count)
	assert.Equal(t, 2, h.Added.Start)
	assert.Equal(t, 1, h.Added.Count)
	assert.Equal(t, 2, h.Vend)
}

// applyHunks reconstructs the after text from before plus hunks.
func applyHunks(before []string, hunks []hunk.Hunk) []string {
	var out []string
	next := 1
	for _, h := range hunks {
		stop := h.Removed.Start
		if h.Removed.Count > 0 {
			stop--
		}
		for next <= stop && next <= len(before) {
			out = append(out, before[next-1])
			next++
		}
		next += h.Removed.Count
		out = append(out, h.Added.Lines...)
	}
	for next <= len(before) {
		out = append(out, before[next-1])
		next++
	}
	return out
}

func TestDiffLinesRoundTrip(t *testing.T) {
	before := []string{"a", "b", "c", "d", "e", "f"}
	after := []string{"a", "x", "c", "q", "d", "f", "g"}

	for _, name := range []string{"myers", "lcs"} {
		e := newEngine(t, Options{Algorithm: name})
		hunks := e.DiffLines(before, after)
		assert.Equal(t, after, applyHunks(before, hunks), name)
	}
}

func TestAlgorithmsAgree(t *testing.T) {
	before := []string{"a", "b", "c", "d"}
	after := []string{"a", "x", "c", "d", "e"}

	myers := newEngine(t, Options{Algorithm: "myers"}).DiffLines(before, after)
	lcs := newEngine(t, Options{Algorithm: "lcs"}).DiffLines(before, after)

	assert.True(t, hunk.Compare(myers, lcs))
}

func TestWorkerPoolMatchesSynchronous(t *testing.T) {
	before := []string{"a", "b", "c", "d", "e"}
	after := []string{"a", "c", "x", "d", "e", "f"}

	sync := newEngine(t, Options{}).DiffLines(before, after)
	pooled := newEngine(t, Options{Workers: 2}).DiffLines(before, after)

	assert.True(t, hunk.Compare(sync, pooled))
	assert.Equal(t, sync, pooled)
}

func TestSlideHunksPrefersBlankBoundary(t *testing.T) {
	before := []string{"a", "", "b", "c"}
	after := []string{"a", "", "b", "", "b", "c"}

	h := hunk.New(3, 0, 4, 2)
	h.Added.Lines = []string{"", "b"}

	slid := slideHunks([]hunk.Hunk{h}, before, after)

	require.Len(t, slid, 1)
	assert.Equal(t, 3, slid[0].Added.Start)
	assert.Equal(t, []string{"b", ""}, slid[0].Added.Lines)
}

func TestSlideHunksNoOpWithoutRoom(t *testing.T) {
	before := []string{"a", "b"}
	after := []string{"a", "x", "b"}

	h := hunk.New(1, 0, 2, 1)
	h.Added.Lines = []string{"x"}

	slid := slideHunks([]hunk.Hunk{h}, before, after)
	assert.Equal(t, 2, slid[0].Added.Start)
}

func TestWordDiffChange(t *testing.T) {
	removed, added := WordDiff([]string{"abcdef"}, []string{"abcXef"})

	require.Len(t, removed, 1)
	require.Len(t, added, 1)
	assert.Equal(t, hunk.Region{Line: 1, Kind: hunk.RegionChange, StartCol: 4, EndCol: 5}, removed[0])
	assert.Equal(t, hunk.Region{Line: 1, Kind: hunk.RegionChange, StartCol: 4, EndCol: 5}, added[0])
}

func TestWordDiffLengthGate(t *testing.T) {
	removed, added := WordDiff([]string{"a", "b"}, []string{"a"})
	assert.Nil(t, removed)
	assert.Nil(t, added)
}

func TestDenoiseMergesNearbyHunks(t *testing.T) {
	hunks := []hunk.Hunk{hunk.New(2, 1, 2, 1), hunk.New(5, 1, 5, 1)}

	merged := Denoise(hunks)

	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].Added.Start)
	assert.Equal(t, 2, merged[0].Added.Count)
	assert.Equal(t, 2, merged[0].Removed.Count)
	assert.Equal(t, hunk.Change, merged[0].Type)
}

func TestDenoiseKeepsDistantHunks(t *testing.T) {
	hunks := []hunk.Hunk{hunk.New(2, 1, 2, 1), hunk.New(20, 1, 20, 1)}
	assert.Len(t, Denoise(hunks), 2)
}

func TestDenoiseIdempotent(t *testing.T) {
	hunks := []hunk.Hunk{
		hunk.New(2, 1, 2, 1),
		hunk.New(5, 1, 5, 1),
		hunk.New(30, 2, 30, 2),
	}

	once := Denoise(hunks)
	twice := Denoise(once)
	assert.Equal(t, once, twice)
}
