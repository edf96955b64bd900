// internal/hunk/hunk_test.go
package hunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesType(t *testing.T) {
	assert.Equal(t, Add, New(3, 0, 4, 2).Type)
	assert.Equal(t, Delete, New(2, 3, 1, 0).Type)
	assert.Equal(t, Change, New(2, 1, 2, 1).Type)
}

func TestNewVend(t *testing.T) {
	// Insertion of 2 lines after line 3: occupies lines 4-5.
	h := New(3, 0, 4, 2)
	assert.Equal(t, 5, h.Vend)

	// A delete occupies no added lines; Vend collapses onto Start.
	d := New(2, 3, 1, 0)
	assert.Equal(t, 1, d.Vend)
}

func TestSummarize(t *testing.T) {
	hunks := []Hunk{
		New(3, 0, 4, 2), // +2
		New(6, 1, 7, 3), // 1 changed, 2 added
		New(9, 2, 10, 0), // -2
		New(12, 3, 11, 1), // 1 changed, 2 removed
	}
	s := Summarize(hunks)
	assert.Equal(t, 4, s.Added)
	assert.Equal(t, 2, s.Changed)
	assert.Equal(t, 4, s.Removed)
}

func TestCovers(t *testing.T) {
	add := New(3, 0, 4, 2)
	assert.False(t, add.Covers(3))
	assert.True(t, add.Covers(4))
	assert.True(t, add.Covers(5))
	assert.False(t, add.Covers(6))

	del := New(2, 2, 1, 0)
	assert.True(t, del.Covers(1))
	assert.False(t, del.Covers(2))

	// A deletion at the top of the file sits "after line 0" but is shown
	// on line 1.
	top := New(1, 1, 0, 0)
	assert.True(t, top.Covers(1))
}

func TestFind(t *testing.T) {
	hunks := []Hunk{New(2, 1, 2, 1), New(8, 0, 9, 2)}

	h := Find(hunks, 2)
	require.NotNil(t, h)
	assert.Equal(t, Change, h.Type)

	h = Find(hunks, 10)
	require.NotNil(t, h)
	assert.Equal(t, Add, h.Type)

	assert.Nil(t, Find(hunks, 5))
}

func TestFindNearest(t *testing.T) {
	hunks := []Hunk{New(2, 1, 2, 1), New(8, 0, 9, 2)}

	assert.Equal(t, 1, FindNearest(hunks, 5, true))
	assert.Equal(t, 0, FindNearest(hunks, 5, false))

	// Wraps past the last hunk.
	assert.Equal(t, 0, FindNearest(hunks, 11, true))
	// Wraps before the first hunk.
	assert.Equal(t, 1, FindNearest(hunks, 1, false))

	assert.Equal(t, -1, FindNearest(nil, 1, true))
}

func TestCompare(t *testing.T) {
	a := []Hunk{New(2, 1, 2, 1)}
	b := []Hunk{New(2, 1, 2, 1)}
	b[0].Added.Lines = []string{"body ignored"}

	assert.True(t, Compare(a, b))
	assert.False(t, Compare(a, []Hunk{New(2, 1, 2, 2)}))
	assert.False(t, Compare(a, nil))
	assert.True(t, Compare(nil, []Hunk{}))
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "@@ -3,0 +4,1 @@", New(3, 0, 4, 1).Header())
	assert.Equal(t, "@@ -1,1 +0,0 @@", New(1, 1, 0, 0).Header())
}
