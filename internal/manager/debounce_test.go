// internal/manager/debounce_test.go
package manager

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	d := newDebouncer[string](10 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 20; i++ {
		d.Call("k", func() { calls.Add(1) })
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncerPerKey(t *testing.T) {
	d := newDebouncer[string](5 * time.Millisecond)

	var calls atomic.Int32
	d.Call("a", func() { calls.Add(1) })
	d.Call("b", func() { calls.Add(1) })

	require.Eventually(t, func() bool { return calls.Load() == 2 },
		time.Second, time.Millisecond)
}

func TestDebouncerCancel(t *testing.T) {
	d := newDebouncer[string](20 * time.Millisecond)

	var calls atomic.Int32
	d.Call("k", func() { calls.Add(1) })
	d.Cancel("k")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncerZeroIntervalRunsImmediately(t *testing.T) {
	d := newDebouncer[string](0)

	var calls atomic.Int32
	d.Call("k", func() { calls.Add(1) })

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)
}
