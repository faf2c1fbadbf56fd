package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupOrCreate_SharedSequence(t *testing.T) {
	r := NewRegistry()

	h1 := r.LookupOrCreate("job-1", "iter")
	h2 := r.LookupOrCreate("job-1", "iter")

	assert.Equal(t, int64(0), h1.Next())
	assert.Equal(t, int64(1), h2.Next())
	assert.Equal(t, int64(2), h1.Next())
	assert.Equal(t, 1, r.Size())
}

func TestLookupOrCreate_DistinctKeysGetDistinctSequences(t *testing.T) {
	r := NewRegistry()

	a := r.LookupOrCreate("job-1", "iter")
	b := r.LookupOrCreate("job-2", "iter")

	assert.Equal(t, int64(0), a.Next())
	assert.Equal(t, int64(0), b.Next())
	assert.Equal(t, 2, r.Size())
}

func TestRelease_RemovesEntryOnceAllHandlesGone(t *testing.T) {
	r := NewRegistry()

	h1 := r.LookupOrCreate("job-1", "iter")
	h2 := r.LookupOrCreate("job-1", "iter")
	require.Equal(t, 1, r.Size())

	h1.Release()
	assert.Equal(t, 1, r.Size(), "entry survives while a handle still references it")

	h2.Release()
	assert.Equal(t, 0, r.Size())
}

func TestLookupOrCreate_ConcurrentAccessIsSafe(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	results := make([]int64, 100)

	// Hold one reference for the whole test so the shared entry is never
	// torn down between goroutines; otherwise a later lookup would start a
	// fresh sequence at zero.
	keep := r.LookupOrCreate("shared", "iter")
	defer keep.Release()

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := r.LookupOrCreate("shared", "iter")
			results[i] = h.Next()
			h.Release()
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, v := range results {
		assert.False(t, seen[v], "value %d returned twice", v)
		seen[v] = true
	}
}
