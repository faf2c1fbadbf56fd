package diagnostics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryTaskRetryCache_CountsAccumulate(t *testing.T) {
	rc := NewInMemoryTaskRetryCache()

	assert.Equal(t, 0, rc.GetNumberOfRetryAttempts("task-1"))

	rc.AddRetryAttempt("task-1")
	rc.AddRetryAttempt("task-1")
	rc.AddRetryAttempt("task-2")

	assert.Equal(t, 2, rc.GetNumberOfRetryAttempts("task-1"))
	assert.Equal(t, 1, rc.GetNumberOfRetryAttempts("task-2"))
}

func TestInMemoryTaskRetryCache_Evict(t *testing.T) {
	rc := NewInMemoryTaskRetryCache()
	rc.AddRetryAttempt("task-1")
	rc.Evict("task-1")
	assert.Equal(t, 0, rc.GetNumberOfRetryAttempts("task-1"))
}

func TestInMemoryTaskRetryCache_ConcurrentAccessIsSafe(t *testing.T) {
	rc := NewInMemoryTaskRetryCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.AddRetryAttempt("shared")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, rc.GetNumberOfRetryAttempts("shared"))
}
