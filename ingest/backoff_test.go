package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeBackoff_DoublesUntilCap(t *testing.T) {
	base := 10 * time.Millisecond
	maxBackoff := 100 * time.Millisecond

	assert.Equal(t, 10*time.Millisecond, computeBackoff(0, base, maxBackoff))
	assert.Equal(t, 20*time.Millisecond, computeBackoff(1, base, maxBackoff))
	assert.Equal(t, 40*time.Millisecond, computeBackoff(2, base, maxBackoff))
	assert.Equal(t, 80*time.Millisecond, computeBackoff(3, base, maxBackoff))
	assert.Equal(t, maxBackoff, computeBackoff(4, base, maxBackoff))
	assert.Equal(t, maxBackoff, computeBackoff(10, base, maxBackoff))
}
