package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 2, calculateBackoff(1))
	assert.Equal(t, 4, calculateBackoff(2))
	assert.Equal(t, 8, calculateBackoff(3))
	assert.Equal(t, 1024, calculateBackoff(10))

	// capped at one hour
	assert.Equal(t, 3600, calculateBackoff(12))
	assert.Equal(t, 3600, calculateBackoff(30))
}
