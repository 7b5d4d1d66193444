package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAt_MonotonicWithinSameInstant(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	prev := At(ts)
	for i := 0; i < 50; i++ {
		next := At(ts)
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestNew_Length(t *testing.T) {
	assert.Len(t, New(), 26)
}
