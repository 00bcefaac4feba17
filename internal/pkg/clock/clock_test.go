package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrozen(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewFrozen(start)

	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestTimeClocker(t *testing.T) {
	before := time.Now()
	got := New().Now()

	assert.False(t, got.Before(before))
}
