package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_CapsWholeWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l := newRateLimiter(100, 15*time.Minute)
	l.now = func() time.Time { return now }

	// one request per second for the whole window
	allowed := 0
	for now.Sub(start) < 15*time.Minute {
		if l.allow("10.0.0.1") {
			allowed++
		}
		now = now.Add(time.Second)
	}
	assert.Equal(t, 100, allowed)
	assert.True(t, l.allow("10.0.0.2"), "addresses are limited independently")
}

func TestRateLimiter_ResetsAfterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newRateLimiter(3, 15*time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.allow("10.0.0.1"))

	now = now.Add(15*time.Minute - time.Second)
	assert.False(t, l.allow("10.0.0.1"))

	now = now.Add(time.Second)
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("10.0.0.1"), "request %d after reset", i)
	}
	assert.False(t, l.allow("10.0.0.1"))
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newRateLimiter(10, time.Minute)
	l.now = func() time.Time { return now }

	l.allow("a")
	l.allow("b")
	assert.Len(t, l.visitors, 2)

	now = now.Add(2 * time.Minute)
	l.allow("c")
	assert.Len(t, l.visitors, 1)
}
