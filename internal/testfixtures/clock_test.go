package testfixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	assert.True(t, clock.Now().Equal(ReferenceTime()), "got %v", clock.Now())
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)
	nowFn := clock.NowFunc()

	updated := clock.Advance(90 * time.Minute)
	assert.True(t, updated.Equal(start.Add(90*time.Minute)), "advance returned %v", updated)
	assert.True(t, nowFn().Equal(updated), "NowFunc should follow the clock")
}

func TestNilClockFallsBackToWallTime(t *testing.T) {
	var clock *Clock
	before := time.Now()
	assert.False(t, clock.NowFunc()().Before(before))
}
