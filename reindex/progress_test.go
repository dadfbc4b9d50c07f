package reindex

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances by step on every read.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestProgressTracker_Reports(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)
	tracker.Start()

	tracker.Increment(5)
	assert.Empty(t, buf.String(), "should not report before the interval")

	tracker.Increment(5)
	assert.Contains(t, buf.String(), "10/100")
	assert.Contains(t, buf.String(), "10.0%")

	tracker.Finish()
	out := buf.String()
	assert.Contains(t, out, "100/100")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, "recipes/s")
	assert.True(t, out[len(out)-1] == '\n')
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)
	tracker.Start()

	tracker.Update(25)
	assert.Equal(t, 10, tracker.Current())
	tracker.Increment(3)
	assert.Equal(t, 10, tracker.Current())
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	tracker.Increment(5)
	tracker.Update(7)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
	assert.Zero(t, tracker.Current())
}

func TestProgressTracker_ResumeAndETA(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)
	tracker.now = fakeClock(time.Second)
	tracker.Resume(50)
	assert.Equal(t, 50, tracker.Current())

	// Each clock read advances one second, so ten recipes take one second.
	tracker.Increment(10)
	out := buf.String()
	assert.Contains(t, out, "60/100")
	assert.Contains(t, out, "10.0 recipes/s")
	assert.Contains(t, out, "ETA 4s")
}
