package jobs

import (
	"testing"
	"time"

	"dockling/internal/domain"
)

// fakeClock advances a fixed amount on every call.
type fakeClock struct {
	current time.Time
	step    time.Duration
}

func (c *fakeClock) now() time.Time {
	t := c.current
	c.current = c.current.Add(c.step)
	return t
}

// TestTrackerSnapshotMath checks percent, pace, and ETA arithmetic.
func TestTrackerSnapshotMath(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0), step: 20 * time.Second}
	tracker := NewTrackerForTests(10, clock.now)

	// One call consumed at construction; this snapshot sees 20s elapsed.
	totals := domain.Totals{Success: 1, Partial: 1}
	p := tracker.Snapshot(totals, 3, "c.pdf")

	if p.Percent != 20 {
		t.Fatalf("percent = %d, want 20", p.Percent)
	}
	if p.ElapsedSec != 20 {
		t.Fatalf("elapsed = %v, want 20", p.ElapsedSec)
	}
	if p.AvgSecPerFile != 10 {
		t.Fatalf("avg = %v, want 10", p.AvgSecPerFile)
	}
	if p.ETASec != 80 {
		t.Fatalf("eta = %v, want 80", p.ETASec)
	}
	if p.SuccessRatePct != 100 {
		t.Fatalf("success rate = %v, want 100", p.SuccessRatePct)
	}
	if p.Index != 3 || p.Total != 10 || p.CurrentFile != "c.pdf" {
		t.Fatalf("snapshot = %+v", p)
	}
}

// TestTrackerSnapshotBeforeAnyOutcome checks the no-data edge cases.
func TestTrackerSnapshotBeforeAnyOutcome(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0), step: time.Second}
	tracker := NewTrackerForTests(0, clock.now)

	p := tracker.Snapshot(domain.Totals{}, 0, "")
	if p.Percent != 0 || p.AvgSecPerFile != 0 || p.ETASec != 0 {
		t.Fatalf("snapshot = %+v, want zeroed estimates", p)
	}
}
