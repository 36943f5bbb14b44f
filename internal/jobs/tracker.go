package jobs

import (
	"time"

	"dockling/internal/domain"
)

// Progress is a point-in-time view of batch advancement, including
// an estimate of remaining time based on the average pace so far.
type Progress struct {
	Index          int     `json:"index"`
	Total          int     `json:"total"`
	CurrentFile    string  `json:"currentFile,omitempty"`
	Percent        int     `json:"percent"`
	ElapsedSec     float64 `json:"elapsedSec"`
	AvgSecPerFile  float64 `json:"avgSecPerFile"`
	ETASec         float64 `json:"etaSec"`
	SuccessRatePct float64 `json:"successRatePct"`
}

// Tracker measures elapsed time and pace for one job. It is used
// only from the worker goroutine; shared totals live in Manager.
type Tracker struct {
	total   int
	started time.Time
	now     func() time.Time
}

// NewTracker starts tracking a job over total candidate files.
func NewTracker(total int) *Tracker {
	t := &Tracker{total: total, now: time.Now}
	t.started = t.now()
	return t
}

// Snapshot computes progress from the recorded totals and the file
// currently being processed (1-based index).
func (t *Tracker) Snapshot(totals domain.Totals, index int, currentFile string) Progress {
	elapsed := t.now().Sub(t.started).Seconds()
	processed := totals.Processed()

	p := Progress{
		Index:       index,
		Total:       t.total,
		CurrentFile: currentFile,
		ElapsedSec:  elapsed,
	}
	if t.total > 0 {
		p.Percent = processed * 100 / t.total
	}
	if processed > 0 {
		p.AvgSecPerFile = elapsed / float64(processed)
		p.ETASec = float64(t.total-processed) * p.AvgSecPerFile
		p.SuccessRatePct = float64(totals.Success+totals.Partial) / float64(processed) * 100
	}
	return p
}

// Elapsed returns total time since tracking began.
func (t *Tracker) Elapsed() time.Duration {
	return t.now().Sub(t.started)
}

// NewTrackerForTests creates a tracker with an injectable clock.
func NewTrackerForTests(total int, now func() time.Time) *Tracker {
	t := &Tracker{total: total, now: now}
	t.started = now()
	return t
}
