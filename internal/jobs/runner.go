package jobs

import (
	"context"
	"errors"
	"time"

	"dockling/internal/convert"
	"dockling/internal/domain"
)

const (
	skipReasonStopped = "stopped by user"
	skipReasonAborted = "job aborted"
)

// Runner drives the per-file conversion loop for the single active
// job. Files are processed strictly sequentially on one worker
// goroutine; the stop request is observed only between files, so an
// in-flight conversion always reaches a terminal outcome.
type Runner struct {
	manager   *Manager
	bus       *Bus
	converter convert.Converter
}

// NewRunner wires the orchestration loop to its collaborators.
func NewRunner(manager *Manager, bus *Bus, converter convert.Converter) *Runner {
	return &Runner{manager: manager, bus: bus, converter: converter}
}

// Start registers a new job. It fails fast with ErrJobAlreadyRunning
// while another job is active; the caller then invokes Run on the
// worker goroutine.
func (r *Runner) Start(jobID string, files []domain.CandidateFile, settings domain.Settings) (domain.Job, error) {
	return r.manager.Start(jobID, files, settings)
}

// Run executes the registered job to completion. Blocking; call on a
// dedicated worker goroutine (or directly for headless use).
func (r *Runner) Run(ctx context.Context) domain.Job {
	job := r.manager.Snapshot()
	tracker := NewTracker(len(job.Files))

	aborted := false
	for i, candidate := range job.Files {
		if r.manager.StopRequested() {
			r.skipRemaining(job, i, skipReasonStopped)
			break
		}

		r.bus.Publish(Event{
			JobID: job.ID,
			Type:  EventTypeFileStarted,
			Path:  candidate.Path,
			Index: i + 1,
			Total: len(job.Files),
		})

		outcome := r.processFile(ctx, job, candidate)
		r.manager.RecordOutcome(outcome)
		r.publishFileFinished(job, outcome, i+1)
		r.publishProgress(job.ID, tracker, i+1, candidate.Path)

		if outcome.Status == domain.FileStatusFailed && !job.Settings.ContinueOnError {
			r.skipRemaining(job, i+1, skipReasonAborted)
			aborted = true
			break
		}
	}

	final := domain.JobStateCompleted
	if aborted {
		final = domain.JobStateAborted
	}
	r.manager.Finish(final)

	finished := r.manager.Snapshot()
	totals := finished.Totals
	r.bus.Publish(Event{
		JobID:    finished.ID,
		Type:     EventTypeJobFinished,
		State:    finished.State,
		Totals:   &totals,
		Duration: tracker.Elapsed(),
	})
	return finished
}

// processFile classifies one candidate: discovery-marked skips never
// reach the converter; everything else is the converter's verdict.
func (r *Runner) processFile(ctx context.Context, job domain.Job, candidate domain.CandidateFile) domain.FileOutcome {
	if candidate.SkipReason != "" {
		return domain.FileOutcome{
			Path:   candidate.Path,
			Status: domain.FileStatusSkipped,
			Detail: candidate.SkipReason,
		}
	}

	started := time.Now()
	result, err := r.converter.Convert(ctx, candidate, job.Settings)
	duration := time.Since(started)

	if err != nil {
		detail := err.Error()
		var convErr *convert.ConvertError
		if errors.As(err, &convErr) {
			detail = string(convErr.Reason)
			if convErr.Detail != "" {
				detail += ": " + convErr.Detail
			}
		}
		return domain.FileOutcome{
			Path:     candidate.Path,
			Status:   domain.FileStatusFailed,
			Detail:   detail,
			Duration: duration,
		}
	}

	status := domain.FileStatusSuccess
	detail := ""
	if result.WarningCount > 0 {
		status = domain.FileStatusPartial
		detail = "completed with warnings"
	}
	return domain.FileOutcome{
		Path:       candidate.Path,
		Status:     status,
		Detail:     detail,
		OutputPath: result.OutputPath,
		Duration:   duration,
	}
}

// skipRemaining records a skipped outcome for every unprocessed
// candidate from index on, without further converter calls.
func (r *Runner) skipRemaining(job domain.Job, from int, reason string) {
	for i := from; i < len(job.Files); i++ {
		candidate := job.Files[i]
		outcome := domain.FileOutcome{
			Path:   candidate.Path,
			Status: domain.FileStatusSkipped,
			Detail: reason,
		}
		r.manager.RecordOutcome(outcome)
		r.publishFileFinished(job, outcome, i+1)
	}
}

// publishFileFinished emits the per-file terminal event.
func (r *Runner) publishFileFinished(job domain.Job, outcome domain.FileOutcome, index int) {
	r.bus.Publish(Event{
		JobID:    job.ID,
		Type:     EventTypeFileFinished,
		Path:     outcome.Path,
		Index:    index,
		Total:    len(job.Files),
		Status:   outcome.Status,
		Detail:   outcome.Detail,
		OutPath:  outcome.OutputPath,
		Duration: outcome.Duration,
	})
}

// publishProgress emits pace and ETA after each processed file.
func (r *Runner) publishProgress(jobID string, tracker *Tracker, index int, currentFile string) {
	progress := tracker.Snapshot(r.manager.Totals(), index, currentFile)
	r.bus.Publish(Event{
		JobID:    jobID,
		Type:     EventTypeProgress,
		Progress: &progress,
	})
}
