package jobs

import (
	"errors"
	"sync"
	"time"

	"dockling/internal/domain"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// Manager owns the single allowed job: its state machine, outcomes,
// and running totals. All access is mutually exclusive so observers
// never see a partially updated snapshot.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{State: domain.JobStateIdle},
	}
}

// Start registers a fresh job and moves it to running state,
// replacing any previous terminal job. Fails while a job is active.
func (m *Manager) Start(jobID string, files []domain.CandidateFile, settings domain.Settings) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isActive(m.current.State) {
		return domain.Job{}, ErrJobAlreadyRunning
	}

	m.current = domain.Job{
		ID:        jobID,
		State:     domain.JobStateRunning,
		Files:     append([]domain.CandidateFile(nil), files...),
		Settings:  settings,
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]domain.FileOutcome, 0, len(files)),
	}
	return m.snapshotLocked(), nil
}

// RequestStop asks the running job to stop at the next file boundary.
// Idempotent; a no-op when no job is active (including before the
// first start).
func (m *Manager) RequestStop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isActive(m.current.State) {
		m.current.State = domain.JobStateStopRequested
	}
}

// StopRequested reports whether a cooperative stop is pending.
func (m *Manager) StopRequested() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.State == domain.JobStateStopRequested
}

// RecordOutcome appends one file outcome and bumps the matching
// counter. Outcomes are immutable once recorded.
func (m *Manager) RecordOutcome(outcome domain.FileOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.Outcomes = append(m.current.Outcomes, outcome)
	m.current.Totals.Add(outcome.Status)
}

// Finish moves the job to its terminal state. Terminal jobs are
// immutable; only a new Start replaces them.
func (m *Manager) Finish(state domain.JobState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Terminal() {
		return
	}
	m.current.State = state
}

// Snapshot returns a consistent copy of the current job.
func (m *Manager) Snapshot() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Totals returns a consistent copy of the running counters.
func (m *Manager) Totals() domain.Totals {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Totals
}

// IsActive reports whether a job is running or stopping.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isActive(m.current.State)
}

// snapshotLocked copies the job including its slices. Callers hold mu.
func (m *Manager) snapshotLocked() domain.Job {
	job := m.current
	job.Files = append([]domain.CandidateFile(nil), m.current.Files...)
	job.Outcomes = append([]domain.FileOutcome(nil), m.current.Outcomes...)
	return job
}

// isActive checks if a state represents in-flight processing.
func isActive(state domain.JobState) bool {
	return state == domain.JobStateRunning || state == domain.JobStateStopRequested
}
