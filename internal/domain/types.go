package domain

import "time"

// JobState tracks the lifecycle of a single conversion job.
type JobState string

const (
	JobStateIdle          JobState = "idle"
	JobStateRunning       JobState = "running"
	JobStateStopRequested JobState = "stop_requested"
	JobStateCompleted     JobState = "completed"
	JobStateAborted       JobState = "aborted"
)

// FileStatus classifies the terminal outcome of one file.
type FileStatus string

const (
	FileStatusSuccess FileStatus = "success"
	FileStatusPartial FileStatus = "partial"
	FileStatusFailed  FileStatus = "failed"
	FileStatusSkipped FileStatus = "skipped"
)

// Settings contains the user-selectable configuration for a conversion run.
// A snapshot is taken when a job starts and never mutated afterwards.
type Settings struct {
	InputDir           string   `json:"inputDir"`
	OutputDir          string   `json:"outputDir"`
	CreateOutputFolder bool     `json:"createOutputFolder"`
	OCREnabled         bool     `json:"ocrEnabled"`
	OCREngine          string   `json:"ocrEngine"`
	OCRLanguages       []string `json:"ocrLanguages"`
	TableRecognition   bool     `json:"tableRecognition"`
	TableMode          string   `json:"tableMode"`
	ImageExtraction    bool     `json:"imageExtraction"`
	ImageScale         float64  `json:"imageScale"`
	Accelerator        string   `json:"accelerator"`
	CPUThreads         int      `json:"cpuThreads"`
	MaxFileSizeMB      int      `json:"maxFileSizeMb"`
	MaxPages           int      `json:"maxPages"`
	ContinueOnError    bool     `json:"continueOnError"`

	AIDescriptionEnabled bool    `json:"aiDescriptionEnabled"`
	AIAPIKey             string  `json:"aiApiKey"`
	AIBaseURL            string  `json:"aiBaseUrl"`
	AIModel              string  `json:"aiModel"`
	AIMaxTokens          int     `json:"aiMaxTokens"`
	AITimeoutSec         int     `json:"aiTimeoutSec"`
	AITemperature        float64 `json:"aiTemperature"`
	AISeed               int     `json:"aiSeed"`
	AIPrompt             string  `json:"aiPrompt"`

	Language string `json:"language"`
}

// MaxFileSizeBytes returns the size limit in bytes, 0 meaning unlimited.
func (s Settings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

// CandidateFile is one filesystem entry selected by discovery.
// SkipReason is set when discovery already ruled the file out; such
// candidates never reach the converter.
type CandidateFile struct {
	Path       string `json:"path"`
	SizeBytes  int64  `json:"sizeBytes"`
	Format     string `json:"format"`
	SkipReason string `json:"skipReason,omitempty"`
}

// FileOutcome is the terminal classification of one candidate file.
type FileOutcome struct {
	Path       string        `json:"path"`
	Status     FileStatus    `json:"status"`
	Detail     string        `json:"detail,omitempty"`
	OutputPath string        `json:"outputPath,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Totals holds running per-status counters for one job.
type Totals struct {
	Success int `json:"success"`
	Partial int `json:"partial"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Processed returns the number of files with a recorded outcome.
func (t Totals) Processed() int {
	return t.Success + t.Partial + t.Failed + t.Skipped
}

// Add increments the counter matching status.
func (t *Totals) Add(status FileStatus) {
	switch status {
	case FileStatusSuccess:
		t.Success++
	case FileStatusPartial:
		t.Partial++
	case FileStatusFailed:
		t.Failed++
	case FileStatusSkipped:
		t.Skipped++
	}
}

// Job is one run of the orchestrator over a fixed file list and
// settings snapshot. Exactly one job is active at a time.
type Job struct {
	ID        string          `json:"id"`
	State     JobState        `json:"state"`
	Files     []CandidateFile `json:"files"`
	Settings  Settings        `json:"settings"`
	StartedAt time.Time       `json:"startedAt"`
	Outcomes  []FileOutcome   `json:"outcomes"`
	Totals    Totals          `json:"totals"`
}

// Terminal reports whether the job can no longer change.
func (j Job) Terminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateAborted
}
