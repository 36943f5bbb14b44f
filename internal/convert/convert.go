package convert

import (
	"context"
	"fmt"

	"dockling/internal/domain"
)

// FailureReason is the typed cause of a hard conversion failure.
type FailureReason string

const (
	ReasonUnreadableSource     FailureReason = "unreadable source"
	ReasonUnsupportedStructure FailureReason = "unsupported structure"
	ReasonOCRUnavailable       FailureReason = "ocr backend unavailable"
	ReasonLimitExceeded        FailureReason = "limit exceeded"
	ReasonRemoteService        FailureReason = "remote service error"
	ReasonEngineUnavailable    FailureReason = "conversion engine unavailable"
)

// Result is a successful (possibly partial) conversion of one file.
// WarningCount > 0 classifies the file as a partial success.
type Result struct {
	OutputPath   string
	ImageCount   int
	WarningCount int
}

// ConvertError is a hard per-file failure with a typed reason.
type ConvertError struct {
	Path   string
	Reason FailureReason
	Detail string
	Err    error
}

// Error formats the failure for logs and the UI.
func (e *ConvertError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Reason, e.Detail)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ConvertError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Converter turns one candidate file into a Markdown document under
// the configured output directory. Implementations perform no retry;
// a single failure is final for that file. The call may block for
// minutes (engine model warm-up) and is the only long-running
// operation in the per-file loop.
type Converter interface {
	Convert(ctx context.Context, candidate domain.CandidateFile, settings domain.Settings) (Result, error)
}
