package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"dockling/internal/domain"
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability. extraEnv
// entries are appended to the inherited environment.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string, extraEnv []string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args []string, extraEnv []string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// DoclingConverter invokes the docling CLI to convert one document
// to Markdown.
//
// Partial-success policy: a zero engine exit with one or more
// WARNING/WARN lines on stderr yields a positive WarningCount and is
// classified Partial by the orchestrator; a non-zero exit is always
// a hard failure regardless of stderr content.
type DoclingConverter struct {
	binPath string
	runner  commandRunner
	stat    func(string) (os.FileInfo, error)
	readDir func(string) ([]os.DirEntry, error)
}

// NewDoclingConverter constructs the production converter.
func NewDoclingConverter() *DoclingConverter {
	return &DoclingConverter{
		binPath: "docling",
		runner:  &execRunner{},
		stat:    os.Stat,
		readDir: os.ReadDir,
	}
}

// Convert runs the engine on one file and verifies the Markdown
// output landed at <output>/<base>.md, overwriting any previous run.
func (c *DoclingConverter) Convert(ctx context.Context, candidate domain.CandidateFile, settings domain.Settings) (Result, error) {
	args := buildDoclingArgs(candidate.Path, settings)

	cmdResult, runErr := c.runner.Run(ctx, c.binPath, args, captioningEnv(settings))
	if runErr != nil {
		if errors.Is(runErr, exec.ErrNotFound) {
			return Result{}, &ConvertError{
				Path:   candidate.Path,
				Reason: ReasonEngineUnavailable,
				Detail: c.binPath + " not found in PATH",
				Err:    runErr,
			}
		}
		return Result{}, &ConvertError{
			Path:   candidate.Path,
			Reason: classifyFailure(cmdResult.Stderr),
			Detail: firstErrorLine(cmdResult.Stderr),
			Err:    runErr,
		}
	}

	outputPath := OutputPathFor(candidate.Path, settings.OutputDir)
	if _, err := c.stat(outputPath); err != nil {
		return Result{}, &ConvertError{
			Path:   candidate.Path,
			Reason: ReasonUnsupportedStructure,
			Detail: "engine finished but produced no markdown output",
			Err:    err,
		}
	}

	return Result{
		OutputPath:   outputPath,
		ImageCount:   c.countExtractedImages(candidate.Path, settings),
		WarningCount: countWarnings(cmdResult.Stderr),
	}, nil
}

// OutputPathFor returns the Markdown destination for a source file:
// the candidate's base name with a .md extension in the output dir.
func OutputPathFor(sourcePath, outputDir string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+".md")
}

// buildDoclingArgs translates a settings snapshot into engine flags.
func buildDoclingArgs(inputPath string, settings domain.Settings) []string {
	args := []string{
		"--to", "md",
		"--output", settings.OutputDir,
		"--device", settings.Accelerator,
	}

	if settings.OCREnabled {
		args = append(args,
			"--ocr",
			"--ocr-engine", settings.OCREngine,
			"--ocr-lang", strings.Join(settings.OCRLanguages, ","),
		)
	} else {
		args = append(args, "--no-ocr")
	}

	if settings.TableRecognition {
		args = append(args, "--table-mode", settings.TableMode)
	} else {
		args = append(args, "--no-table-structure")
	}

	if settings.ImageExtraction {
		args = append(args,
			"--image-export-mode", "referenced",
			"--images-scale", strconv.FormatFloat(settings.ImageScale, 'f', -1, 64),
		)
	} else {
		args = append(args, "--image-export-mode", "placeholder")
	}

	if settings.CPUThreads > 0 {
		args = append(args, "--num-threads", strconv.Itoa(settings.CPUThreads))
	}
	if settings.MaxPages > 0 {
		args = append(args, "--max-num-pages", strconv.Itoa(settings.MaxPages))
	}

	if settings.AIDescriptionEnabled {
		args = append(args,
			"--enrich-picture-description",
			"--enable-remote-services",
			"--picture-description-api-url", strings.TrimRight(settings.AIBaseURL, "/")+"/chat/completions",
			"--picture-description-api-model", settings.AIModel,
			"--picture-description-api-prompt", settings.AIPrompt,
			"--picture-description-api-timeout", strconv.Itoa(settings.AITimeoutSec),
			"--picture-description-api-max-tokens", strconv.Itoa(settings.AIMaxTokens),
			"--picture-description-api-temperature", strconv.FormatFloat(settings.AITemperature, 'f', -1, 64),
			"--picture-description-api-seed", strconv.Itoa(settings.AISeed),
		)
	}

	return append(args, inputPath)
}

// captioningEnv passes the remote captioning credential to the engine
// through its environment, matching how the engine reads the key.
func captioningEnv(settings domain.Settings) []string {
	if !settings.AIDescriptionEnabled || settings.AIAPIKey == "" {
		return nil
	}
	return []string{"OPENAI_API_KEY=" + settings.AIAPIKey}
}

// countExtractedImages counts image artifacts the engine wrote next
// to the Markdown output. Best effort; a missing artifacts dir means
// zero images, not an error.
func (c *DoclingConverter) countExtractedImages(sourcePath string, settings domain.Settings) int {
	if !settings.ImageExtraction {
		return 0
	}

	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	entries, err := c.readDir(filepath.Join(settings.OutputDir, stem+"_artifacts"))
	if err != nil {
		return 0
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".webp":
			count++
		}
	}
	return count
}

// countWarnings counts engine warning lines on stderr.
func countWarnings(stderr string) int {
	count := 0
	for _, line := range strings.Split(stderr, "\n") {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "WARNING") || strings.Contains(upper, "WARN ") {
			count++
		}
	}
	return count
}

// classifyFailure maps engine stderr output to a typed failure reason.
func classifyFailure(stderr string) FailureReason {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "max_num_pages") ||
		strings.Contains(lower, "page limit") ||
		strings.Contains(lower, "file size limit"):
		return ReasonLimitExceeded
	case strings.Contains(lower, "connection") ||
		strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "remote service"):
		return ReasonRemoteService
	case strings.Contains(lower, "ocr") &&
		(strings.Contains(lower, "not available") ||
			strings.Contains(lower, "not installed") ||
			strings.Contains(lower, "not found")):
		return ReasonOCRUnavailable
	case strings.Contains(lower, "unsupported") ||
		strings.Contains(lower, "invalid format") ||
		strings.Contains(lower, "cannot parse"):
		return ReasonUnsupportedStructure
	default:
		return ReasonUnreadableSource
	}
}

// firstErrorLine extracts the first ERROR-marked line from stderr,
// else the first non-empty line.
func firstErrorLine(stderr string) string {
	firstNonEmpty := ""
	for _, line := range strings.Split(stderr, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if firstNonEmpty == "" {
			firstNonEmpty = trimmed
		}
		if strings.Contains(strings.ToUpper(trimmed), "ERROR") {
			return trimmed
		}
	}
	return firstNonEmpty
}

// NewDoclingConverterForTests constructs a converter with injectable
// dependencies.
func NewDoclingConverterForTests(
	binPath string,
	runner commandRunner,
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
) *DoclingConverter {
	return &DoclingConverter{
		binPath: binPath,
		runner:  runner,
		stat:    stat,
		readDir: readDir,
	}
}

var _ Converter = (*DoclingConverter)(nil)

// EngineBinary returns the conversion engine executable name, used
// by diagnostics and remediation.
func EngineBinary() string { return "docling" }
