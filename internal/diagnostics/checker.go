package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"dockling/internal/convert"
	"dockling/internal/domain"
)

// Checker validates the conversion engine and configured paths
// before a job can start.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all environment checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkEngine(),
		c.checkInputDir(settings.InputDir),
		c.checkOutputDir(settings),
	}
	if settings.OCREnabled && settings.OCREngine == "tesseract" {
		items = append(items, c.checkTesseract())
	}
	if settings.AIDescriptionEnabled {
		items = append(items, checkAPIKey(settings.AIAPIKey))
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkEngine verifies the conversion engine CLI is on PATH.
func (c *Checker) checkEngine() domain.DiagnosticItem {
	name := convert.EngineBinary()
	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "engine",
			Name:    "Conversion engine",
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install the docling CLI (pip install docling) and ensure it is on PATH.",
			Fixable: true,
		}
	}

	return domain.DiagnosticItem{
		ID:      "engine",
		Name:    "Conversion engine",
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkTesseract verifies the optional tesseract backend is present.
func (c *Checker) checkTesseract() domain.DiagnosticItem {
	path, err := c.lookPath("tesseract")
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "ocr_tesseract",
			Name:    "Tesseract OCR",
			Status:  domain.DiagnosticStatusFail,
			Message: "Tesseract is selected as OCR engine but not found in PATH.",
			Hint:    "Install tesseract with its language packs, or switch the OCR engine to EasyOCR.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "ocr_tesseract",
		Name:    "Tesseract OCR",
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkInputDir validates the configured input folder.
func (c *Checker) checkInputDir(inputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "input_dir",
		Name: "Input folder",
	}

	if strings.TrimSpace(inputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Input folder is empty."
		item.Hint = "Choose the folder containing the documents to convert."
		return item
	}

	info, err := c.stat(inputDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Input folder does not exist: %s", inputDir)
		} else {
			item.Message = fmt.Sprintf("Cannot access input folder: %s", inputDir)
		}
		item.Hint = "Create the folder or pick another one in settings."
		item.Fixable = true
		return item
	}
	if !info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Input path is not a folder: %s", inputDir)
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Folder found: %s", inputDir)
	return item
}

// checkOutputDir validates output folder existence and write access.
func (c *Checker) checkOutputDir(settings domain.Settings) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output folder",
	}
	outputDir := settings.OutputDir

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output folder is empty."
		item.Hint = "Set a folder where Markdown files can be written."
		return item
	}

	if _, err := c.stat(outputDir); err != nil && !settings.CreateOutputFolder {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output folder does not exist: %s", outputDir)
		item.Hint = "Create it, or enable automatic output folder creation."
		item.Fixable = true
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output folder: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output folder is not writable: %s", outputDir)
		item.Hint = "Choose a writable folder for Markdown export."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable folder: %s", outputDir)
	return item
}

// checkAPIKey verifies captioning credentials are configured.
func checkAPIKey(apiKey string) domain.DiagnosticItem {
	if strings.TrimSpace(apiKey) == "" {
		return domain.DiagnosticItem{
			ID:      "ai_api_key",
			Name:    "Image description API key",
			Status:  domain.DiagnosticStatusFail,
			Message: "Image descriptions are enabled but no API key is configured.",
			Hint:    "Add your API key in settings or disable image descriptions.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "ai_api_key",
		Name:    "Image description API key",
		Status:  domain.DiagnosticStatusPass,
		Message: "API key is configured.",
	}
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
