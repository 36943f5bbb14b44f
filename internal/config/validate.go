package config

import (
	"fmt"
	"strings"

	"dockling/internal/domain"
)

var (
	validOCREngines   = map[string]bool{"easyocr": true, "tesseract": true}
	validTableModes   = map[string]bool{"accurate": true, "fast": true}
	validAccelerators = map[string]bool{"auto": true, "cpu": true, "cuda": true, "gpu": true, "mps": true}
)

// Validate checks a settings snapshot before a job may start.
// It returns every problem found, not just the first one.
func Validate(cfg domain.Settings) []string {
	var errs []string

	if !validOCREngines[cfg.OCREngine] {
		errs = append(errs, fmt.Sprintf("invalid OCR engine %q, must be easyocr or tesseract", cfg.OCREngine))
	}
	if !validTableModes[cfg.TableMode] {
		errs = append(errs, fmt.Sprintf("invalid table mode %q, must be accurate or fast", cfg.TableMode))
	}
	if !validAccelerators[cfg.Accelerator] {
		errs = append(errs, fmt.Sprintf("invalid accelerator %q, must be one of auto, cpu, cuda, gpu, mps", cfg.Accelerator))
	}
	if cfg.OCREnabled && len(cfg.OCRLanguages) == 0 {
		errs = append(errs, "OCR is enabled but no languages are configured")
	}
	if cfg.ImageScale <= 0 {
		errs = append(errs, "image scale must be greater than 0")
	}
	if cfg.CPUThreads < 0 {
		errs = append(errs, "CPU thread count cannot be negative")
	}
	if cfg.MaxFileSizeMB < 0 {
		errs = append(errs, "max file size cannot be negative")
	}
	if cfg.MaxPages < 0 {
		errs = append(errs, "max pages cannot be negative")
	}
	if cfg.AIDescriptionEnabled {
		if strings.TrimSpace(cfg.AIAPIKey) == "" {
			errs = append(errs, "API key is required when image descriptions are enabled")
		}
		if strings.TrimSpace(cfg.AIBaseURL) == "" {
			errs = append(errs, "API base URL is required when image descriptions are enabled")
		}
		if cfg.AIMaxTokens <= 0 {
			errs = append(errs, "AI max tokens must be greater than 0")
		}
		if cfg.AITimeoutSec <= 0 {
			errs = append(errs, "AI timeout must be greater than 0")
		}
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		errs = append(errs, "output directory is not set")
	}

	return errs
}
