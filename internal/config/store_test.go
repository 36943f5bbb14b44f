package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dockling/internal/domain"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.OCREngine != "easyocr" {
		t.Fatalf("ocr engine = %q, want easyocr", cfg.OCREngine)
	}
	if !cfg.ContinueOnError {
		t.Fatal("expected continue-on-error enabled by default")
	}
	if cfg.MaxFileSizeMB != 50 {
		t.Fatalf("max file size = %d, want 50", cfg.MaxFileSizeMB)
	}
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		t.Fatal("expected non-empty input and output dirs")
	}
}

// TestEnvFileStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestEnvFileStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.env")
	store := NewEnvFileStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.OCREngine != "easyocr" {
		t.Fatalf("ocr engine = %q, want easyocr", got.OCREngine)
	}
}

// TestEnvFileStoreSaveAndLoadRoundTrip checks persisted settings fidelity,
// including zero values for the unlimited fields.
func TestEnvFileStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.env")
	store := NewEnvFileStore(path)
	want := domain.Settings{
		InputDir:           "/docs/in",
		OutputDir:          "/docs/out",
		CreateOutputFolder: true,
		OCREnabled:         true,
		OCREngine:          "tesseract",
		OCRLanguages:       []string{"eng", "deu"},
		TableRecognition:   false,
		TableMode:          "fast",
		ImageExtraction:    true,
		ImageScale:         1.5,
		Accelerator:        "cpu",
		CPUThreads:         0,
		MaxFileSizeMB:      0,
		MaxPages:           0,
		ContinueOnError:    false,

		AIDescriptionEnabled: true,
		AIAPIKey:             "sk-test",
		AIBaseURL:            "https://api.example.com/v1",
		AIModel:              "gpt-4o-mini",
		AIMaxTokens:          400,
		AITimeoutSec:         90,
		AITemperature:        0.2,
		AISeed:               42,
		AIPrompt:             "Describe this image.",

		Language: "ru",
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestEnvFileStoreIgnoresUnknownKeysAndComments checks tolerant parsing.
func TestEnvFileStoreIgnoresUnknownKeysAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.env")
	content := "# conversion settings\n" +
		"SOME_FUTURE_KEY=whatever\n" +
		"\n" +
		"ENABLE_OCR=false\n" +
		"not a key value line\n" +
		"MAX_NUM_PAGES=12\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewEnvFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.OCREnabled {
		t.Fatal("expected OCR disabled")
	}
	if got.MaxPages != 12 {
		t.Fatalf("max pages = %d, want 12", got.MaxPages)
	}
	// Untouched keys keep their defaults.
	if got.TableMode != "accurate" {
		t.Fatalf("table mode = %q, want accurate", got.TableMode)
	}
}

// TestEnvFileStoreMalformedValuesKeepDefaults checks bad numbers are skipped.
func TestEnvFileStoreMalformedValuesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.env")
	content := "IMAGES_SCALE=lots\nACCELERATOR_NUM_THREADS=many\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewEnvFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ImageScale != 2.0 {
		t.Fatalf("image scale = %v, want default 2.0", got.ImageScale)
	}
	if got.CPUThreads != 0 {
		t.Fatalf("cpu threads = %d, want default 0", got.CPUThreads)
	}
}

// TestValidateRejectsBadEnumsAndNegatives checks field validation rules.
func TestValidateRejectsBadEnumsAndNegatives(t *testing.T) {
	cfg := DefaultSettings()
	cfg.OCREngine = "abbyy"
	cfg.TableMode = "turbo"
	cfg.Accelerator = "tpu"
	cfg.MaxPages = -1
	cfg.ImageScale = 0

	errs := Validate(cfg)
	if len(errs) != 5 {
		t.Fatalf("error count = %d (%v), want 5", len(errs), errs)
	}
}

// TestValidateRequiresAPIKeyForDescriptions checks the AI gating rule.
func TestValidateRequiresAPIKeyForDescriptions(t *testing.T) {
	cfg := DefaultSettings()
	cfg.AIDescriptionEnabled = true
	cfg.AIAPIKey = "   "

	errs := Validate(cfg)
	if len(errs) != 1 {
		t.Fatalf("error count = %d (%v), want 1", len(errs), errs)
	}

	cfg.AIAPIKey = "sk-live"
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}
