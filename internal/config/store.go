package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"dockling/internal/domain"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// EnvFileStore persists settings in a flat key=value text file.
// Unknown keys are ignored on load; missing keys fall back to
// defaults; Save fully overwrites the file with every known key.
type EnvFileStore struct {
	path string
}

// NewEnvFileStore creates a key=value file backed settings store.
func NewEnvFileStore(path string) *EnvFileStore {
	return &EnvFileStore{path: path}
}

// Load reads settings from disk or returns defaults when missing.
func (s *EnvFileStore) Load() (domain.Settings, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return domain.Settings{}, err
	}
	defer file.Close()

	cfg := DefaultSettings()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		applyKey(&cfg, strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return domain.Settings{}, err
	}

	return cfg, nil
}

// Save writes every known key and creates parent directories.
func (s *EnvFileStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	pairs := settingsToPairs(cfg)
	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%s\n", key, pairs[key])
	}

	return os.WriteFile(s.path, []byte(b.String()), 0o644)
}

// applyKey sets one recognized settings field from its text value.
// Malformed values keep the current (default) field value.
func applyKey(cfg *domain.Settings, key, value string) {
	switch key {
	case "INPUT_DIR":
		cfg.InputDir = value
	case "OUTPUT_DIR":
		cfg.OutputDir = value
	case "CREATE_OUTPUT_FOLDER":
		setBool(&cfg.CreateOutputFolder, value)
	case "ENABLE_OCR":
		setBool(&cfg.OCREnabled, value)
	case "OCR_ENGINE":
		cfg.OCREngine = strings.ToLower(value)
	case "OCR_LANGUAGES":
		cfg.OCRLanguages = splitLanguages(value)
	case "ENABLE_TABLE_STRUCTURE":
		setBool(&cfg.TableRecognition, value)
	case "TABLE_STRUCTURE_MODE":
		cfg.TableMode = strings.ToLower(value)
	case "GENERATE_PICTURE_IMAGES":
		setBool(&cfg.ImageExtraction, value)
	case "IMAGES_SCALE":
		setFloat(&cfg.ImageScale, value)
	case "ACCELERATOR_DEVICE":
		cfg.Accelerator = strings.ToLower(value)
	case "ACCELERATOR_NUM_THREADS":
		setInt(&cfg.CPUThreads, value)
	case "MAX_FILE_SIZE_MB":
		setInt(&cfg.MaxFileSizeMB, value)
	case "MAX_NUM_PAGES":
		setInt(&cfg.MaxPages, value)
	case "CONTINUE_ON_ERROR":
		setBool(&cfg.ContinueOnError, value)
	case "ENABLE_PICTURE_DESCRIPTION":
		setBool(&cfg.AIDescriptionEnabled, value)
	case "OPENAI_API_KEY":
		cfg.AIAPIKey = value
	case "OPENAI_BASE_URL":
		cfg.AIBaseURL = value
	case "OPENAI_MODEL_NAME":
		cfg.AIModel = value
	case "OPENAI_MAX_TOKENS":
		setInt(&cfg.AIMaxTokens, value)
	case "OPENAI_TIMEOUT":
		setInt(&cfg.AITimeoutSec, value)
	case "OPENAI_TEMPERATURE":
		setFloat(&cfg.AITemperature, value)
	case "OPENAI_SEED":
		setInt(&cfg.AISeed, value)
	case "PICTURE_DESCRIPTION_PROMPT":
		cfg.AIPrompt = value
	case "UI_LANGUAGE":
		cfg.Language = strings.ToLower(value)
	}
}

// settingsToPairs maps every settings field to its file key and text value.
func settingsToPairs(cfg domain.Settings) map[string]string {
	return map[string]string{
		"INPUT_DIR":                  cfg.InputDir,
		"OUTPUT_DIR":                 cfg.OutputDir,
		"CREATE_OUTPUT_FOLDER":       formatBool(cfg.CreateOutputFolder),
		"ENABLE_OCR":                 formatBool(cfg.OCREnabled),
		"OCR_ENGINE":                 cfg.OCREngine,
		"OCR_LANGUAGES":              strings.Join(cfg.OCRLanguages, ","),
		"ENABLE_TABLE_STRUCTURE":     formatBool(cfg.TableRecognition),
		"TABLE_STRUCTURE_MODE":       cfg.TableMode,
		"GENERATE_PICTURE_IMAGES":    formatBool(cfg.ImageExtraction),
		"IMAGES_SCALE":               strconv.FormatFloat(cfg.ImageScale, 'f', -1, 64),
		"ACCELERATOR_DEVICE":         cfg.Accelerator,
		"ACCELERATOR_NUM_THREADS":    strconv.Itoa(cfg.CPUThreads),
		"MAX_FILE_SIZE_MB":           strconv.Itoa(cfg.MaxFileSizeMB),
		"MAX_NUM_PAGES":              strconv.Itoa(cfg.MaxPages),
		"CONTINUE_ON_ERROR":          formatBool(cfg.ContinueOnError),
		"ENABLE_PICTURE_DESCRIPTION": formatBool(cfg.AIDescriptionEnabled),
		"OPENAI_API_KEY":             cfg.AIAPIKey,
		"OPENAI_BASE_URL":            cfg.AIBaseURL,
		"OPENAI_MODEL_NAME":          cfg.AIModel,
		"OPENAI_MAX_TOKENS":          strconv.Itoa(cfg.AIMaxTokens),
		"OPENAI_TIMEOUT":             strconv.Itoa(cfg.AITimeoutSec),
		"OPENAI_TEMPERATURE":         strconv.FormatFloat(cfg.AITemperature, 'f', -1, 64),
		"OPENAI_SEED":                strconv.Itoa(cfg.AISeed),
		"PICTURE_DESCRIPTION_PROMPT": cfg.AIPrompt,
		"UI_LANGUAGE":                cfg.Language,
	}
}

// splitLanguages parses a comma separated language list.
func splitLanguages(value string) []string {
	parts := strings.Split(value, ",")
	langs := make([]string, 0, len(parts))
	for _, part := range parts {
		if lang := strings.TrimSpace(part); lang != "" {
			langs = append(langs, strings.ToLower(lang))
		}
	}
	return langs
}

func setBool(dst *bool, value string) {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	}
}

func setInt(dst *int, value string) {
	if n, err := strconv.Atoi(value); err == nil {
		*dst = n
	}
}

func setFloat(dst *float64, value string) {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		*dst = f
	}
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
