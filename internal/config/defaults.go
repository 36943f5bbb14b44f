package config

import (
	"os"
	"path/filepath"

	"dockling/internal/domain"
)

// DefaultSettings returns baseline configuration for first launch.
// Limits default to 50 MB per file and unlimited pages; AI image
// descriptions stay off until the user supplies an API key.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		InputDir:           filepath.Join(homeDir, "Documents", "Dockling", "input"),
		OutputDir:          filepath.Join(homeDir, "Documents", "Dockling", "output"),
		CreateOutputFolder: true,
		OCREnabled:         true,
		OCREngine:          "easyocr",
		OCRLanguages:       []string{"eng"},
		TableRecognition:   true,
		TableMode:          "accurate",
		ImageExtraction:    true,
		ImageScale:         2.0,
		Accelerator:        "auto",
		CPUThreads:         0,
		MaxFileSizeMB:      50,
		MaxPages:           0,
		ContinueOnError:    true,

		AIDescriptionEnabled: false,
		AIBaseURL:            "https://api.openai.com/v1",
		AIModel:              "gpt-4o-mini",
		AIMaxTokens:          400,
		AITimeoutSec:         90,
		AITemperature:        0.2,
		AISeed:               42,
		AIPrompt:             "Describe this image in three to five sentences. Be precise and concise.",

		Language: "en",
	}
}
