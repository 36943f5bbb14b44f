package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings",
	Long: `Print the effective settings as they would apply to the next
conversion run. The API key is masked.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// runConfig loads and prints settings with secrets masked.
func runConfig(cmd *cobra.Command, args []string) error {
	store, err := settingsStore()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	fmt.Printf("%-24s %s\n", "Input folder:", settings.InputDir)
	fmt.Printf("%-24s %s\n", "Output folder:", settings.OutputDir)
	fmt.Printf("%-24s %t\n", "Create output folder:", settings.CreateOutputFolder)
	fmt.Printf("%-24s %t\n", "OCR:", settings.OCREnabled)
	fmt.Printf("%-24s %s\n", "OCR engine:", settings.OCREngine)
	fmt.Printf("%-24s %s\n", "OCR languages:", strings.Join(settings.OCRLanguages, ","))
	fmt.Printf("%-24s %t (%s)\n", "Table recognition:", settings.TableRecognition, settings.TableMode)
	fmt.Printf("%-24s %t (scale %.1f)\n", "Image extraction:", settings.ImageExtraction, settings.ImageScale)
	fmt.Printf("%-24s %s\n", "Accelerator:", settings.Accelerator)
	fmt.Printf("%-24s %d\n", "CPU threads:", settings.CPUThreads)
	fmt.Printf("%-24s %d MB\n", "Max file size:", settings.MaxFileSizeMB)
	fmt.Printf("%-24s %d\n", "Max pages:", settings.MaxPages)
	fmt.Printf("%-24s %t\n", "Continue on error:", settings.ContinueOnError)
	fmt.Printf("%-24s %t\n", "AI descriptions:", settings.AIDescriptionEnabled)
	if settings.AIDescriptionEnabled {
		fmt.Printf("%-24s %s\n", "AI model:", settings.AIModel)
		fmt.Printf("%-24s %s\n", "AI base URL:", settings.AIBaseURL)
		fmt.Printf("%-24s %s\n", "AI API key:", maskKey(settings.AIAPIKey))
	}
	fmt.Printf("%-24s %s\n", "Language:", settings.Language)
	return nil
}

// maskKey hides all but the last four characters of a secret.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
