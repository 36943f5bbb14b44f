// Command cli is the headless batch interface to the document
// converter. It shares settings with the desktop app.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dockling/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "dockling",
	Short: "Convert documents to Markdown in batch",
	Long: `Dockling converts PDF, Office, and HTML documents to Markdown
using the docling engine. Settings are shared with the desktop app
and stored in ~/.dockling/settings.env.`,
	SilenceUsage: true,
}

// settingsStore returns the store backed by the shared settings file.
func settingsStore() (config.Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	return config.NewEnvFileStore(filepath.Join(homeDir, ".dockling", "settings.env")), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
