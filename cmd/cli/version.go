package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information variables, set at build time via -ldflags.
var (
	version   = "dev"
	gitCommit = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dockling %s (%s)\n", version, gitCommit)
		fmt.Printf("go %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
