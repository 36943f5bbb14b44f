package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dockling/internal/config"
	"dockling/internal/convert"
	"dockling/internal/discovery"
	"dockling/internal/domain"
	"dockling/internal/i18n"
	"dockling/internal/jobs"
	"dockling/internal/logsink"
)

var (
	inputDir        string
	outputDir       string
	continueOnError bool
	noContinue      bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert a folder or the given files to Markdown",
	Long: `Convert runs a full batch headless. Without arguments it scans the
configured input folder; with arguments it converts exactly the given
files. The run can be stopped with Ctrl-C, which finishes the current
file first.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&inputDir, "input", "i", "", "input folder (overrides settings)")
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output folder (overrides settings)")
	convertCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep going after failures")
	convertCmd.Flags().BoolVar(&noContinue, "no-continue-on-error", false, "abort on the first failure")
	rootCmd.AddCommand(convertCmd)
}

// runConvert executes one batch job and prints per-file progress and
// the final summary.
func runConvert(cmd *cobra.Command, args []string) error {
	store, err := settingsStore()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if inputDir != "" {
		settings.InputDir = inputDir
	}
	if outputDir != "" {
		settings.OutputDir = outputDir
	}
	if continueOnError {
		settings.ContinueOnError = true
	}
	if noContinue {
		settings.ContinueOnError = false
	}
	if problems := config.Validate(settings); len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}

	scanner := discovery.NewScanner()
	if err := scanner.EnsureOutputDir(settings); err != nil {
		return err
	}

	var files []domain.CandidateFile
	if len(args) > 0 {
		files = scanner.ResolveFiles(args, settings)
	} else {
		files, err = scanner.ResolveFolder(settings.InputDir, settings)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("%s", i18n.T(settings.Language, "msg_no_files"))
	}

	manager := jobs.NewManager()
	bus := jobs.NewBus(1000)
	runner := jobs.NewRunner(manager, bus, convert.NewDoclingConverter())

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve user home: %w", err)
	}
	sink, err := logsink.New(filepath.Join(homeDir, ".dockling", "conversion.log"), func(err error) {
		fmt.Fprintf(os.Stderr, "conversion log disabled: %v\n", err)
	})
	if err != nil {
		return fmt.Errorf("open conversion log: %w", err)
	}
	defer sink.Close()

	sinkEvents, cancelSink := bus.Subscribe()
	go sink.Consume(sinkEvents)
	defer cancelSink()

	printEvents, cancelPrint := bus.Subscribe()
	var printer sync.WaitGroup
	printer.Add(1)
	go func() {
		defer printer.Done()
		printProgress(printEvents, cancelPrint)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	go func() {
		<-stop
		fmt.Println(i18n.T(settings.Language, "msg_stop_requested"))
		manager.RequestStop()
	}()

	fmt.Println(i18n.Tf(settings.Language, "msg_starting_conversion", map[string]any{
		"count": len(files),
	}))
	if _, err := runner.Start(uuid.NewString(), files, settings); err != nil {
		return err
	}
	job := runner.Run(context.Background())
	printer.Wait()

	printSummary(settings.Language, job)
	if job.Totals.Failed > 0 || job.State == domain.JobStateAborted {
		return fmt.Errorf("%d files failed", job.Totals.Failed)
	}
	return nil
}

// printProgress renders bus events as console lines until the job
// finishes.
func printProgress(events <-chan jobs.Event, cancel func()) {
	for event := range events {
		switch event.Type {
		case jobs.EventTypeFileStarted:
			fmt.Printf("[%d/%d] %s\n", event.Index, event.Total, event.Path)
		case jobs.EventTypeFileFinished:
			fmt.Printf("  %s %s\n", statusSymbol(event.Status), finishedDetail(event))
		case jobs.EventTypeLog:
			fmt.Printf("  %s\n", event.Message)
		case jobs.EventTypeJobFinished:
			cancel()
		}
	}
}

// finishedDetail formats the outcome line for one finished file.
func finishedDetail(event jobs.Event) string {
	switch event.Status {
	case domain.FileStatusSuccess:
		return fmt.Sprintf("%s (%.1fs)", event.OutPath, event.Duration.Seconds())
	case domain.FileStatusPartial:
		return fmt.Sprintf("%s: %s", event.OutPath, event.Detail)
	default:
		return fmt.Sprintf("%s: %s", filepath.Base(event.Path), event.Detail)
	}
}

// statusSymbol maps a file status to the summary glyph.
func statusSymbol(status domain.FileStatus) string {
	switch status {
	case domain.FileStatusSuccess:
		return "✓"
	case domain.FileStatusPartial:
		return "⚠"
	case domain.FileStatusFailed:
		return "✗"
	case domain.FileStatusSkipped:
		return "⊝"
	default:
		return "?"
	}
}

// printSummary prints the final per-status counters.
func printSummary(lang string, job domain.Job) {
	fmt.Println()
	fmt.Println(i18n.Tf(lang, "msg_conversion_summary", map[string]any{
		"total":   job.Totals.Processed(),
		"success": job.Totals.Success,
		"partial": job.Totals.Partial,
		"failed":  job.Totals.Failed,
		"skipped": job.Totals.Skipped,
	}))
}
