package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"dockling/internal/config"
	"dockling/internal/convert"
	"dockling/internal/diagnostics"
	"dockling/internal/discovery"
	"dockling/internal/domain"
	"dockling/internal/i18n"
	"dockling/internal/jobs"
	"dockling/internal/logsink"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var documentDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "All supported documents",
		Pattern:     "*.pdf;*.docx;*.doc;*.pptx;*.ppt;*.xlsx;*.xls;*.html;*.htm;*.xml;*.md;*.asciidoc;*.adoc",
	},
	{
		DisplayName: "PDF documents",
		Pattern:     "*.pdf",
	},
	{
		DisplayName: "Word documents",
		Pattern:     "*.docx;*.doc",
	},
	{
		DisplayName: "PowerPoint presentations",
		Pattern:     "*.pptx;*.ppt",
	},
	{
		DisplayName: "Excel spreadsheets",
		Pattern:     "*.xlsx;*.xls",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// Selection modes accepted by StartConversion.
const (
	ModeFolder = "folder"
	ModeFiles  = "files"
)

// App wires configuration, discovery, the job runner, and UI runtime
// callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Manager     *jobs.Manager
	Runner      *jobs.Runner
	Bus         *jobs.Bus
	Scanner     *discovery.Scanner
	Diagnostics domain.DiagnosticReport

	assets  fs.FS
	checker *diagnostics.Checker
	sink    *logsink.Sink

	// runInstall overrides the engine install executor in tests.
	runInstall func(ctx context.Context, name string, args ...string) error

	mu          sync.Mutex
	activeJobID string
	cancelSink  func()
	cancelEmit  func()
	runtimeCtx  context.Context
}

// New builds the application with persisted settings and startup
// diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures
// embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	stateDir := filepath.Join(homeDir, ".dockling")
	store := config.NewEnvFileStore(filepath.Join(stateDir, "settings.env"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	manager := jobs.NewManager()
	bus := jobs.NewBus(1000)
	runner := jobs.NewRunner(manager, bus, convert.NewDoclingConverter())

	app := &App{
		Settings:    settings,
		Store:       store,
		Manager:     manager,
		Runner:      runner,
		Bus:         bus,
		Scanner:     discovery.NewScanner(),
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
	}

	sink, err := logsink.New(filepath.Join(stateDir, "conversion.log"), app.reportSinkDegraded)
	if err != nil {
		return nil, fmt.Errorf("open conversion log: %w", err)
	}
	app.sink = sink

	sinkEvents, cancelSink := bus.Subscribe()
	go sink.Consume(sinkEvents)
	app.cancelSink = cancelSink

	emitEvents, cancelEmit := bus.Subscribe()
	go app.mirrorToRuntime(emitEvents)
	app.cancelEmit = cancelEmit

	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Dockling",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			a.runtimeCtx = nil
			a.mu.Unlock()
			a.Close()
		},
		Bind: []interface{}{a},
	})
}

// Startup stores the Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Close releases bus subscriptions and the durable log file.
func (a *App) Close() {
	if a.cancelSink != nil {
		a.cancelSink()
	}
	if a.cancelEmit != nil {
		a.cancelEmit()
	}
	if a.sink != nil {
		_ = a.sink.Close()
	}
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings validates and persists settings, then refreshes
// diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if problems := config.Validate(normalized); len(problems) > 0 {
		return domain.Settings{}, fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// SetLanguage switches the UI language and persists the choice.
func (a *App) SetLanguage(lang string) error {
	if !i18n.Supported(lang) {
		return fmt.Errorf("unsupported language: %s", lang)
	}

	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()

	settings.Language = lang
	if err := a.Store.Save(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()
	return nil
}

// PickInputFolder opens a native directory picker for source documents.
func (a *App) PickInputFolder() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select input folder",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickFiles opens a native multi-file dialog for document selection.
func (a *App) PickFiles() ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select documents",
		Filters: documentDialogFilter,
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

// PickOutputFolder opens a native directory picker for Markdown export.
func (a *App) PickOutputFolder() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output folder",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// StartConversion resolves the requested selection into candidate
// files and runs a job asynchronously. Mode is "folder" to scan the
// configured input folder, or "files" to convert the given paths.
func (a *App) StartConversion(mode string, paths []string) (domain.Job, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Job{}, fmt.Errorf("load settings: %w", err)
	}
	if problems := config.Validate(settings); len(problems) > 0 {
		return domain.Job{}, fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}

	if err := a.Scanner.EnsureOutputDir(settings); err != nil {
		return domain.Job{}, err
	}

	var files []domain.CandidateFile
	switch mode {
	case ModeFolder:
		files, err = a.Scanner.ResolveFolder(settings.InputDir, settings)
		if err != nil {
			return domain.Job{}, err
		}
	case ModeFiles:
		files = a.Scanner.ResolveFiles(paths, settings)
	default:
		return domain.Job{}, fmt.Errorf("unknown selection mode: %s", mode)
	}
	if len(files) == 0 {
		return domain.Job{}, fmt.Errorf("%s", i18n.T(settings.Language, "msg_no_files"))
	}

	jobID := uuid.NewString()
	job, err := a.Runner.Start(jobID, files, settings)
	if err != nil {
		return domain.Job{}, err
	}

	a.mu.Lock()
	a.activeJobID = jobID
	a.Settings = settings
	a.mu.Unlock()

	a.publishLog(jobID, "INFO", i18n.Tf(settings.Language, "msg_starting_conversion", map[string]any{
		"count": len(files),
	}))

	go a.Runner.Run(context.Background())
	return job, nil
}

// RequestStop asks the running job to stop after the current file.
// It is a no-op when no job is active.
func (a *App) RequestStop() {
	if !a.Manager.IsActive() {
		return
	}
	a.Manager.RequestStop()

	a.mu.Lock()
	jobID := a.activeJobID
	lang := a.Settings.Language
	a.mu.Unlock()

	a.publishLog(jobID, "INFO", i18n.T(lang, "msg_stop_requested"))
}

// CurrentJob returns the current job snapshot.
func (a *App) CurrentJob() domain.Job {
	return a.Manager.Snapshot()
}

// CurrentTotals returns the running per-status counters.
func (a *App) CurrentTotals() domain.Totals {
	return a.Manager.Totals()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.Bus.Since(sinceSeq)
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns environment checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	report := a.checker.Run(settings)

	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = report
	a.mu.Unlock()

	return report, nil
}

// GetLanguages returns the available UI language codes.
func (a *App) GetLanguages() []string {
	return i18n.Languages()
}

// OpenOutputFolder opens the given path (or the configured output
// folder) in the platform file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// mirrorToRuntime forwards bus events to the frontend as push events.
func (a *App) mirrorToRuntime(events <-chan jobs.Event) {
	for event := range events {
		a.mu.Lock()
		ctx := a.runtimeCtx
		a.mu.Unlock()
		if ctx != nil {
			wailsruntime.EventsEmit(ctx, "job:event", event)
		}
	}
}

// publishLog emits a log event on the bus.
func (a *App) publishLog(jobID, level, message string) {
	a.Bus.Publish(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeLog,
		Level:   level,
		Message: message,
	})
}

// reportSinkDegraded surfaces a log file write failure to observers.
func (a *App) reportSinkDegraded(err error) {
	a.mu.Lock()
	jobID := a.activeJobID
	a.mu.Unlock()
	a.publishLog(jobID, "WARN", fmt.Sprintf("conversion log disabled: %v", err))
}

// runtimeContext returns the Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user-entered paths and applies the default
// language when empty.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.InputDir = strings.TrimSpace(settings.InputDir)
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.OCREngine = strings.TrimSpace(settings.OCREngine)
	settings.AIAPIKey = strings.TrimSpace(settings.AIAPIKey)
	settings.AIBaseURL = strings.TrimSpace(settings.AIBaseURL)
	if settings.Language == "" {
		settings.Language = i18n.DefaultLanguage
	}
	return settings
}

// openInFileManager launches the platform file explorer for path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
