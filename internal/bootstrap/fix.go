package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"dockling/internal/convert"
	"dockling/internal/domain"
)

const installCommandTimeout = 15 * time.Minute

// pipCandidates lists installers tried in order when installing the
// conversion engine.
var pipCandidates = [][]string{
	{"pip3", "install", "--upgrade", "docling"},
	{"pip", "install", "--upgrade", "docling"},
	{"python3", "-m", "pip", "install", "--upgrade", "docling"},
	{"python", "-m", "pip", "install", "--upgrade", "docling"},
}

// InstallOrFixDiagnostic applies a remediation for one failed
// diagnostic item and returns the refreshed report.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	var fixErr error
	switch id {
	case "engine":
		fixErr = installEngine(a.installRunner())
	case "input_dir":
		fixErr = createFolder(settings.InputDir)
	case "output_dir":
		fixErr = createFolder(settings.OutputDir)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

// refreshDiagnosticsFromSettings reruns checks and caches the result.
func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// installRunner returns the command executor used for engine
// installation. Tests override runInstall.
func (a *App) installRunner() func(ctx context.Context, name string, args ...string) error {
	if a.runInstall != nil {
		return a.runInstall
	}
	return func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		return cmd.Run()
	}
}

// installEngine tries each available pip invocation until one
// installs the conversion CLI.
func installEngine(run func(ctx context.Context, name string, args ...string) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), installCommandTimeout)
	defer cancel()

	var lastErr error
	for _, candidate := range pipCandidates {
		if _, err := exec.LookPath(candidate[0]); err != nil {
			continue
		}
		if err := run(ctx, candidate[0], candidate[1:]...); err != nil {
			lastErr = fmt.Errorf("%s failed: %w", candidate[0], err)
			continue
		}
		if _, err := exec.LookPath(convert.EngineBinary()); err == nil {
			return nil
		}
		lastErr = fmt.Errorf("%s succeeded but %s is still not in PATH", candidate[0], convert.EngineBinary())
	}

	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("no pip installation found; install Python and the docling package manually")
}

// createFolder makes the configured folder, including parents.
func createFolder(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("folder path is empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}
