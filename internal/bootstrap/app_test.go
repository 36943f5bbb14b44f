package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dockling/internal/config"
	"dockling/internal/convert"
	"dockling/internal/discovery"
	"dockling/internal/domain"
	"dockling/internal/jobs"
)

// fakeStore returns deterministic settings and records saves.
type fakeStore struct {
	settings domain.Settings
	saved    []domain.Settings
}

// Load returns preconfigured settings.
func (s *fakeStore) Load() (domain.Settings, error) {
	return s.settings, nil
}

// Save records the persisted settings.
func (s *fakeStore) Save(settings domain.Settings) error {
	s.settings = settings
	s.saved = append(s.saved, settings)
	return nil
}

// fakeConverter allows injecting custom conversion behavior per test.
type fakeConverter struct {
	convert func(ctx context.Context, candidate domain.CandidateFile, settings domain.Settings) (convert.Result, error)
}

// Convert delegates to the injected function.
func (c *fakeConverter) Convert(ctx context.Context, candidate domain.CandidateFile, settings domain.Settings) (convert.Result, error) {
	if c.convert == nil {
		return convert.Result{OutputPath: candidate.Path + ".md"}, nil
	}
	return c.convert(ctx, candidate, settings)
}

// newAppForTests wires an App around a fake store and fake converter.
func newAppForTests(store *fakeStore, converter *fakeConverter) *App {
	manager := jobs.NewManager()
	bus := jobs.NewBus(100)
	return &App{
		Settings: store.settings,
		Store:    store,
		Manager:  manager,
		Runner:   jobs.NewRunner(manager, bus, converter),
		Bus:      bus,
		Scanner:  discovery.NewScanner(),
	}
}

// testSettings returns valid settings rooted in a temp directory.
func testSettings(t *testing.T) domain.Settings {
	t.Helper()
	settings := config.DefaultSettings()
	settings.InputDir = t.TempDir()
	settings.OutputDir = t.TempDir()
	return settings
}

// writeDocument creates a small file under dir and returns its path.
func writeDocument(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestStartConversionEnforcesSingleRunningJob checks the single-job
// guard across overlapping starts.
func TestStartConversionEnforcesSingleRunningJob(t *testing.T) {
	settings := testSettings(t)
	doc := writeDocument(t, settings.InputDir, "a.pdf")

	release := make(chan struct{})
	converter := &fakeConverter{convert: func(ctx context.Context, candidate domain.CandidateFile, _ domain.Settings) (convert.Result, error) {
		<-release
		return convert.Result{OutputPath: candidate.Path + ".md"}, nil
	}}
	app := newAppForTests(&fakeStore{settings: settings}, converter)

	if _, err := app.StartConversion(ModeFiles, []string{doc}); err != nil {
		t.Fatalf("start first job: %v", err)
	}
	if _, err := app.StartConversion(ModeFiles, []string{doc}); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, jobs.ErrJobAlreadyRunning)
	}

	close(release)
	waitForState(t, app, domain.JobStateCompleted)
}

// TestStartConversionFolderModePublishesLifecycleEvents checks the
// event flow of a successful folder scan run.
func TestStartConversionFolderModePublishesLifecycleEvents(t *testing.T) {
	settings := testSettings(t)
	writeDocument(t, settings.InputDir, "a.pdf")
	writeDocument(t, settings.InputDir, "b.docx")

	app := newAppForTests(&fakeStore{settings: settings}, &fakeConverter{})

	job, err := app.StartConversion(ModeFolder, nil)
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	if len(job.Files) != 2 {
		t.Fatalf("job files = %d, want 2", len(job.Files))
	}

	waitForState(t, app, domain.JobStateCompleted)

	totals := app.CurrentTotals()
	if totals.Success != 2 {
		t.Fatalf("success = %d, want 2", totals.Success)
	}

	events := app.JobEvents(0)
	assertEventTypeExists(t, events, jobs.EventTypeFileStarted)
	assertEventTypeExists(t, events, jobs.EventTypeFileFinished)
	assertEventTypeExists(t, events, jobs.EventTypeJobFinished)
	assertEventTypeExists(t, events, jobs.EventTypeLog)
}

// TestStartConversionRejectsEmptySelection checks the no-files guard.
func TestStartConversionRejectsEmptySelection(t *testing.T) {
	settings := testSettings(t)
	app := newAppForTests(&fakeStore{settings: settings}, &fakeConverter{})

	if _, err := app.StartConversion(ModeFolder, nil); err == nil {
		t.Fatal("expected error for empty input folder")
	}
	if _, err := app.StartConversion("bogus", nil); err == nil {
		t.Fatal("expected error for unknown selection mode")
	}
}

// TestRequestStopFinishesCurrentFileThenStops checks cooperative stop
// through the bound surface.
func TestRequestStopFinishesCurrentFileThenStops(t *testing.T) {
	settings := testSettings(t)
	docA := writeDocument(t, settings.InputDir, "a.pdf")
	docB := writeDocument(t, settings.InputDir, "b.pdf")

	started := make(chan struct{})
	release := make(chan struct{})
	converter := &fakeConverter{convert: func(ctx context.Context, candidate domain.CandidateFile, _ domain.Settings) (convert.Result, error) {
		close(started)
		<-release
		return convert.Result{OutputPath: candidate.Path + ".md"}, nil
	}}
	app := newAppForTests(&fakeStore{settings: settings}, converter)

	if _, err := app.StartConversion(ModeFiles, []string{docA, docB}); err != nil {
		t.Fatalf("start job: %v", err)
	}

	<-started
	app.RequestStop()
	close(release)
	waitForState(t, app, domain.JobStateCompleted)

	totals := app.CurrentTotals()
	if totals.Success != 1 || totals.Skipped != 1 {
		t.Fatalf("totals = %+v, want 1 success and 1 skipped", totals)
	}
}

// TestRequestStopIsNoOpWhenIdle checks stop before any job starts.
func TestRequestStopIsNoOpWhenIdle(t *testing.T) {
	app := newAppForTests(&fakeStore{settings: testSettings(t)}, &fakeConverter{})

	app.RequestStop()
	if got := app.CurrentJob().State; got != domain.JobStateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
	if events := app.JobEvents(0); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

// TestSaveSettingsRejectsInvalidValues checks validation at save time.
func TestSaveSettingsRejectsInvalidValues(t *testing.T) {
	store := &fakeStore{settings: testSettings(t)}
	app := newAppForTests(store, &fakeConverter{})

	bad := store.settings
	bad.OCREngine = "sorcery"
	if _, err := app.SaveSettings(bad); err == nil {
		t.Fatal("expected validation error")
	}
	if len(store.saved) != 0 {
		t.Fatal("invalid settings must not be persisted")
	}
}

// TestSetLanguagePersistsSupportedChoice checks language switching.
func TestSetLanguagePersistsSupportedChoice(t *testing.T) {
	store := &fakeStore{settings: testSettings(t)}
	app := newAppForTests(store, &fakeConverter{})

	if err := app.SetLanguage("tlh"); err == nil {
		t.Fatal("expected error for unsupported language")
	}
	if err := app.SetLanguage("ru"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if store.settings.Language != "ru" {
		t.Fatalf("persisted language = %q, want ru", store.settings.Language)
	}
}

// TestInstallOrFixDiagnosticCreatesMissingFolders checks folder
// remediation.
func TestInstallOrFixDiagnosticCreatesMissingFolders(t *testing.T) {
	settings := testSettings(t)
	settings.InputDir = filepath.Join(t.TempDir(), "missing", "in")
	app := newAppForTests(&fakeStore{settings: settings}, &fakeConverter{})

	if _, err := app.InstallOrFixDiagnostic("input_dir"); err != nil {
		t.Fatalf("fix input_dir: %v", err)
	}
	if info, err := os.Stat(settings.InputDir); err != nil || !info.IsDir() {
		t.Fatalf("expected input folder to exist, stat err = %v", err)
	}

	if _, err := app.InstallOrFixDiagnostic("bogus"); err == nil {
		t.Fatal("expected error for unknown diagnostic id")
	}
}

// waitForState polls until the job reaches the wanted state or times
// out.
func waitForState(t *testing.T, app *App, want domain.JobState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.CurrentJob().State == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", app.CurrentJob().State, want)
}

// assertEventTypeExists verifies at least one event of the given type
// exists.
func assertEventTypeExists(t *testing.T, events []jobs.Event, want jobs.EventType) {
	t.Helper()
	for _, event := range events {
		if event.Type == want {
			return
		}
	}
	t.Fatalf("event type %s not found", want)
}
