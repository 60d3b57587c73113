package bootstrap

import (
	"context"
	"errors"
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

	"remote-transcriber/internal/config"
	"remote-transcriber/internal/diagnostics"
	"remote-transcriber/internal/dispatch"
	"remote-transcriber/internal/domain"
	"remote-transcriber/internal/jobs"
	"remote-transcriber/internal/remote"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var identityDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "SSH keys",
		Pattern:     "id_*;*.pem;*.key",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, jobs, the run driver, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	newDriver   driverFactory

	mu          sync.Mutex
	inputDir    string
	activeJobID string
	cancel      context.CancelFunc
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// runDriver isolates the orchestration driver behind an interface.
type runDriver interface {
	Run(ctx context.Context, req dispatch.RunRequest) dispatch.Outcome
}

// driverFactory builds a driver for one job so that stage and log callbacks
// can carry the job ID.
type driverFactory func(endpoint remote.Endpoint, cfg dispatch.DriverConfig, onLog func(remote.CommandLog)) runDriver

func defaultDriverFactory(endpoint remote.Endpoint, cfg dispatch.DriverConfig, onLog func(remote.CommandLog)) runDriver {
	return dispatch.NewDriver(remote.NewExecChannel(endpoint, onLog), cfg)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	settingsPath, err := config.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	store := config.NewJSONStore(settingsPath)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings, "")

	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		newDriver:   defaultDriverFactory,
		events:      jobs.NewEventBus(1000),
	}, nil
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
		Title:       "Remote Transcriber",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
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

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized, a.inputDir)
	}
	a.mu.Unlock()

	return normalized, nil
}

// PickInputDirectory opens a native directory picker for the WAV/JSON pair.
func (a *App) PickInputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select input directory",
	})
	if err != nil {
		return "", err
	}

	path = strings.TrimSpace(path)
	if path != "" {
		a.mu.Lock()
		a.inputDir = path
		a.mu.Unlock()
	}
	return path, nil
}

// PickIdentityFile opens a native file dialog for SSH key selection.
func (a *App) PickIdentityFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select SSH identity file",
		Filters: identityDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenArtifactFolder opens the given path (or the last artifact dir) in the file manager.
func (a *App) OpenArtifactFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.Jobs.Current().ArtifactDir
	}
	if target == "" {
		return fmt.Errorf("artifact path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve artifact path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	return a.refreshDiagnosticsFromSettings(settings), nil
}

// StartRemoteRun creates a job for the input directory and runs it asynchronously.
func (a *App) StartRemoteRun(inputDir string) (domain.Job, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Job{}, fmt.Errorf("load settings: %w", err)
	}

	jobID := uuid.NewString()
	if err := a.Jobs.Start(jobID); err != nil {
		return domain.Job{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.inputDir = strings.TrimSpace(inputDir)
	a.activeJobID = jobID
	a.cancel = cancel
	a.Settings = settings
	a.mu.Unlock()

	a.publishStatus(jobID, domain.JobStatusLaunching, "Run started")

	go a.runRemoteJob(ctx, jobID, strings.TrimSpace(inputDir), settings)
	return a.Jobs.Current(), nil
}

// CancelRemoteRun cancels the currently running job, if any. The remote
// process is not killed; only the local wait stops.
func (a *App) CancelRemoteRun() error {
	a.mu.Lock()
	cancel := a.cancel
	activeJobID := a.activeJobID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningJob
	}

	cancel()
	if err := a.Jobs.Cancel(); err != nil && !errors.Is(err, jobs.ErrNoRunningJob) {
		return err
	}

	if activeJobID != "" {
		a.publishStatus(activeJobID, domain.JobStatusCancelled, "Cancellation requested")
	}
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// runRemoteJob executes the driver and maps outcomes to job events.
func (a *App) runRemoteJob(ctx context.Context, jobID, inputDir string, settings domain.Settings) {
	endpoint := remote.Endpoint{
		Host:         settings.Host,
		Port:         settings.Port,
		IdentityFile: settings.IdentityFile,
	}
	cfg := dispatch.DriverConfig{
		PollInterval: dispatch.DefaultPollInterval,
		InitialDelay: dispatch.DefaultInitialDelay,
		KeepRemote:   settings.KeepRemote,
		OnStage: func(stage string) {
			status, ok := mapStageToStatus(stage)
			if !ok {
				return
			}
			if err := a.Jobs.Transition(status); err == nil {
				a.publishStatus(jobID, status, "Running "+stage+" stage")
			}
		},
		OnStatus: func(line string) {
			a.publishEvent(jobs.Event{
				JobID:   jobID,
				Type:    jobs.EventTypeProgress,
				Message: line,
			})
		},
		OnAttempt: func(attempt, maxAttempts int) {
			a.publishEvent(jobs.Event{
				JobID:       jobID,
				Type:        jobs.EventTypeProgress,
				Message:     fmt.Sprintf("Retrieval attempt %d/%d", attempt, maxAttempts),
				Attempt:     attempt,
				MaxAttempts: maxAttempts,
			})
		},
	}
	onLog := func(log remote.CommandLog) {
		a.publishEvent(jobs.Event{
			JobID:    jobID,
			Type:     jobs.EventTypeLog,
			Message:  "Command completed",
			Command:  log.Command,
			Args:     log.Args,
			ExitCode: log.ExitCode,
			Stdout:   log.Stdout,
			Stderr:   log.Stderr,
		})
	}

	driver := a.newDriver(endpoint, cfg, onLog)
	outcome := driver.Run(ctx, dispatch.RunRequest{
		InputDir:       inputDir,
		RemotePath:     settings.RemotePath,
		ServiceCommand: settings.ServiceCommand,
		Env:            config.SecretEnv(settings.PassEnv),
	})

	if outcome.WorkDir != "" {
		a.Jobs.SetWorkDir(outcome.WorkDir)
	}

	switch outcome.Kind {
	case dispatch.OutcomeSuccess:
		a.Jobs.SetArtifactDir(outcome.Artifacts.Dir)
		if err := a.Jobs.Transition(domain.JobStatusDone); err == nil {
			a.publishStatus(jobID, domain.JobStatusDone, "Run completed")
		}
		a.publishEvent(jobs.Event{
			JobID:       jobID,
			Type:        jobs.EventTypeResult,
			Status:      domain.JobStatusDone,
			Message:     fmt.Sprintf("Retrieved %d transcript files", len(outcome.Artifacts.Files)),
			WorkDir:     outcome.WorkDir,
			ArtifactDir: outcome.Artifacts.Dir,
		})
	case dispatch.OutcomeCancelled:
		_ = a.Jobs.Transition(domain.JobStatusCancelled)
		message := "Run cancelled"
		if outcome.WorkDir != "" {
			message = "Run cancelled; remote job may still be running in " + outcome.WorkDir
		}
		a.publishStatus(jobID, domain.JobStatusCancelled, message)
	default:
		_ = a.Jobs.Transition(domain.JobStatusFailed)
		a.publishStatus(jobID, domain.JobStatusFailed, "Run failed")
		message := string(outcome.Kind)
		if outcome.Err != nil {
			message = outcome.Err.Error()
		}
		a.publishEvent(jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeError,
			Status:  domain.JobStatusFailed,
			Message: message,
			WorkDir: outcome.WorkDir,
		})
	}

	a.clearActiveJob(jobID)
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (a *App) clearActiveJob(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJobID == jobID {
		a.activeJobID = ""
		a.cancel = nil
	}
}

// mapStageToStatus maps driver stage names to job statuses.
func mapStageToStatus(stage string) (domain.JobStatus, bool) {
	switch stage {
	case "probing", "packaging", "provisioning", "uploading", "extracting", "starting":
		return domain.JobStatusLaunching, true
	case "processing":
		return domain.JobStatusProcessing, true
	case "retrieving", "bundling", "downloading", "unpacking", "verifying", "cleanup":
		return domain.JobStatusRetrieving, true
	default:
		return "", false
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and restores required defaults.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()

	settings.Host = strings.TrimSpace(settings.Host)
	settings.RemotePath = strings.TrimSpace(settings.RemotePath)
	settings.ServiceCommand = strings.TrimSpace(settings.ServiceCommand)
	settings.IdentityFile = strings.TrimSpace(settings.IdentityFile)
	if settings.Port <= 0 {
		settings.Port = defaults.Port
	}
	if settings.RemotePath == "" {
		settings.RemotePath = defaults.RemotePath
	}
	if settings.ServiceCommand == "" {
		settings.ServiceCommand = config.DefaultServiceCommand
	}
	if settings.PassEnv == nil {
		settings.PassEnv = defaults.PassEnv
	}
	return settings
}

// openInFileManager launches the platform file explorer for the provided path.
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
