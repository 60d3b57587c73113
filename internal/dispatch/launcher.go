package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"remote-transcriber/internal/archive"
	"remote-transcriber/internal/remote"
)

const workDirTimestampLayout = "20060102_150405"

// LaunchRequest carries everything needed to provision one remote run.
type LaunchRequest struct {
	RemotePath     string
	ServiceCommand string
	Pair           InputPair
	Env            map[string]string
}

// Handle identifies a launched run on the worker. PID is captured from the
// detached start for diagnostics only; completion is detected through the
// marker file, never through the process table.
type Handle struct {
	WorkDir  string `json:"workDir"`
	WAVName  string `json:"wavName"`
	JSONName string `json:"jsonName"`
	PID      string `json:"pid,omitempty"`
}

// Launcher provisions a timestamped remote work directory, ships the input
// bundle, and starts the worker service detached.
type Launcher struct {
	channel remote.Channel
	onStage func(stage string)
	now     func() time.Time
	pack    func(files []string, archivePath string) error
	remove  func(path string) error
}

// NewLauncher constructs a launcher over the given channel.
func NewLauncher(channel remote.Channel, onStage func(stage string)) *Launcher {
	return &Launcher{
		channel: channel,
		onStage: onStage,
		now:     time.Now,
		pack:    archive.Pack,
		remove:  os.Remove,
	}
}

// Launch runs the provisioning steps in order: pack inputs, create the work
// directory, upload, extract, start detached. Any failure aborts the launch
// without retry.
func (l *Launcher) Launch(ctx context.Context, req LaunchRequest) (Handle, error) {
	if err := validateLaunchRequest(req); err != nil {
		return Handle{}, err
	}

	timestamp := l.now().Format(workDirTimestampLayout)
	workDir := strings.TrimSuffix(req.RemotePath, "/") + "/work_" + timestamp
	handle := Handle{
		WorkDir:  workDir,
		WAVName:  req.Pair.WAVName(),
		JSONName: req.Pair.JSONName(),
	}

	emitStage(l.onStage, "packaging")
	archiveName := "input_" + timestamp + ".tar.gz"
	archivePath := filepath.Join(filepath.Dir(req.Pair.WAVPath), archiveName)
	if err := l.pack([]string{req.Pair.WAVPath, req.Pair.JSONPath}, archivePath); err != nil {
		return Handle{}, &LaunchError{Step: "pack", Message: "cannot build input bundle", Err: err}
	}

	emitStage(l.onStage, "provisioning")
	if err := l.runStep(ctx, remote.MakeWorkDir(workDir), workDir, "cannot create remote work directory"); err != nil {
		return Handle{}, err
	}

	emitStage(l.onStage, "uploading")
	if err := l.channel.Upload(ctx, archivePath, workDir+"/"); err != nil {
		return Handle{}, &LaunchError{Step: "upload", WorkDir: workDir, Message: "cannot upload input bundle", Err: err}
	}
	if err := l.remove(archivePath); err != nil {
		return Handle{}, &LaunchError{Step: "upload", WorkDir: workDir, Message: "cannot remove local input bundle after upload", Err: err}
	}

	emitStage(l.onStage, "extracting")
	if err := l.runStep(ctx, remote.ExtractBundle(workDir, archiveName), workDir, "cannot extract input bundle remotely"); err != nil {
		return Handle{}, err
	}

	emitStage(l.onStage, "starting")
	start := remote.StartDetached(workDir, req.ServiceCommand, handle.WAVName, handle.JSONName, req.Env)
	res, err := l.channel.Run(ctx, start)
	if err != nil {
		return Handle{}, &LaunchError{Step: start.Label, WorkDir: workDir, Message: "cannot start worker service", Err: err}
	}
	if res.ExitCode != 0 {
		return Handle{}, &LaunchError{
			Step:    start.Label,
			WorkDir: workDir,
			Message: remoteFailureMessage("worker service start failed", res),
		}
	}
	handle.PID = strings.TrimSpace(res.Stdout)

	return handle, nil
}

// runStep executes one remote command, folding channel errors and nonzero
// remote exits into LaunchError.
func (l *Launcher) runStep(ctx context.Context, cmd remote.Command, workDir, failMessage string) error {
	res, err := l.channel.Run(ctx, cmd)
	if err != nil {
		return &LaunchError{Step: cmd.Label, WorkDir: workDir, Message: failMessage, Err: err}
	}
	if res.ExitCode != 0 {
		return &LaunchError{Step: cmd.Label, WorkDir: workDir, Message: remoteFailureMessage(failMessage, res)}
	}
	return nil
}

// validateLaunchRequest rejects incomplete requests before any remote call.
func validateLaunchRequest(req LaunchRequest) error {
	if strings.TrimSpace(req.RemotePath) == "" {
		return &ConfigurationError{Field: "remotePath", Message: "remote base path is required"}
	}
	if strings.TrimSpace(req.ServiceCommand) == "" {
		return &ConfigurationError{Field: "serviceCommand", Message: "service command is required"}
	}
	if req.Pair.WAVPath == "" || req.Pair.JSONPath == "" {
		return &ConfigurationError{Field: "inputDir", Message: "input pair is incomplete"}
	}
	return nil
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}

// remoteFailureMessage folds a nonzero remote exit into one line.
func remoteFailureMessage(msg string, res remote.Result) string {
	detail := strings.TrimSpace(res.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(res.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("%s (exit %d)", msg, res.ExitCode)
	}
	return fmt.Sprintf("%s (exit %d): %s", msg, res.ExitCode, firstLine(detail))
}

// firstLine trims output to its first line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// NewLauncherForTests constructs a launcher with injectable dependencies.
func NewLauncherForTests(
	channel remote.Channel,
	onStage func(stage string),
	now func() time.Time,
	pack func(files []string, archivePath string) error,
	remove func(path string) error,
) *Launcher {
	return &Launcher{
		channel: channel,
		onStage: onStage,
		now:     now,
		pack:    pack,
		remove:  remove,
	}
}
