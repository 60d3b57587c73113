package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"remote-transcriber/internal/domain"
)

// Checker validates external tools, endpoint settings and the input directory.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	readDir    func(string) ([]os.DirEntry, error)
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		readDir:    os.ReadDir,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings, inputDir string) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("ssh", false,
			"Install the OpenSSH client and ensure ssh is on PATH before starting a run."),
		c.checkTool("rsync", true,
			"Transfers fall back to scp while rsync is missing; install rsync for faster uploads."),
		c.checkTool("tar", true,
			"Archives are packed and unpacked in-process; tar is only needed to inspect bundles by hand."),
		c.checkEndpoint(settings),
		c.checkRemotePath(settings.RemotePath),
		c.checkServiceCommand(settings.ServiceCommand),
		c.checkIdentityFile(settings.IdentityFile),
		c.checkInputDir(inputDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a CLI executable is on PATH. Optional tools degrade to a
// warning because the transfer layer can work around their absence.
func (c *Checker) checkTool(name string, optional bool, hint string) domain.DiagnosticItem {
	path, err := c.lookPath(name)
	if err != nil {
		status := domain.DiagnosticStatusFail
		if optional {
			status = domain.DiagnosticStatusWarn
		}
		return domain.DiagnosticItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  status,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    hint,
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkEndpoint validates the SSH host and port settings.
func (c *Checker) checkEndpoint(settings domain.Settings) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "endpoint",
		Name: "Remote endpoint",
	}

	if strings.TrimSpace(settings.Host) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Remote host is empty."
		item.Hint = "Set the GPU host name or address in settings."
		return item
	}
	if settings.Port <= 0 || settings.Port > 65535 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Invalid SSH port: %d", settings.Port)
		item.Hint = "Use a port between 1 and 65535."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Endpoint configured: %s:%d", settings.Host, settings.Port)
	return item
}

// checkRemotePath validates the base directory for remote work directories.
func (c *Checker) checkRemotePath(remotePath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "remote_path",
		Name: "Remote path",
	}

	if strings.TrimSpace(remotePath) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Remote path is empty."
		item.Hint = "Set the directory on the GPU host where work directories are created."
		return item
	}
	if !strings.HasPrefix(remotePath, "/") {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Remote path is not absolute: %s", remotePath)
		item.Hint = "Use an absolute path so work directories land in a predictable location."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Remote base path: %s", remotePath)
	return item
}

// checkServiceCommand validates the configured transcription service command.
func (c *Checker) checkServiceCommand(serviceCommand string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "service_command",
		Name: "Service command",
	}

	if strings.TrimSpace(serviceCommand) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Service command is empty."
		item.Hint = "Set the command that starts the transcription service on the GPU host."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Service command: %s", serviceCommand)
	return item
}

// checkIdentityFile validates the optional SSH private key path.
func (c *Checker) checkIdentityFile(identityFile string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "identity_file",
		Name: "Identity file",
	}

	if strings.TrimSpace(identityFile) == "" {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "No identity file configured."
		item.Hint = "Configure a private key so runs do not block on password prompts."
		return item
	}

	info, err := c.stat(identityFile)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Identity file does not exist: %s", identityFile)
		} else {
			item.Message = fmt.Sprintf("Cannot access identity file: %s", identityFile)
		}
		item.Hint = "Point the identity file setting at a readable SSH private key."
		return item
	}
	if info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Identity file is a directory: %s", identityFile)
		item.Hint = "Point the identity file setting at a readable SSH private key."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Identity file found: %s", identityFile)
	return item
}

// checkInputDir validates the WAV/JSON pair and write access for results.
func (c *Checker) checkInputDir(inputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "input_dir",
		Name: "Input directory",
	}

	if strings.TrimSpace(inputDir) == "" {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "No input directory selected."
		item.Hint = "Choose the directory holding the WAV/JSON pair to validate it ahead of a run."
		return item
	}

	entries, err := c.readDir(inputDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Input directory does not exist: %s", inputDir)
		} else {
			item.Message = fmt.Sprintf("Cannot read input directory: %s", inputDir)
		}
		item.Hint = "Choose an existing directory containing the recording and its metadata file."
		return item
	}

	wavCount, jsonCount := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".wav":
			wavCount++
		case ".json":
			jsonCount++
		}
	}
	if wavCount != 1 || jsonCount != 1 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Expected exactly one WAV and one JSON file, found %d WAV and %d JSON.", wavCount, jsonCount)
		item.Hint = "Place a single recording and its metadata file in the input directory."
		return item
	}

	tmpFile, err := c.createTemp(inputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Input directory is not writable: %s", inputDir)
		item.Hint = "Results are downloaded next to the inputs; choose a writable directory."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Input pair found, directory writable: %s", inputDir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		readDir:    readDir,
		createTemp: createTemp,
		remove:     remove,
	}
}
