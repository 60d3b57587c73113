package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"remote-transcriber/internal/domain"
)

const installCommandTimeout = 15 * time.Minute

type installOption struct {
	manager  string
	commands [][]string
}

// toolPackages holds the per-package-manager names for one tool. Empty
// entries mean the manager has no usable package for that tool.
type toolPackages struct {
	apt    string
	dnf    string
	pacman string
	zypper string
	brew   string
	winget string
	choco  string
	scoop  string
}

// InstallOrFixDiagnostic applies an OS-specific remediation for one failed diagnostic item.
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
	case "tool_ssh":
		fixErr = installTool("ssh")
	case "tool_rsync":
		fixErr = installTool("rsync")
	case "tool_tar":
		fixErr = installTool("tar")
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings, a.inputDir)
	}
	return a.Diagnostics
}

func installTool(name string) error {
	if err := runFirstSuccessfulInstall(installOptionsForTool(name)); err != nil {
		return fmt.Errorf("install %s: %w", name, err)
	}
	if err := requireToolsOnPath(name); err != nil {
		return fmt.Errorf("verify %s on PATH: %w", name, err)
	}
	return nil
}

func installOptionsForTool(name string) []installOption {
	packages := packageNamesForTool(name)
	var options []installOption

	switch goruntime.GOOS {
	case "windows":
		if packages.winget != "" {
			options = append(options, installOption{
				manager: "winget",
				commands: [][]string{
					{"winget", "install", "--id", packages.winget, "--exact", "--accept-source-agreements", "--accept-package-agreements"},
				},
			})
		}
		if packages.choco != "" {
			options = append(options, installOption{
				manager:  "choco",
				commands: [][]string{{"choco", "install", packages.choco, "-y"}},
			})
		}
		if packages.scoop != "" {
			options = append(options, installOption{
				manager:  "scoop",
				commands: [][]string{{"scoop", "install", packages.scoop}},
			})
		}
	case "darwin":
		if packages.brew != "" {
			options = append(options, installOption{
				manager:  "brew",
				commands: [][]string{{"brew", "install", packages.brew}},
			})
		}
	default:
		if packages.apt != "" {
			options = append(options, installOption{
				manager: "apt-get",
				commands: [][]string{
					{"apt-get", "update"},
					{"apt-get", "install", "-y", packages.apt},
				},
			})
		}
		if packages.dnf != "" {
			options = append(options, installOption{
				manager:  "dnf",
				commands: [][]string{{"dnf", "install", "-y", packages.dnf}},
			})
		}
		if packages.pacman != "" {
			options = append(options, installOption{
				manager:  "pacman",
				commands: [][]string{{"pacman", "-Sy", "--noconfirm", packages.pacman}},
			})
		}
		if packages.zypper != "" {
			options = append(options, installOption{
				manager:  "zypper",
				commands: [][]string{{"zypper", "install", "-y", packages.zypper}},
			})
		}
		if packages.brew != "" {
			options = append(options, installOption{
				manager:  "brew",
				commands: [][]string{{"brew", "install", packages.brew}},
			})
		}
	}

	return options
}

func packageNamesForTool(name string) toolPackages {
	switch name {
	case "ssh":
		return toolPackages{
			apt:    "openssh-client",
			dnf:    "openssh-clients",
			pacman: "openssh",
			zypper: "openssh-clients",
			brew:   "openssh",
			choco:  "openssh",
			scoop:  "openssh",
		}
	case "rsync":
		return toolPackages{
			apt:    "rsync",
			dnf:    "rsync",
			pacman: "rsync",
			zypper: "rsync",
			brew:   "rsync",
			choco:  "rsync",
			scoop:  "rsync",
		}
	case "tar":
		// Windows and macOS ship tar with the OS; only Linux packages exist.
		return toolPackages{
			apt:    "tar",
			dnf:    "tar",
			pacman: "tar",
			zypper: "tar",
		}
	default:
		return toolPackages{}
	}
}

func runFirstSuccessfulInstall(options []installOption) error {
	if len(options) == 0 {
		return fmt.Errorf("no install commands configured for OS %s", goruntime.GOOS)
	}

	errorsByManager := make([]string, 0, len(options))
	atLeastOneManager := false

	for _, option := range options {
		if !commandAvailable(option.manager) {
			continue
		}
		atLeastOneManager = true
		if err := runInstallCommands(option.commands); err == nil {
			return nil
		} else {
			errorsByManager = append(errorsByManager, fmt.Sprintf("%s: %v", option.manager, err))
		}
	}

	if !atLeastOneManager {
		return fmt.Errorf("no supported package manager found for %s", goruntime.GOOS)
	}
	return errors.New(strings.Join(errorsByManager, " | "))
}

func runInstallCommands(commands [][]string) error {
	for _, command := range commands {
		if err := runCommandWithPossibleElevation(command); err != nil {
			return err
		}
	}
	return nil
}

func runCommandWithPossibleElevation(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}

	candidates := [][]string{command}
	if goruntime.GOOS == "linux" && requiresElevation(command[0]) {
		if commandAvailable("pkexec") {
			candidates = append(candidates, append([]string{"pkexec"}, command...))
		}
		if commandAvailable("sudo") {
			candidates = append(candidates, append([]string{"sudo", "-n"}, command...))
		}
	}

	attemptErrors := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if err := runCommand(candidate[0], candidate[1:]...); err == nil {
			return nil
		} else {
			attemptErrors = append(attemptErrors, err.Error())
		}
	}

	return errors.New(strings.Join(attemptErrors, " | "))
}

func runCommand(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), installCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", formatCommand(name, args), installCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", formatCommand(name, args), err)
	}
	return fmt.Errorf("%s failed: %w (%s)", formatCommand(name, args), err, trimmed)
}

func formatCommand(name string, args []string) string {
	parts := append([]string{name}, args...)
	return strings.Join(parts, " ")
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}

func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func requireToolsOnPath(names ...string) error {
	missing := make([]string, 0, len(names))
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
