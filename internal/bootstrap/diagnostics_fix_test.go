package bootstrap

import (
	"strings"
	"testing"

	"remote-transcriber/internal/jobs"
)

// TestInstallOrFixDiagnosticRejectsUnknownID verifies only tool items are remediable.
func TestInstallOrFixDiagnosticRejectsUnknownID(t *testing.T) {
	app := &App{
		Store:  &fakeStore{settings: testSettings()},
		Jobs:   jobs.NewManager(),
		events: jobs.NewEventBus(100),
	}

	if _, err := app.InstallOrFixDiagnostic("identity_file"); err == nil {
		t.Fatal("expected error for non-tool diagnostic id")
	}
	if _, err := app.InstallOrFixDiagnostic("  "); err == nil {
		t.Fatal("expected error for blank diagnostic id")
	}
}

// TestPackageNamesForTool verifies the distro package name table.
func TestPackageNamesForTool(t *testing.T) {
	ssh := packageNamesForTool("ssh")
	if ssh.apt != "openssh-client" || ssh.dnf != "openssh-clients" {
		t.Fatalf("ssh packages = %+v", ssh)
	}

	rsync := packageNamesForTool("rsync")
	if rsync.apt != "rsync" || rsync.brew != "rsync" {
		t.Fatalf("rsync packages = %+v", rsync)
	}

	tar := packageNamesForTool("tar")
	if tar.apt != "tar" {
		t.Fatalf("tar packages = %+v", tar)
	}
	if tar.brew != "" || tar.choco != "" {
		t.Fatalf("tar should have no macOS/Windows packages, got %+v", tar)
	}

	if unknown := packageNamesForTool("nonsense"); unknown != (toolPackages{}) {
		t.Fatalf("unknown tool packages = %+v, want empty", unknown)
	}
}

// TestInstallOptionsCommandsStartWithManager verifies command shape per option.
func TestInstallOptionsCommandsStartWithManager(t *testing.T) {
	options := installOptionsForTool("ssh")
	if len(options) == 0 {
		t.Fatal("expected install options for ssh on this OS")
	}
	for _, option := range options {
		if len(option.commands) == 0 {
			t.Fatalf("manager %s has no commands", option.manager)
		}
		for _, command := range option.commands {
			if len(command) == 0 || command[0] != option.manager {
				t.Fatalf("manager %s command = %v", option.manager, command)
			}
		}
	}
}

// TestRunFirstSuccessfulInstallWithoutOptions verifies the no-manager error.
func TestRunFirstSuccessfulInstallWithoutOptions(t *testing.T) {
	err := runFirstSuccessfulInstall(nil)
	if err == nil {
		t.Fatal("expected error for empty option list")
	}
	if !strings.Contains(err.Error(), "no install commands configured") {
		t.Fatalf("error = %v", err)
	}
}

// TestRequiresElevation verifies which managers need root on Linux.
func TestRequiresElevation(t *testing.T) {
	for _, manager := range []string{"apt-get", "dnf", "pacman", "zypper"} {
		if !requiresElevation(manager) {
			t.Fatalf("%s should require elevation", manager)
		}
	}
	for _, manager := range []string{"brew", "winget", "choco", "scoop"} {
		if requiresElevation(manager) {
			t.Fatalf("%s should not require elevation", manager)
		}
	}
}

// TestRequireToolsOnPathReportsMissing verifies missing tool detection.
func TestRequireToolsOnPathReportsMissing(t *testing.T) {
	err := requireToolsOnPath("definitely-not-a-real-tool-name-42")
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-real-tool-name-42") {
		t.Fatalf("error = %v", err)
	}
}
