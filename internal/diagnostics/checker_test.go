package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"remote-transcriber/internal/domain"
)

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "meeting.wav"), "RIFF")
	mustWriteFile(t, filepath.Join(root, "meeting.json"), "{}")
	keyPath := filepath.Join(root, "id_ed25519")
	mustWriteFile(t, keyPath, "key material")

	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.ReadDir,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		Host:           "gpu.example.net",
		Port:           22,
		RemotePath:     "/workspace",
		ServiceCommand: "python3 gpu_service.py",
		IdentityFile:   keyPath,
	}, root)

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	for _, item := range report.Items {
		if item.Status != domain.DiagnosticStatusPass {
			t.Fatalf("item %s: got %s, want pass", item.ID, item.Status)
		}
	}
}

// TestCheckerRunMissingToolsAndEmptySettings validates failure reporting and
// the warn-versus-fail split for tools with a transfer fallback.
func TestCheckerRunMissingToolsAndEmptySettings(t *testing.T) {
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.Stat,
		os.ReadDir,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{}, "")

	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, "tool_ssh", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_rsync", domain.DiagnosticStatusWarn)
	assertStatusByID(t, report, "tool_tar", domain.DiagnosticStatusWarn)
	assertStatusByID(t, report, "endpoint", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "remote_path", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "service_command", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "identity_file", domain.DiagnosticStatusWarn)
	assertStatusByID(t, report, "input_dir", domain.DiagnosticStatusWarn)
}

// TestCheckerRunRejectsAmbiguousInputPair validates the pair count check.
func TestCheckerRunRejectsAmbiguousInputPair(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "meeting.wav"), "RIFF")
	mustWriteFile(t, filepath.Join(root, "backup.wav"), "RIFF")
	mustWriteFile(t, filepath.Join(root, "meeting.json"), "{}")

	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.ReadDir,
		os.CreateTemp,
		os.Remove,
	)
	report := checker.Run(domain.Settings{
		Host:           "gpu.example.net",
		Port:           22,
		RemotePath:     "/workspace",
		ServiceCommand: "python3 gpu_service.py",
	}, root)

	assertStatusByID(t, report, "input_dir", domain.DiagnosticStatusFail)
}

// TestCheckerRunMissingIdentityFileFails validates the configured-key check.
func TestCheckerRunMissingIdentityFileFails(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.ReadDir,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(domain.Settings{
		Host:           "gpu.example.net",
		Port:           22,
		RemotePath:     "/workspace",
		ServiceCommand: "python3 gpu_service.py",
		IdentityFile:   "/path/that/does/not/exist",
	}, "")

	assertStatusByID(t, report, "identity_file", domain.DiagnosticStatusFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}

// mustWriteFile writes a small fixture file or fails the test.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
