package cli

import (
	"os"
	"path/filepath"
	"testing"

	"remote-transcriber/internal/config"
	"remote-transcriber/internal/domain"
)

// TestApplyOverridesMergesNonZeroFlags verifies flag values win over loaded
// settings while zero values leave them untouched.
func TestApplyOverridesMergesNonZeroFlags(t *testing.T) {
	saved := domain.Settings{
		Host:           "old.example.net",
		Port:           22,
		RemotePath:     "/workspace",
		ServiceCommand: "python3 gpu_service.py",
		IdentityFile:   "/home/user/.ssh/id_ed25519",
	}

	merged := applyOverrides(saved, &connectionOptions{
		host: "gpu.example.net",
		port: 2222,
	})

	if merged.Host != "gpu.example.net" {
		t.Fatalf("Host = %q", merged.Host)
	}
	if merged.Port != 2222 {
		t.Fatalf("Port = %d", merged.Port)
	}
	if merged.RemotePath != "/workspace" {
		t.Fatalf("RemotePath = %q, want unchanged", merged.RemotePath)
	}
	if merged.ServiceCommand != "python3 gpu_service.py" {
		t.Fatalf("ServiceCommand = %q, want unchanged", merged.ServiceCommand)
	}
	if merged.IdentityFile != "/home/user/.ssh/id_ed25519" {
		t.Fatalf("IdentityFile = %q, want unchanged", merged.IdentityFile)
	}
	if merged.KeepRemote {
		t.Fatal("KeepRemote flipped without the flag")
	}
}

// TestApplyOverridesKeepRemoteOnlyEnables verifies the bool flag cannot
// accidentally clear a persisted true.
func TestApplyOverridesKeepRemoteOnlyEnables(t *testing.T) {
	merged := applyOverrides(domain.Settings{KeepRemote: true}, &connectionOptions{})
	if !merged.KeepRemote {
		t.Fatal("KeepRemote cleared by empty options")
	}

	merged = applyOverrides(domain.Settings{}, &connectionOptions{keepRemote: true})
	if !merged.KeepRemote {
		t.Fatal("KeepRemote not enabled by flag")
	}
}

// TestResolveSettingsUsesExplicitPath verifies an explicit settings file is
// loaded and flag overrides applied on top.
func TestResolveSettingsUsesExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := config.NewJSONStore(path)
	if err := store.Save(domain.Settings{Host: "saved.example.net", Port: 22, RemotePath: "/workspace"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	settings, err := resolveSettings(&connectionOptions{settingsPath: path, port: 2200})
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if settings.Host != "saved.example.net" {
		t.Fatalf("Host = %q", settings.Host)
	}
	if settings.Port != 2200 {
		t.Fatalf("Port = %d, want override", settings.Port)
	}
}

// TestResolveSettingsMissingFileFallsBackToDefaults verifies a fully flagged
// invocation works without prior setup.
func TestResolveSettingsMissingFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	settings, err := resolveSettings(&connectionOptions{settingsPath: path, host: "gpu.example.net"})
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if settings.Host != "gpu.example.net" {
		t.Fatalf("Host = %q", settings.Host)
	}
	if settings.RemotePath != config.DefaultSettings().RemotePath {
		t.Fatalf("RemotePath = %q, want default", settings.RemotePath)
	}
}

// TestResolveSettingsCorruptFileFails verifies unreadable settings surface
// as an error instead of silently running with defaults.
func TestResolveSettingsCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := resolveSettings(&connectionOptions{settingsPath: path}); err == nil {
		t.Fatal("expected an error for a corrupt settings file")
	}
}

// TestRequireEndpointRejectsMissingHost verifies the pre-flight host check
// carries the launch failure exit code.
func TestRequireEndpointRejectsMissingHost(t *testing.T) {
	err := requireEndpoint(domain.Settings{Host: "  "})
	if err == nil {
		t.Fatal("expected an error for a blank host")
	}
	exitErr, ok := err.(*exitError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if exitErr.code != exitLaunchFailed {
		t.Fatalf("code = %d", exitErr.code)
	}

	if err := requireEndpoint(domain.Settings{Host: "gpu.example.net"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
