package cli

import (
	"errors"
	"fmt"
	"testing"
)

// TestNewRootCmdRegistersSubcommands verifies every verb is reachable.
func TestNewRootCmdRegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"run", "launch", "await", "fetch", "doctor", "version"}
	found := map[string]bool{}
	for _, cmd := range root.Commands() {
		found[cmd.Name()] = true
	}

	for _, name := range want {
		if !found[name] {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

// TestExitErrorUnwraps verifies errors.As reaches the category code through
// wrapped errors.
func TestExitErrorUnwraps(t *testing.T) {
	inner := errors.New("probe failed")
	wrapped := fmt.Errorf("run: %w", &exitError{code: exitLaunchFailed, err: inner})

	var exitErr *exitError
	if !errors.As(wrapped, &exitErr) {
		t.Fatal("errors.As did not find exitError")
	}
	if exitErr.code != exitLaunchFailed {
		t.Fatalf("code = %d", exitErr.code)
	}
	if !errors.Is(wrapped, inner) {
		t.Fatal("inner error lost through wrapping")
	}
}

// TestExitErrorMessageWithoutCause covers the bare-code form used by doctor.
func TestExitErrorMessageWithoutCause(t *testing.T) {
	err := &exitError{code: exitFailure}
	if err.Error() != "exit code 1" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
