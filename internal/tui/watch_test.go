package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"remote-transcriber/internal/dispatch"
)

func applyMsg(t *testing.T, m WatchModel, msg tea.Msg) (WatchModel, tea.Cmd) {
	t.Helper()
	model, cmd := m.Update(msg)
	next, ok := model.(WatchModel)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	return next, cmd
}

// TestWatchRendersStageStatusAndAttempt verifies the live view content.
func TestWatchRendersStageStatusAndAttempt(t *testing.T) {
	m := NewWatch(nil)

	m, _ = applyMsg(t, m, StageMsg("uploading"))
	m, _ = applyMsg(t, m, StatusLineMsg("Processing chunk 3/10"))
	m, _ = applyMsg(t, m, AttemptMsg{Attempt: 2, MaxAttempts: 3})

	view := m.View()
	if !strings.Contains(view, "Uploading input bundle") {
		t.Fatalf("view missing stage label: %q", view)
	}
	if !strings.Contains(view, "Processing chunk 3/10") {
		t.Fatalf("view missing status line: %q", view)
	}
	if !strings.Contains(view, "attempt 2/3") {
		t.Fatalf("view missing attempt counter: %q", view)
	}
}

// TestWatchInterruptInvokesCancelOnce verifies interrupt handling.
func TestWatchInterruptInvokesCancelOnce(t *testing.T) {
	cancelled := 0
	m := NewWatch(func() { cancelled++ })

	m, _ = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	m, _ = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	if cancelled != 1 {
		t.Fatalf("cancel called %d times, want 1", cancelled)
	}
	if !m.Cancelling() {
		t.Fatal("model should report cancelling")
	}
	if !strings.Contains(m.View(), "Stopping wait") {
		t.Fatalf("view = %q, want stopping hint", m.View())
	}
}

// TestWatchDoneQuitsAndExposesOutcome verifies the terminal message.
func TestWatchDoneQuitsAndExposesOutcome(t *testing.T) {
	m := NewWatch(nil)

	m, cmd := applyMsg(t, m, DoneMsg{Outcome: dispatch.Outcome{
		Kind:    dispatch.OutcomeSuccess,
		WorkDir: "/workspace/work_20240315_103000",
	}})

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}

	outcome, done := m.Outcome()
	if !done {
		t.Fatal("model should be done")
	}
	if outcome.Kind != dispatch.OutcomeSuccess {
		t.Fatalf("outcome kind = %s", outcome.Kind)
	}
	if m.View() != "" {
		t.Fatalf("done view should be empty, got %q", m.View())
	}
}

// TestWatchSpinnerTickKeepsSpinning verifies spinner advancement.
func TestWatchSpinnerTickKeepsSpinning(t *testing.T) {
	m := NewWatch(nil)

	tick := m.Init()
	if tick == nil {
		t.Fatal("expected initial spinner tick command")
	}
	_, cmd := applyMsg(t, m, tick())
	if cmd == nil {
		t.Fatal("expected follow-up spinner command")
	}
}

// TestStageLabelFallsBackToRawStage verifies unknown stages pass through.
func TestStageLabelFallsBackToRawStage(t *testing.T) {
	if got := StageLabel("warming-up"); got != "warming-up" {
		t.Fatalf("StageLabel = %q", got)
	}
}
