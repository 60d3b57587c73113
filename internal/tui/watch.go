package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"remote-transcriber/internal/dispatch"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	stageStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// StageMsg reports that the run entered a new stage.
type StageMsg string

// StatusLineMsg carries the latest remote status log line.
type StatusLineMsg string

// AttemptMsg reports a retrieval attempt.
type AttemptMsg struct {
	Attempt     int
	MaxAttempts int
}

// DoneMsg carries the terminal outcome and quits the program.
type DoneMsg struct {
	Outcome dispatch.Outcome
}

// WatchModel renders a live spinner view of one remote run. The run itself
// executes in a separate goroutine and feeds messages in via Program.Send.
type WatchModel struct {
	spinner     spinner.Model
	cancel      func()
	stage       string
	statusLine  string
	attempt     int
	maxAttempts int
	cancelling  bool
	done        bool
	outcome     dispatch.Outcome
}

// NewWatch builds a watch model. cancel stops the local wait when the user
// interrupts; the remote job keeps running.
func NewWatch(cancel func()) WatchModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))
	return WatchModel{
		spinner: s,
		cancel:  cancel,
		stage:   "probing",
	}
}

// Init starts the spinner.
func (m WatchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the model for one message.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case StageMsg:
		m.stage = string(msg)
		return m, nil

	case StatusLineMsg:
		m.statusLine = string(msg)
		return m, nil

	case AttemptMsg:
		m.attempt = msg.Attempt
		m.maxAttempts = msg.MaxAttempts
		return m, nil

	case DoneMsg:
		m.done = true
		m.outcome = msg.Outcome
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

// View renders the current frame.
func (m WatchModel) View() string {
	if m.done {
		return ""
	}

	line := m.spinner.View() + " " + stageStyle.Render(StageLabel(m.stage))
	if m.attempt > 0 {
		line += dimStyle.Render(fmt.Sprintf(" (attempt %d/%d)", m.attempt, m.maxAttempts))
	}
	if m.statusLine != "" {
		line += dimStyle.Render(" · " + m.statusLine)
	}

	hint := "ctrl+c to stop waiting (remote job keeps running)"
	if m.cancelling {
		hint = "Stopping wait..."
	}
	return strings.Join([]string{line, dimStyle.Render("  " + hint)}, "\n")
}

// Outcome returns the terminal outcome once the run finished.
func (m WatchModel) Outcome() (dispatch.Outcome, bool) {
	return m.outcome, m.done
}

// Cancelling reports whether the user asked to stop waiting.
func (m WatchModel) Cancelling() bool {
	return m.cancelling
}

// StageLabel maps driver stage names to display text.
func StageLabel(stage string) string {
	switch stage {
	case "probing":
		return "Checking connection"
	case "packaging":
		return "Packing inputs"
	case "provisioning":
		return "Preparing remote work directory"
	case "uploading":
		return "Uploading input bundle"
	case "extracting":
		return "Extracting on remote host"
	case "starting":
		return "Starting transcription service"
	case "processing":
		return "Waiting for transcription"
	case "retrieving":
		return "Retrieving results"
	case "bundling":
		return "Bundling results on remote host"
	case "downloading":
		return "Downloading result bundle"
	case "unpacking":
		return "Unpacking result bundle"
	case "verifying":
		return "Verifying artifacts"
	case "cleanup":
		return "Cleaning up remote work directory"
	default:
		return stage
	}
}
