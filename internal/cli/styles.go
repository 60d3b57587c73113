package cli

import (
	"github.com/charmbracelet/lipgloss"

	"remote-transcriber/internal/domain"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	stageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// statusIcon renders a one-character marker for a diagnostic status.
func statusIcon(status domain.DiagnosticStatus) string {
	switch status {
	case domain.DiagnosticStatusPass:
		return successStyle.Render("✓")
	case domain.DiagnosticStatusWarn:
		return warnStyle.Render("!")
	case domain.DiagnosticStatusFail:
		return errorStyle.Render("✗")
	default:
		return "?"
	}
}
