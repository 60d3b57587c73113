package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"remote-transcriber/internal/dispatch"
)

// printOutcome reports the terminal state of a run in a few lines. Cancelled
// and failed outcomes include the command that re-attaches to the remote
// work directory.
func printOutcome(out io.Writer, outcome dispatch.Outcome) {
	switch outcome.Kind {
	case dispatch.OutcomeSuccess:
		fmt.Fprintln(out, successStyle.Render("Run complete."))
		printArtifacts(out, outcome.Artifacts)
	case dispatch.OutcomeCancelled:
		fmt.Fprintln(out, warnStyle.Render("Run cancelled."))
		if outcome.WorkDir != "" {
			fmt.Fprintln(out, dimStyle.Render("The remote job may still be running. Re-attach with:"))
			fmt.Fprintf(out, "  transcriberctl await --work-dir %s\n", outcome.WorkDir)
		}
	case dispatch.OutcomeRetrievalFailed:
		fmt.Fprintln(out, errorStyle.Render("Result retrieval failed."))
		if outcome.WorkDir != "" {
			fmt.Fprintln(out, dimStyle.Render("Results remain on the worker. Retry with:"))
			fmt.Fprintf(out, "  transcriberctl fetch --work-dir %s --input <dir>\n", outcome.WorkDir)
		}
	default:
		fmt.Fprintln(out, errorStyle.Render("Launch failed."))
	}
}

// printArtifacts lists retrieved transcript files under their directory.
func printArtifacts(out io.Writer, artifacts dispatch.ArtifactSet) {
	fmt.Fprintf(out, "Transcripts saved to %s\n", artifacts.Dir)
	for _, file := range artifacts.Files {
		fmt.Fprintln(out, dimStyle.Render("  "+filepath.Base(file)))
	}
}

// errorForOutcome maps a run outcome to the process exit contract. Success
// and cancellation exit zero; failures carry their category code.
func errorForOutcome(outcome dispatch.Outcome) error {
	switch outcome.Kind {
	case dispatch.OutcomeSuccess, dispatch.OutcomeCancelled:
		return nil
	case dispatch.OutcomeRetrievalFailed:
		return &exitError{code: exitRetrievalFailed, err: outcome.Err}
	default:
		return &exitError{code: exitLaunchFailed, err: outcome.Err}
	}
}
