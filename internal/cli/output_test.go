package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"remote-transcriber/internal/dispatch"
)

// TestErrorForOutcomeExitContract verifies the outcome-to-exit-code mapping:
// success and cancellation are clean exits, failures carry category codes.
func TestErrorForOutcomeExitContract(t *testing.T) {
	cases := []struct {
		kind dispatch.OutcomeKind
		code int
	}{
		{dispatch.OutcomeSuccess, 0},
		{dispatch.OutcomeCancelled, 0},
		{dispatch.OutcomeLaunchFailed, exitLaunchFailed},
		{dispatch.OutcomeRetrievalFailed, exitRetrievalFailed},
	}

	for _, tc := range cases {
		err := errorForOutcome(dispatch.Outcome{Kind: tc.kind, Err: errors.New("boom")})
		if tc.code == 0 {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.kind, err)
			}
			continue
		}
		exitErr, ok := err.(*exitError)
		if !ok {
			t.Fatalf("%s: error type = %T", tc.kind, err)
		}
		if exitErr.code != tc.code {
			t.Fatalf("%s: code = %d, want %d", tc.kind, exitErr.code, tc.code)
		}
		if exitErr.Error() != "boom" {
			t.Fatalf("%s: message = %q", tc.kind, exitErr.Error())
		}
	}
}

// TestPrintOutcomeSuccessListsArtifacts verifies the success summary names
// the transcripts directory and each retrieved file.
func TestPrintOutcomeSuccessListsArtifacts(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, dispatch.Outcome{
		Kind:    dispatch.OutcomeSuccess,
		WorkDir: "/workspace/work_20240315_103000",
		Artifacts: dispatch.ArtifactSet{
			Dir: "/recordings/session/transcripts",
			Files: []string{
				"/recordings/session/transcripts/transcript_detailed_meeting.json",
				"/recordings/session/transcripts/transcript_meeting.txt",
			},
		},
	})

	out := buf.String()
	if !strings.Contains(out, "Transcripts saved to /recordings/session/transcripts") {
		t.Fatalf("missing directory line:\n%s", out)
	}
	if !strings.Contains(out, "transcript_detailed_meeting.json") || !strings.Contains(out, "transcript_meeting.txt") {
		t.Fatalf("missing artifact names:\n%s", out)
	}
}

// TestPrintOutcomeCancelledShowsReattachCommand verifies an interrupted run
// prints the await invocation for its work directory.
func TestPrintOutcomeCancelledShowsReattachCommand(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, dispatch.Outcome{
		Kind:    dispatch.OutcomeCancelled,
		WorkDir: "/workspace/work_20240315_103000",
	})

	out := buf.String()
	if !strings.Contains(out, "await --work-dir /workspace/work_20240315_103000") {
		t.Fatalf("missing re-attach command:\n%s", out)
	}
}

// TestPrintOutcomeRetrievalFailedShowsFetchCommand verifies exhausted
// retrieval points at the manual fetch path.
func TestPrintOutcomeRetrievalFailedShowsFetchCommand(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, dispatch.Outcome{
		Kind:    dispatch.OutcomeRetrievalFailed,
		WorkDir: "/workspace/work_20240315_103000",
	})

	out := buf.String()
	if !strings.Contains(out, "fetch --work-dir /workspace/work_20240315_103000") {
		t.Fatalf("missing fetch command:\n%s", out)
	}
}
