package cli

import (
	"context"
	"fmt"

	"remote-transcriber/internal/domain"
	"remote-transcriber/internal/remote"
	"remote-transcriber/internal/tui"
)

// newChannel builds the subprocess-backed channel for the configured endpoint.
func newChannel(settings domain.Settings) remote.Channel {
	return remote.NewExecChannel(remote.Endpoint{
		Host:         settings.Host,
		Port:         settings.Port,
		IdentityFile: settings.IdentityFile,
	}, nil)
}

// probeChannel verifies connectivity before any provisioning step.
func probeChannel(ctx context.Context, channel remote.Channel) error {
	printStage("probing")
	res, err := channel.Run(ctx, remote.Probe())
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("connection probe failed (exit %d)", res.ExitCode)
	}
	return nil
}

// Plain line output used outside the interactive view.

func printStage(stage string) {
	fmt.Println(stageStyle.Render("==> ") + tui.StageLabel(stage))
}

func printStatus(line string) {
	fmt.Println(dimStyle.Render("    " + line))
}

func printAttempt(attempt, maxAttempts int) {
	fmt.Println(dimStyle.Render(fmt.Sprintf("    retrieval attempt %d/%d", attempt, maxAttempts)))
}
