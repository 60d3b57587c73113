package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"remote-transcriber/internal/config"
	"remote-transcriber/internal/dispatch"
	"remote-transcriber/internal/domain"
	"remote-transcriber/internal/tui"
)

func NewRunCmd() *cobra.Command {
	var opts connectionOptions
	var inputDir string
	var plain bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch a remote transcription run and wait for the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(&opts)
			if err != nil {
				return err
			}
			if err := requireEndpoint(settings); err != nil {
				return err
			}

			req := dispatch.RunRequest{
				InputDir:       inputDir,
				RemotePath:     settings.RemotePath,
				ServiceCommand: settings.ServiceCommand,
				Env:            config.SecretEnv(settings.PassEnv),
			}

			if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
				return runWithWatch(cmd.Context(), settings, req)
			}
			return runPlain(cmd.Context(), settings, req)
		},
	}

	addConnectionFlags(cmd, &opts)
	cmd.Flags().StringVar(&inputDir, "input", ".", "Directory holding one WAV and one JSON input file")
	cmd.Flags().BoolVar(&plain, "plain", false, "Line output instead of the interactive view")
	return cmd
}

// driverConfig wires the run knobs from settings plus the given callbacks.
func driverConfig(settings domain.Settings, onStage func(string), onStatus func(string), onAttempt func(int, int)) dispatch.DriverConfig {
	return dispatch.DriverConfig{
		PollInterval: dispatch.DefaultPollInterval,
		InitialDelay: dispatch.DefaultInitialDelay,
		KeepRemote:   settings.KeepRemote,
		OnStage:      onStage,
		OnStatus:     onStatus,
		OnAttempt:    onAttempt,
	}
}

// runPlain executes the run with line output. SIGINT cancels the wait; the
// remote job keeps running and the outcome names the work directory.
func runPlain(parent context.Context, settings domain.Settings, req dispatch.RunRequest) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := dispatch.NewDriver(newChannel(settings), driverConfig(settings, printStage, printStatus, printAttempt))
	outcome := driver.Run(ctx, req)
	printOutcome(os.Stdout, outcome)
	return errorForOutcome(outcome)
}

// runWithWatch executes the run behind the spinner view. The driver runs in
// a goroutine and reports back through program messages; ctrl+c inside the
// view cancels the context, which surfaces as a cancelled outcome.
func runWithWatch(parent context.Context, settings domain.Settings, req dispatch.RunRequest) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	program := tea.NewProgram(tui.NewWatch(cancel))
	driver := dispatch.NewDriver(newChannel(settings), driverConfig(settings,
		func(stage string) { program.Send(tui.StageMsg(stage)) },
		func(line string) { program.Send(tui.StatusLineMsg(line)) },
		func(attempt, maxAttempts int) {
			program.Send(tui.AttemptMsg{Attempt: attempt, MaxAttempts: maxAttempts})
		},
	))

	go func() {
		program.Send(tui.DoneMsg{Outcome: driver.Run(ctx, req)})
	}()

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("interactive view failed: %w", err)
	}
	watch, ok := final.(tui.WatchModel)
	if !ok {
		return fmt.Errorf("unexpected final model %T", final)
	}
	outcome, done := watch.Outcome()
	if !done {
		cancel()
		return &exitError{code: exitFailure, err: errors.New("view closed before the run finished")}
	}

	printOutcome(os.Stdout, outcome)
	return errorForOutcome(outcome)
}
