package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"remote-transcriber/internal/config"
	"remote-transcriber/internal/dispatch"
)

func NewLaunchCmd() *cobra.Command {
	var opts connectionOptions
	var inputDir string

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Start a remote run without waiting for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(&opts)
			if err != nil {
				return err
			}
			if err := requireEndpoint(settings); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			channel := newChannel(settings)
			if err := probeChannel(ctx, channel); err != nil {
				return &exitError{code: exitLaunchFailed, err: err}
			}

			pair, err := dispatch.FindInputPair(inputDir)
			if err != nil {
				return &exitError{code: exitLaunchFailed, err: err}
			}

			launcher := dispatch.NewLauncher(channel, printStage)
			handle, err := launcher.Launch(ctx, dispatch.LaunchRequest{
				RemotePath:     settings.RemotePath,
				ServiceCommand: settings.ServiceCommand,
				Pair:           pair,
				Env:            config.SecretEnv(settings.PassEnv),
			})
			if err != nil {
				return &exitError{code: exitLaunchFailed, err: err}
			}

			fmt.Println(successStyle.Render("Job started."))
			fmt.Printf("Work directory: %s\n", handle.WorkDir)
			if handle.PID != "" {
				fmt.Printf("Remote PID: %s\n", handle.PID)
			}
			fmt.Println(dimStyle.Render("Wait for completion with:"))
			fmt.Printf("  transcriberctl await --work-dir %s\n", handle.WorkDir)
			return nil
		},
	}

	addConnectionFlags(cmd, &opts)
	cmd.Flags().StringVar(&inputDir, "input", ".", "Directory holding one WAV and one JSON input file")
	return cmd
}
