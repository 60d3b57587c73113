package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"remote-transcriber/internal/dispatch"
)

func NewFetchCmd() *cobra.Command {
	var opts connectionOptions
	var workDir string
	var inputDir string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Retrieve results from a finished run",
		Long: "Retrieve results from a finished run. The input directory names the " +
			"WAV and JSON pair so they can be excluded from the result bundle; " +
			"transcripts land in its transcripts/ subdirectory.",
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
			handle := dispatch.Handle{
				WorkDir:  workDir,
				WAVName:  pair.WAVName(),
				JSONName: pair.JSONName(),
			}

			// Zero initial delay: the job finished earlier, nothing to settle.
			retriever := dispatch.NewRetriever(channel, dispatch.DefaultRetrievalPolicy, 0,
				settings.KeepRemote, printStage, printAttempt)
			artifacts, err := retriever.Retrieve(ctx, handle, inputDir)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Println(warnStyle.Render("Fetch cancelled.") + " " + dimStyle.Render("Results remain on the worker."))
					return nil
				}
				return &exitError{code: exitRetrievalFailed, err: err}
			}

			fmt.Println(successStyle.Render("Fetch complete."))
			printArtifacts(os.Stdout, artifacts)
			return nil
		},
	}

	addConnectionFlags(cmd, &opts)
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Remote work directory of the finished run")
	cmd.Flags().StringVar(&inputDir, "input", ".", "Directory holding the run's WAV and JSON input files")
	_ = cmd.MarkFlagRequired("work-dir")
	return cmd
}
