package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"remote-transcriber/internal/dispatch"
)

func NewAwaitCmd() *cobra.Command {
	var opts connectionOptions
	var workDir string
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "await",
		Short: "Wait until a launched run reports completion",
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

			printStage("processing")
			poller := dispatch.NewPoller(channel, pollInterval, printStatus)
			if poller.Await(ctx, workDir) == dispatch.PollCancelled {
				fmt.Println(warnStyle.Render("Wait cancelled.") + " " + dimStyle.Render("The remote job keeps running."))
				return nil
			}

			fmt.Println(successStyle.Render("Job finished."))
			fmt.Println(dimStyle.Render("Fetch the results with:"))
			fmt.Printf("  transcriberctl fetch --work-dir %s --input <dir>\n", workDir)
			return nil
		},
	}

	addConnectionFlags(cmd, &opts)
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Remote work directory of the launched run")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", dispatch.DefaultPollInterval, "Delay between completion checks")
	_ = cmd.MarkFlagRequired("work-dir")
	return cmd
}
