package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Process exit codes by failure category. Cancellation is not a failure:
// the remote job keeps running and the work directory is printed for a
// later await or fetch.
const (
	exitFailure         = 1
	exitLaunchFailed    = 2
	exitRetrievalFailed = 3
)

// exitError carries a process exit code alongside the underlying error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "transcriberctl",
		Short:         "Run transcription jobs on a remote GPU worker over SSH",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewLaunchCmd())
	cmd.AddCommand(NewAwaitCmd())
	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewDoctorCmd())
	cmd.AddCommand(NewVersionCmd())

	cmd.SetVersionTemplate(fmt.Sprintf("%s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH))
	cmd.Version = Version

	return cmd
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

// Execute runs the root command and maps the result to a process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+exitErr.err.Error())
			}
			return exitErr.code
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		return exitFailure
	}
	return 0
}
