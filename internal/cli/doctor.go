package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"remote-transcriber/internal/diagnostics"
	"remote-transcriber/internal/domain"
)

func NewDoctorCmd() *cobra.Command {
	var opts connectionOptions
	var inputDir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check local tools, settings, and the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(&opts)
			if err != nil {
				return err
			}

			report := diagnostics.NewChecker().Run(settings, inputDir)
			warnings := 0
			for _, item := range report.Items {
				fmt.Printf("%s %s: %s\n", statusIcon(item.Status), item.Name, item.Message)
				if item.Status == domain.DiagnosticStatusWarn {
					warnings++
				}
				if item.Hint != "" && item.Status != domain.DiagnosticStatusPass {
					fmt.Println(dimStyle.Render("    hint: " + item.Hint))
				}
			}

			if report.HasFailures {
				return &exitError{code: exitFailure, err: errors.New("diagnostics reported failures")}
			}
			if warnings > 0 {
				fmt.Println(warnStyle.Render(fmt.Sprintf("Passed with %d warning(s).", warnings)))
				return nil
			}
			fmt.Println(successStyle.Render("All checks passed."))
			return nil
		},
	}

	addConnectionFlags(cmd, &opts)
	cmd.Flags().StringVar(&inputDir, "input", "", "Input directory to check, optional")
	return cmd
}
