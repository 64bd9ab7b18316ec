package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"federate/internal/config"
	"federate/internal/report"
	"federate/internal/runs"
	"federate/internal/services"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Export a run's outcomes as a spreadsheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				var run *runs.Run
				var err error
				if len(args) == 1 {
					id, parseErr := strconv.ParseInt(args[0], 10, 64)
					if parseErr != nil {
						return fmt.Errorf("invalid run id %q", args[0])
					}
					run, err = store.GetByID(cmd.Context(), id)
				} else {
					run, err = store.Latest(cmd.Context())
				}
				if err != nil {
					return err
				}
				if run == nil {
					return services.Wrap(services.ErrNotFound, "", "export report", "no runs recorded yet", nil)
				}

				files, err := store.FilesForRun(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				target := strings.TrimSpace(outputPath)
				if target == "" {
					target = report.DefaultPath(cfg.Paths.LogDir, run)
				} else if target, err = config.ExpandPath(target); err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}

				if err := report.Export(target, run, files); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote report for run #%d to %s\n", run.ID, target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the spreadsheet")
	return cmd
}
