package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"federate/internal/config"
	"federate/internal/runs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent run and overall run health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				latest, err := store.Latest(cmd.Context())
				if err != nil {
					return err
				}
				if latest == nil {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}

				fmt.Fprintf(out, "Run #%d (%s)\n", latest.ID, latest.MasterName)
				fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(latest.Status), string(latest.Status), colorize))
				fmt.Fprintln(out, renderStatusLine("Stage", statusInfo, orDash(latest.ProgressStage), colorize))
				fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, orDash(latest.ProgressMessage), colorize))
				if latest.ErrorMessage != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, latest.ErrorMessage, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Plan", statusInfo, latest.PlanPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Master", statusInfo, orDash(latest.MasterPath), colorize))
				fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, formatTimestamp(latest.UpdatedAt), colorize))

				records, err := store.FilesForRun(cmd.Context(), latest.ID)
				if err != nil {
					return err
				}
				if len(records) > 0 {
					rows := make([][]string, 0, len(records))
					for _, record := range records {
						rows = append(rows, []string{
							record.Group,
							truncate(record.SourcePath, 50),
							string(record.State),
							truncate(record.Detail, 40),
						})
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderTable(
						[]string{"Group", "Source", "State", "Detail"},
						rows,
						nil,
					))
				}

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nRuns: %d total, %d completed, %d failed, %d in flight\n",
					health.Total, health.Completed, health.Failed, health.Processing)
				return nil
			})
		},
	}
}

func runStatusKind(status runs.Status) statusKind {
	switch status {
	case runs.StatusCompleted:
		return statusOK
	case runs.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}
