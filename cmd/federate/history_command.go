package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"federate/internal/config"
	"federate/internal/runs"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				items, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, run := range items {
					detail := run.ProgressMessage
					if run.Status == runs.StatusFailed {
						detail = run.ErrorMessage
					}
					rows = append(rows, []string{
						strconv.FormatInt(run.ID, 10),
						run.MasterName,
						string(run.Status),
						formatTimestamp(run.CreatedAt),
						truncate(detail, 60),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Master", "Status", "Started", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}
