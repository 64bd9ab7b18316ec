package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"federate/internal/config"
	"federate/internal/runner"
	"federate/internal/runs"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var keepStaging bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Convert the plan's source files and federate them into a master model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve plan path: %w", err)
			}
			if _, err := os.Stat(planPath); err != nil {
				return fmt.Errorf("plan file: %w", err)
			}

			if dryRun {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				return printPlanSummary(cmd, cfg, planPath)
			}

			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return fmt.Errorf("build logger: %w", err)
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				if reset, err := store.ResetStale(runCtx, runs.InterruptReason); err == nil && reset > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Marked %d interrupted run(s) as failed\n", reset)
				}

				run, err := runner.New(cfg, store, logger).
					Execute(runCtx, planPath, runner.Options{KeepStaging: keepStaging})
				if err != nil {
					if run != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Run #%d failed during %s: %s\n",
							run.ID, orDash(run.ProgressStage), orDash(run.ErrorMessage))
					}
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run #%d completed\n", run.ID)
				fmt.Fprintf(out, "Master model: %s\n", run.MasterPath)
				printFileSummary(cmd, store, run.ID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&keepStaging, "keep-staging", false, "Retain the staging directory after a successful run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve the plan and list selected files without converting")
	return cmd
}

func printFileSummary(cmd *cobra.Command, store *runs.Store, runID int64) {
	records, err := store.FilesForRun(cmd.Context(), runID)
	if err != nil || len(records) == 0 {
		return
	}
	counts := map[runs.FileState]int{}
	for _, record := range records {
		counts[record.State]++
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Files: %d published", counts[runs.FileStatePublished])
	if failed := counts[runs.FileStateConvertFailed] + counts[runs.FileStatePublishFailed]; failed > 0 {
		fmt.Fprintf(out, ", %d failed", failed)
	}
	if counts[runs.FileStateSkipped] > 0 {
		fmt.Fprintf(out, ", %d skipped", counts[runs.FileStateSkipped])
	}
	fmt.Fprintln(out)
}
