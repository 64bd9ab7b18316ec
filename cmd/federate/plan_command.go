package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"federate/internal/config"
	"federate/internal/manifest"
	"federate/internal/plan"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var listFiles bool

	cmd := &cobra.Command{
		Use:   "plan <plan.yaml>",
		Short: "Validate a batch plan and list the files it selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			planPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve plan path: %w", err)
			}
			if listFiles {
				return printPlanFiles(cmd, cfg, planPath)
			}
			return printPlanSummary(cmd, cfg, planPath)
		},
	}

	cmd.Flags().BoolVar(&listFiles, "files", false, "List every selected file per group")
	return cmd
}

// printPlanFiles renders the exact manifest contents each group would get.
func printPlanFiles(cmd *cobra.Command, cfg *config.Config, planPath string) error {
	doc, err := plan.Load(planPath)
	if err != nil {
		return err
	}
	resolved, err := doc.Resolve(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, group := range resolved.Groups {
		selected, err := manifest.Collect(group.Source, manifest.Rules{
			Extensions: group.Extensions,
			Excludes:   group.Excludes,
			Recursive:  group.Recursive,
		})
		if err != nil {
			return fmt.Errorf("collect group %s: %w", group.Name, err)
		}
		m, err := manifest.New(group.Name, selected)
		if err != nil {
			return fmt.Errorf("group %s: %w", group.Name, err)
		}
		fmt.Fprintf(out, "%s (%d):\n", group.Name, len(m.Paths))
		for _, path := range m.Paths {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
	return nil
}

// printPlanSummary resolves the plan against the configuration and renders
// what a run would select, without touching staging.
func printPlanSummary(cmd *cobra.Command, cfg *config.Config, planPath string) error {
	doc, err := plan.Load(planPath)
	if err != nil {
		return err
	}
	resolved, err := doc.Resolve(cfg)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(resolved.Groups))
	total := 0
	for _, group := range resolved.Groups {
		selected, err := manifest.Collect(group.Source, manifest.Rules{
			Extensions: group.Extensions,
			Excludes:   group.Excludes,
			Recursive:  group.Recursive,
		})
		if err != nil {
			return fmt.Errorf("collect group %s: %w", group.Name, err)
		}
		m, err := manifest.New(group.Name, selected)
		if err != nil {
			return fmt.Errorf("group %s: %w", group.Name, err)
		}
		rows = append(rows, []string{
			group.Name,
			truncate(group.Source, 60),
			strconv.Itoa(len(m.Paths)),
			yesNo(group.Recursive),
		})
		total += len(m.Paths)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Master model: %s\n", resolved.MasterPath(cfg.Converter.MasterExt))
	fmt.Fprintln(out, renderTable(
		[]string{"Group", "Source", "Files", "Recursive"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%d file(s) selected across %d group(s)\n", total, len(resolved.Groups))
	if total == 0 {
		return fmt.Errorf("plan selects no files")
	}
	return nil
}
