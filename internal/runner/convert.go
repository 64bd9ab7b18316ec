package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"federate/internal/logging"
	"federate/internal/runs"
	"federate/internal/services"
)

// convert invokes the converter once per group. A failed group marks its
// records convert_failed and the batch continues with the remaining groups.
func (r *Runner) convert(ctx context.Context, run *runs.Run, state *batchState) error {
	converted := 0
	failedGroups := 0

	for i := range state.groups {
		gs := &state.groups[i]
		if gs.failed {
			continue
		}

		groupCtx := services.WithGroup(ctx, gs.group.Name)
		logger := logging.WithContext(groupCtx, r.logger)

		run.ProgressMessage = fmt.Sprintf("Converting group %s (%d files)", gs.group.Name, len(gs.manifest.Paths))
		if err := r.store.Update(groupCtx, run); err != nil {
			return fmt.Errorf("persist progress: %w", err)
		}

		logPath := filepath.Join(gs.outDir, "converter.log")
		result, err := state.client.Convert(groupCtx, gs.manifest, gs.manifestPath, gs.outDir, logPath)
		if err != nil {
			failedGroups++
			gs.failed = true
			logger.Error("group conversion failed", logging.Error(err))
			r.markGroupFailed(groupCtx, state, gs.group.Name, err.Error())
			continue
		}

		for _, record := range state.records {
			if record.Group != gs.group.Name {
				continue
			}
			output := result.Outputs[record.SourcePath]
			if output == "" {
				record.State = runs.FileStateConvertFailed
				record.Detail = "converter produced no output"
			} else {
				record.State = runs.FileStateConverted
				record.ConvertedPath = output
				record.Detail = ""
				gs.converted = append(gs.converted, output)
				converted++
			}
			if err := r.store.UpdateFile(groupCtx, record); err != nil {
				return fmt.Errorf("persist file outcome: %w", err)
			}
		}

		logger.Info(
			"group converted",
			logging.Int("outputs", len(gs.converted)),
			logging.Int("sources", len(gs.manifest.Paths)),
		)
	}

	if converted == 0 {
		return services.Wrap(services.ErrExternalTool, "converting", "convert groups",
			fmt.Sprintf("no sub-models produced (%d groups failed)", failedGroups), nil)
	}

	run.ProgressMessage = fmt.Sprintf("Converted %d sub-models", converted)
	return nil
}

func (r *Runner) markGroupFailed(ctx context.Context, state *batchState, group, detail string) {
	logger := logging.WithContext(ctx, r.logger)
	// Keep recording outcomes even when the group failed on a cancelled
	// context.
	persistCtx := context.WithoutCancel(ctx)
	for _, record := range state.records {
		if record.Group != group || record.State != runs.FileStatePending {
			continue
		}
		record.State = runs.FileStateConvertFailed
		record.Detail = detail
		if err := r.store.UpdateFile(persistCtx, record); err != nil {
			logger.Error("failed to persist group failure", logging.Error(err))
		}
	}
}
