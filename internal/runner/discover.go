package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"federate/internal/logging"
	"federate/internal/manifest"
	"federate/internal/plan"
	"federate/internal/runs"
	"federate/internal/services"
)

// discover resolves the converter binary and the plan, selects source files,
// writes per-group manifests, and records every selected file.
func (r *Runner) discover(ctx context.Context, run *runs.Run, state *batchState, doc *plan.Plan) error {
	logger := logging.WithContext(ctx, r.logger)

	binary, err := r.locateConverter()
	if err != nil {
		return err
	}
	state.binary = binary

	client, err := r.newClient(binary)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "discovering", "build converter client", "", err)
	}
	state.client = client

	resolved, err := doc.Resolve(r.cfg)
	if err != nil {
		return services.Wrap(services.ErrValidation, "discovering", "resolve plan", "", err)
	}
	state.resolved = resolved
	run.MasterPath = resolved.MasterPath(r.cfg.Converter.MasterExt)

	state.staging = run.StagingRoot(r.cfg.Paths.StagingDir)

	selectedTotal := 0
	for _, group := range resolved.Groups {
		groupCtx := services.WithGroup(ctx, group.Name)
		groupLogger := logging.WithContext(groupCtx, r.logger)

		selected, err := manifest.Collect(group.Source, manifest.Rules{
			Extensions: group.Extensions,
			Excludes:   group.Excludes,
			Recursive:  group.Recursive,
		})
		if err != nil {
			return services.Wrap(services.ErrTransient, "discovering", "collect group "+group.Name, "", err)
		}

		m, err := manifest.New(group.Name, selected)
		if err != nil {
			return services.Wrap(services.ErrValidation, "discovering", "build manifest", "", err)
		}

		gs := groupState{
			group:    group,
			manifest: m,
			outDir:   run.GroupDir(r.cfg.Paths.StagingDir, group.Name),
		}

		if m.Empty() {
			groupLogger.Warn("group selected no files, skipping", logging.String("source", group.Source))
			gs.failed = true
			state.groups = append(state.groups, gs)
			continue
		}

		gs.manifestPath = filepath.Join(gs.outDir, "sources.txt")
		if err := manifest.Write(m, gs.manifestPath); err != nil {
			return services.Wrap(services.ErrTransient, "discovering", "write manifest", "", err)
		}

		for _, source := range m.Paths {
			record := &runs.FileRecord{
				RunID:      run.ID,
				Group:      group.Name,
				SourcePath: source,
				State:      runs.FileStatePending,
			}
			if err := r.store.RecordFile(groupCtx, record); err != nil {
				return fmt.Errorf("record file: %w", err)
			}
			state.records = append(state.records, record)
		}

		selectedTotal += len(m.Paths)
		groupLogger.Info(
			"group manifest written",
			logging.String("manifest", gs.manifestPath),
			logging.Int("files", len(m.Paths)),
		)
		state.groups = append(state.groups, gs)
	}

	if selectedTotal == 0 {
		return services.Wrap(services.ErrValidation, "discovering", "select sources", "no group selected any files", nil)
	}

	run.ProgressMessage = fmt.Sprintf("Selected %d files across %d groups", selectedTotal, len(resolved.Groups))
	logger.Info(
		"discovery completed",
		logging.String("converter", binary),
		logging.Int("files", selectedTotal),
		logging.Int("groups", len(resolved.Groups)),
	)
	return nil
}
