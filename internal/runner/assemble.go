package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"federate/internal/logging"
	"federate/internal/manifest"
	"federate/internal/runs"
	"federate/internal/services"
)

// assemble federates every converted sub-model into the staged master file.
// Failed groups simply contribute nothing to the master manifest.
func (r *Runner) assemble(ctx context.Context, run *runs.Run, state *batchState) error {
	logger := logging.WithContext(ctx, r.logger)

	var converted []string
	for _, gs := range state.groups {
		converted = append(converted, gs.converted...)
	}
	if len(converted) == 0 {
		return services.Wrap(services.ErrValidation, "assembling", "build master manifest",
			"no converted sub-models to federate", nil)
	}

	m, err := manifest.New(state.resolved.MasterName, converted)
	if err != nil {
		return services.Wrap(services.ErrValidation, "assembling", "build master manifest", "", err)
	}

	manifestPath := filepath.Join(state.staging, "master.txt")
	if err := manifest.Write(m, manifestPath); err != nil {
		return services.Wrap(services.ErrTransient, "assembling", "write master manifest", "", err)
	}

	state.stagedMaster = filepath.Join(state.staging, state.resolved.MasterName+r.cfg.Converter.MasterExt)
	logPath := filepath.Join(state.staging, "assemble.log")

	run.ProgressMessage = fmt.Sprintf("Federating %d sub-models", len(m.Paths))
	if err := r.store.Update(ctx, run); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}

	if err := state.client.Assemble(ctx, m, manifestPath, state.stagedMaster, logPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "assembling", "federate master", "", err)
	}

	logger.Info(
		"master assembled",
		logging.String("master", state.stagedMaster),
		logging.Int("sub_models", len(m.Paths)),
	)
	run.ProgressMessage = fmt.Sprintf("Assembled %s from %d sub-models", filepath.Base(state.stagedMaster), len(m.Paths))
	return nil
}
