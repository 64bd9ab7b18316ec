package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"federate/internal/logging"
	"federate/internal/runs"
	"federate/internal/services"
)

// publish moves converted sub-models next to their sources and the staged
// master to its final path. Individual file failures are recorded and
// retained in staging; only a master failure fails the run.
func (r *Runner) publish(ctx context.Context, run *runs.Run, state *batchState) error {
	logger := logging.WithContext(ctx, r.logger)

	outcome, err := r.publisher.PublishFiles(ctx, state.records)
	if err != nil {
		return fmt.Errorf("publish sub-models: %w", err)
	}

	if err := r.publisher.PublishMaster(ctx, state.stagedMaster, run.MasterPath); err != nil {
		r.cleanupStaging(ctx, state, true)
		return services.Wrap(services.ErrTransient, "publishing", "publish master", "", err)
	}

	run.ProgressMessage = fmt.Sprintf("Published %d sub-models and %s",
		outcome.Published, filepath.Base(run.MasterPath))
	logger.Info(
		"batch published",
		logging.String("master", run.MasterPath),
		logging.Int("published", outcome.Published),
		logging.Int("failed", outcome.Failed),
		logging.Int("skipped", outcome.Skipped),
	)
	if outcome.Failed > 0 {
		logger.Warn(
			"some sub-models were not published, staging retained",
			logging.String("staging", state.staging),
			logging.Int("failed", outcome.Failed),
		)
	}

	r.cleanupStaging(ctx, state, outcome.Failed > 0)
	return nil
}
