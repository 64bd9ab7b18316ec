package runner

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"federate/internal/logging"
	"federate/internal/runs"
	"federate/internal/services"
)

// execStage applies the transition semantics every stage shares: persist the
// processing status, run the stage, persist the result or the failure.
func (r *Runner) execStage(
	ctx context.Context,
	run *runs.Run,
	state *batchState,
	name string,
	processing runs.Status,
	fn func(context.Context, *runs.Run, *batchState) error,
) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)

	run.Status = processing
	run.ProgressStage = stageLabel(processing)
	run.ProgressMessage = fmt.Sprintf("%s started", stageLabel(processing))
	run.ErrorMessage = ""
	if err := r.store.Update(stageCtx, run); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	logger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(processing)),
	)

	startMessage := run.ProgressMessage

	if err := fn(stageCtx, run, state); err != nil {
		message := strings.TrimSpace(services.Details(err).Message)
		if message == "" {
			message = strings.TrimSpace(err.Error())
		}
		run.SetFailed(message)
		logger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_message", message),
			logging.Error(err),
		)
		// The stage context may already be cancelled (interrupt, timeout);
		// the failure transition must still reach the store.
		if storeErr := r.store.Update(context.WithoutCancel(stageCtx), run); storeErr != nil {
			logger.Error("failed to persist stage failure", logging.Error(storeErr))
		}
		return err
	}

	if run.ProgressMessage == startMessage {
		run.ProgressMessage = fmt.Sprintf("%s finished", stageLabel(processing))
	}
	if err := r.store.Update(stageCtx, run); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("progress_message", run.ProgressMessage),
	)
	return nil
}

func stageLabel(status runs.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
