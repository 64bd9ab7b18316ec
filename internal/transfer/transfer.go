package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"federate/internal/fileutil"
	"federate/internal/logging"
	"federate/internal/runs"
)

// Publisher moves converted models from staging back to their canonical
// locations. Sub-models land next to their CAD sources; the master model
// lands in the plan's output directory.
type Publisher struct {
	store      *runs.Store
	logger     *slog.Logger
	retries    int
	retryDelay time.Duration
	overwrite  bool
}

// Options configure publication behaviour.
type Options struct {
	Retries    int
	RetryDelay time.Duration
	Overwrite  bool
}

// NewPublisher constructs a publisher. A nil logger falls back to no-op.
func NewPublisher(store *runs.Store, logger *slog.Logger, opts Options) *Publisher {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	return &Publisher{
		store:      store,
		logger:     logging.WithComponent(logger, "transfer"),
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		overwrite:  opts.Overwrite,
	}
}

// Outcome summarizes a publication pass.
type Outcome struct {
	Published int
	Failed    int
	Skipped   int
}

// PublishFiles transfers every converted record to its canonical location.
// A locked or unwritable destination records a per-file failure and the pass
// continues; the staging copy is retained for manual recovery. The returned
// error covers persistence problems only, never individual transfers.
func (p *Publisher) PublishFiles(ctx context.Context, records []*runs.FileRecord) (Outcome, error) {
	logger := logging.WithContext(ctx, p.logger)
	var outcome Outcome

	for _, record := range records {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		if record.State != runs.FileStateConverted || record.ConvertedPath == "" {
			outcome.Skipped++
			continue
		}

		dest := filepath.Join(filepath.Dir(record.SourcePath), filepath.Base(record.ConvertedPath))
		if err := p.moveWithRetry(ctx, record.ConvertedPath, dest); err != nil {
			outcome.Failed++
			record.State = runs.FileStatePublishFailed
			record.Detail = err.Error()
			logger.Warn(
				"transfer failed, staging copy retained",
				logging.String("source", record.SourcePath),
				logging.String("destination", dest),
				logging.String("staged", record.ConvertedPath),
				logging.Error(err),
			)
		} else {
			outcome.Published++
			record.State = runs.FileStatePublished
			record.FinalPath = dest
			record.Detail = ""
			logger.Info(
				"sub-model published",
				logging.String("destination", dest),
			)
		}

		if err := p.store.UpdateFile(ctx, record); err != nil {
			return outcome, fmt.Errorf("persist file outcome: %w", err)
		}
	}

	return outcome, nil
}

// PublishMaster transfers the assembled master model to its canonical
// location.
func (p *Publisher) PublishMaster(ctx context.Context, stagedMaster, finalMaster string) error {
	if err := os.MkdirAll(filepath.Dir(finalMaster), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := p.moveWithRetry(ctx, stagedMaster, finalMaster); err != nil {
		return fmt.Errorf("publish master model: %w", err)
	}
	logging.WithContext(ctx, p.logger).Info(
		"master model published",
		logging.String("destination", finalMaster),
	)
	return nil
}

func (p *Publisher) moveWithRetry(ctx context.Context, src, dest string) error {
	if !p.overwrite {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("destination %s already exists", dest)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= p.retries; attempt++ {
		if attempt > 1 && p.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryDelay):
			}
		}

		lastErr = replaceFile(src, dest)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("after %d attempts: %w", p.retries, lastErr)
}

// replaceFile removes a pre-existing destination before moving so a stale
// model never survives next to a fresh one.
func replaceFile(src, dest string) error {
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing model: %w", err)
	}
	return fileutil.MoveFile(src, dest)
}
