package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"federate/internal/config"
	"federate/internal/converter"
	"federate/internal/deps"
	"federate/internal/logging"
	"federate/internal/manifest"
	"federate/internal/plan"
	"federate/internal/runs"
	"federate/internal/services"
	"federate/internal/transfer"
)

// Runner drives one batch through discovery, conversion, assembly, and
// publication, persisting every transition to the run store.
type Runner struct {
	cfg       *config.Config
	store     *runs.Store
	logger    *slog.Logger
	publisher *transfer.Publisher

	// newClient builds the converter client after discovery resolves the
	// binary. Swapped in tests.
	newClient func(binary string) (*converter.Client, error)
}

// Options configure a single batch execution.
type Options struct {
	// KeepStaging retains the per-run staging directory after success.
	KeepStaging bool
}

// New constructs a runner with production dependencies.
func New(cfg *config.Config, store *runs.Store, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  store,
		logger: logging.WithComponent(logger, "runner"),
		publisher: transfer.NewPublisher(store, logger, transfer.Options{
			Retries:    cfg.Workflow.TransferRetries,
			RetryDelay: time.Duration(cfg.Workflow.TransferRetryDelay) * time.Second,
			Overwrite:  cfg.Converter.OverwriteExisting,
		}),
		newClient: func(binary string) (*converter.Client, error) {
			return converter.New(binary, converter.Settings{
				FileVersion:       cfg.Converter.FileVersion,
				ConvertTimeout:    time.Duration(cfg.Converter.ConvertTimeout) * time.Second,
				AssembleTimeout:   time.Duration(cfg.Converter.AssembleTimeout) * time.Second,
				ConvertedExt:      cfg.Converter.ConvertedExt,
				OverwriteExisting: cfg.Converter.OverwriteExisting,
			})
		},
	}
}

// WithClientFactory overrides converter construction (used in tests).
func (r *Runner) WithClientFactory(factory func(binary string) (*converter.Client, error)) *Runner {
	if factory != nil {
		r.newClient = factory
	}
	return r
}

// batchState carries working data between stages of one run.
type batchState struct {
	resolved *plan.Resolved
	binary   string
	client   *converter.Client
	staging  string
	groups   []groupState
	records  []*runs.FileRecord
	// stagedMaster is the assembled model awaiting publication.
	stagedMaster string
	keepStaging  bool
}

type groupState struct {
	group        plan.ResolvedGroup
	manifest     *manifest.Manifest
	manifestPath string
	outDir       string
	failed       bool
	converted    []string
}

// Execute runs the full batch for planPath. The returned run reflects the
// final persisted state even when err is non-nil.
func (r *Runner) Execute(ctx context.Context, planPath string, opts Options) (*runs.Run, error) {
	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "ensure directories", "", err)
	}

	lock := flock.New(filepath.Join(r.cfg.Paths.LogDir, "federate.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another federate run is already in progress")
	}
	defer func() { _ = lock.Unlock() }()

	doc, err := plan.Load(planPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "setup", "load plan", "", err)
	}

	run, err := r.store.NewRun(ctx, planPath, doc.Master.Name)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	state := &batchState{keepStaging: opts.KeepStaging || r.cfg.Workflow.KeepStaging}
	runCtx := services.WithRunID(ctx, run.ID)

	type stageDef struct {
		name       string
		processing runs.Status
		fn         func(context.Context, *runs.Run, *batchState) error
	}
	stages := []stageDef{
		{"discovering", runs.StatusDiscovering, func(ctx context.Context, run *runs.Run, st *batchState) error {
			return r.discover(ctx, run, st, doc)
		}},
		{"converting", runs.StatusConverting, r.convert},
		{"assembling", runs.StatusAssembling, r.assemble},
		{"publishing", runs.StatusPublishing, r.publish},
	}

	for _, stage := range stages {
		if err := r.execStage(runCtx, run, state, stage.name, stage.processing, stage.fn); err != nil {
			return run, err
		}
	}

	run.Status = runs.StatusCompleted
	run.ProgressStage = "Completed"
	run.ProgressMessage = fmt.Sprintf("Master model: %s", run.MasterPath)
	if err := r.store.Update(runCtx, run); err != nil {
		return run, fmt.Errorf("persist completion: %w", err)
	}

	logging.WithContext(runCtx, r.logger).Info(
		"batch completed",
		logging.String("master", run.MasterPath),
		logging.Int("files", len(state.records)),
	)
	return run, nil
}

// cleanupStaging removes the per-run staging tree after a fully published
// batch. Staging survives when transfers failed so retained copies stay
// recoverable.
func (r *Runner) cleanupStaging(ctx context.Context, state *batchState, retainedFailures bool) {
	if state.staging == "" || state.keepStaging || retainedFailures {
		return
	}
	if err := os.RemoveAll(state.staging); err != nil {
		logging.WithContext(ctx, r.logger).Warn(
			"failed to remove staging directory",
			logging.String("staging", state.staging),
			logging.Error(err),
		)
	}
}

func (r *Runner) locateConverter() (string, error) {
	binary, err := deps.LocateConverter(r.cfg)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "discovering", "locate converter", "", err)
	}
	return binary, nil
}
