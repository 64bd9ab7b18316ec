package testsupport

import (
	"context"
	"testing"

	"federate/internal/config"
	"federate/internal/runs"
)

// MustOpenStore opens a runs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *runs.Store {
	t.Helper()

	store, err := runs.Open(cfg)
	if err != nil {
		t.Fatalf("runs.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewRun creates a new run row for tests using the provided store.
func NewRun(t testing.TB, store *runs.Store, planPath, masterName string) *runs.Run {
	t.Helper()

	run, err := store.NewRun(context.Background(), planPath, masterName)
	if err != nil {
		t.Fatalf("store.NewRun: %v", err)
	}
	return run
}
