package preflight_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"federate/internal/config"
	"federate/internal/preflight"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Staging", dir)
	if !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}

	missing := preflight.CheckDirectoryAccess("Staging", filepath.Join(dir, "absent"))
	if missing.Passed {
		t.Fatal("expected failure for missing directory")
	}
	if !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %q", missing.Detail)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	notDir := preflight.CheckDirectoryAccess("Staging", file)
	if notDir.Passed {
		t.Fatal("expected failure for non-directory")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckFreeSpace(dir, 0)
	if !result.Passed {
		t.Fatalf("expected pass with no floor, got %+v", result)
	}

	// An absurd floor must fail on any real machine.
	huge := preflight.CheckFreeSpace(dir, 1<<30)
	if huge.Passed {
		t.Fatalf("expected failure for unreachable floor, got %+v", huge)
	}
}

func TestRunAllReportsConverter(t *testing.T) {
	t.Setenv("PATH", "")
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Workflow.MinFreeGiB = 0

	results := preflight.RunAll(&cfg)
	if len(results) < 3 {
		t.Fatalf("expected at least 3 results, got %d", len(results))
	}
	if results[0].Name != "Converter" || results[0].Passed {
		t.Fatalf("expected converter failure, got %+v", results[0])
	}
	if preflight.AllPassed(results) {
		t.Fatal("AllPassed should be false")
	}
}

func TestRunAllPassesWithStubConverter(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "FileToolsTaskRunner.exe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Workflow.MinFreeGiB = 0

	results := preflight.RunAll(&cfg)
	if !preflight.AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
}
