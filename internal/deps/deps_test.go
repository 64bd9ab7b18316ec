package deps

import (
	"os"
	"path/filepath"
	"testing"

	"federate/internal/config"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestLocateConverterExplicitPath(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "FileToolsTaskRunner.exe")
	writeStub(t, stub)

	cfg := config.Default()
	cfg.Converter.Path = stub

	resolved, err := LocateConverter(&cfg)
	if err != nil {
		t.Fatalf("LocateConverter: %v", err)
	}
	if resolved != stub {
		t.Fatalf("unexpected path: %q", resolved)
	}
}

func TestLocateConverterExplicitPathMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Converter.Path = filepath.Join(t.TempDir(), "absent.exe")

	if _, err := LocateConverter(&cfg); err == nil {
		t.Fatal("expected error for missing explicit path")
	}
}

func TestLocateConverterPathLookup(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "runner")
	writeStub(t, stub)
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	cfg.Converter.Binary = "runner"

	resolved, err := LocateConverter(&cfg)
	if err != nil {
		t.Fatalf("LocateConverter: %v", err)
	}
	if resolved != stub {
		t.Fatalf("unexpected path: %q", resolved)
	}
}

func TestLocateConverterSearchDirFallback(t *testing.T) {
	searchDir := t.TempDir()
	stub := filepath.Join(searchDir, "FileToolsTaskRunner.exe")
	writeStub(t, stub)
	t.Setenv("PATH", "")

	cfg := config.Default()
	cfg.Converter.SearchDirs = []string{searchDir}

	resolved, err := LocateConverter(&cfg)
	if err != nil {
		t.Fatalf("LocateConverter: %v", err)
	}
	if resolved != stub {
		t.Fatalf("unexpected path: %q", resolved)
	}
}

func TestLocateConverterNotFound(t *testing.T) {
	t.Setenv("PATH", "")

	cfg := config.Default()
	cfg.Converter.SearchDirs = nil

	if _, err := LocateConverter(&cfg); err == nil {
		t.Fatal("expected error when converter is unavailable")
	}
}

func TestCheckConverterReportsDetail(t *testing.T) {
	t.Setenv("PATH", "")

	cfg := config.Default()
	status := CheckConverter(&cfg)
	if status.Available {
		t.Fatal("expected converter to be unavailable")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message")
	}
}

func TestCheckConverterResolvesStub(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "FileToolsTaskRunner.exe")
	writeStub(t, stub)

	cfg := config.Default()
	cfg.Converter.Path = stub

	status := CheckConverter(&cfg)
	if !status.Available {
		t.Fatalf("expected converter to be available, got %#v", status)
	}
	if status.Command != stub {
		t.Fatalf("unexpected resolved command: %q", status.Command)
	}
}
