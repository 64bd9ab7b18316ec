package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"federate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It stubs the converter binary so discovery succeeds and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Converter.Path = StubConverter(t, base)
	cfgVal.Workflow.TransferRetries = 1
	cfgVal.Workflow.TransferRetryDelay = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithoutConverter clears the converter path so discovery must fail.
func WithoutConverter() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Converter.Path = ""
		b.cfg.Converter.Binary = "no-such-converter-binary"
		b.cfg.Converter.SearchDirs = nil
	}
}

// WithOverwrite sets the overwrite behaviour on the test config.
func WithOverwrite(overwrite bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Converter.OverwriteExisting = overwrite
	}
}

// StubConverter writes a stub converter executable under dir and returns its
// path.
func StubConverter(t testing.TB, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "FileToolsTaskRunner.exe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub converter: %v", err)
	}
	return path
}
