package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"federate/internal/manifest"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Settings carry the invocation knobs taken from configuration.
type Settings struct {
	FileVersion       string
	ConvertTimeout    time.Duration
	AssembleTimeout   time.Duration
	ConvertedExt      string
	OverwriteExisting bool
}

// Client wraps the vendor conversion executable. The binary is opaque: the
// client only builds manifests into arguments, applies timeouts, and collects
// whatever model files appear in the output directory.
type Client struct {
	binary   string
	settings Settings
	exec     Executor
}

// New constructs a converter client around a resolved binary path.
func New(binary string, settings Settings, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("converter binary required")
	}
	if settings.ConvertedExt == "" {
		settings.ConvertedExt = ".nwc"
	}
	client := &Client{
		binary:   binary,
		settings: settings,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Result describes the outcome of one converter invocation.
type Result struct {
	// Outputs maps each manifest source path to the produced model file, or
	// "" when the converter emitted nothing for it.
	Outputs map[string]string
	// LogTail holds the last lines of converter output for diagnostics.
	LogTail []string
}

// Convert invokes the converter once for a group manifest, writing sub-models
// into outDir. Sources are paired to outputs by base name.
func (c *Client) Convert(ctx context.Context, m *manifest.Manifest, manifestPath, outDir, logPath string) (*Result, error) {
	if m.Empty() {
		return nil, errors.New("conversion manifest is empty")
	}
	// Output pairing is by base name, so two sources that differ only by
	// extension would fight over one sub-model file.
	stems := make(map[string]string, len(m.Paths))
	for _, source := range m.Paths {
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)))
		if prev, ok := stems[stem]; ok {
			return nil, fmt.Errorf("sources %s and %s would both produce %s%s",
				prev, source, stem, c.settings.ConvertedExt)
		}
		stems[stem] = source
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	runCtx := ctx
	if c.settings.ConvertTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.settings.ConvertTimeout)
		defer cancel()
	}

	args := c.baseArgs(manifestPath, logPath)
	args = append(args, "/od", outDir)

	tail := newTailBuffer(20)
	if err := c.exec.Run(runCtx, c.binary, args, tail.append); err != nil {
		return nil, c.wrapRunError(runCtx, "conversion", err, tail)
	}

	outputs := make(map[string]string, len(m.Paths))
	for _, source := range m.Paths {
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		candidate := filepath.Join(outDir, base+c.settings.ConvertedExt)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			outputs[source] = candidate
		} else {
			outputs[source] = ""
		}
	}

	return &Result{Outputs: outputs, LogTail: tail.lines()}, nil
}

// Assemble invokes the converter once to federate the sub-models listed in
// the master manifest into a single model at masterPath.
func (c *Client) Assemble(ctx context.Context, m *manifest.Manifest, manifestPath, masterPath, logPath string) error {
	if m.Empty() {
		return errors.New("assembly manifest is empty")
	}
	if err := os.MkdirAll(filepath.Dir(masterPath), 0o755); err != nil {
		return fmt.Errorf("create master directory: %w", err)
	}

	runCtx := ctx
	if c.settings.AssembleTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.settings.AssembleTimeout)
		defer cancel()
	}

	args := c.baseArgs(manifestPath, logPath)
	args = append(args, "/of", masterPath)

	tail := newTailBuffer(20)
	if err := c.exec.Run(runCtx, c.binary, args, tail.append); err != nil {
		return c.wrapRunError(runCtx, "assembly", err, tail)
	}

	if info, err := os.Stat(masterPath); err != nil || info.IsDir() {
		return fmt.Errorf("converter produced no master model at %s", masterPath)
	}
	return nil
}

func (c *Client) baseArgs(manifestPath, logPath string) []string {
	args := []string{"/i", manifestPath, "/osd"}
	if c.settings.OverwriteExisting {
		args = append(args, "/over")
	}
	if c.settings.FileVersion != "" {
		args = append(args, "/version", c.settings.FileVersion)
	}
	if logPath != "" {
		args = append(args, "/log", logPath)
	}
	return args
}

func (c *Client) wrapRunError(ctx context.Context, operation string, err error, tail *tailBuffer) error {
	if ctx.Err() != nil {
		err = fmt.Errorf("%w (deadline exceeded)", ctx.Err())
	}
	if lines := tail.lines(); len(lines) > 0 {
		return fmt.Errorf("converter %s: %w (last output: %s)", operation, err, strings.Join(lines, " | "))
	}
	return fmt.Errorf("converter %s: %w", operation, err)
}
