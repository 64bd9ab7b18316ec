package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"federate/internal/config"
	"federate/internal/runs"
	"federate/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *runs.Store
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := filepath.Dir(cfg.Paths.StagingDir)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstaging_dir = %q\noutput_dir = %q\nlog_dir = %q\n\n[converter]\npath = %q\n\n[workflow]\ntransfer_retry_delay = 0\n",
		cfg.Paths.StagingDir,
		cfg.Paths.OutputDir,
		cfg.Paths.LogDir,
		cfg.Converter.Path,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIPlanSummary(t *testing.T) {
	env := setupCLITestEnv(t)

	srcDir := filepath.Join(env.baseDir, "cad")
	testsupport.WriteSources(t, srcDir, "tower.rvt", "site.dwg", "notes.txt")
	planPath := testsupport.WritePlan(t, "Campus", map[string]string{"Architecture": srcDir})

	out, _, err := runCLI(t, []string{"plan", planPath}, env.configPath)
	if err != nil {
		t.Fatalf("plan command: %v", err)
	}
	requireContains(t, out, "Campus.nwd")
	requireContains(t, out, "Architecture")
	// notes.txt is not a CAD extension
	requireContains(t, out, "2 file(s) selected")
}

func TestCLIPlanListsFiles(t *testing.T) {
	env := setupCLITestEnv(t)

	srcDir := filepath.Join(env.baseDir, "cad")
	sources := testsupport.WriteSources(t, srcDir, "tower.rvt")
	planPath := testsupport.WritePlan(t, "Campus", map[string]string{"Architecture": srcDir})

	out, _, err := runCLI(t, []string{"plan", "--files", planPath}, env.configPath)
	if err != nil {
		t.Fatalf("plan --files: %v", err)
	}
	requireContains(t, out, sources[0])
}

func TestCLIPlanRejectsEmptySelection(t *testing.T) {
	env := setupCLITestEnv(t)

	srcDir := filepath.Join(env.baseDir, "empty")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	planPath := testsupport.WritePlan(t, "Campus", map[string]string{"Empty": srcDir})

	if _, _, err := runCLI(t, []string{"plan", planPath}, env.configPath); err == nil {
		t.Fatal("expected error for plan selecting no files")
	}
}

func TestCLIHistoryAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	run := testsupport.NewRun(t, env.store, "/plans/campus.yaml", "Campus")
	run.Status = runs.StatusCompleted
	run.MasterPath = "/models/Campus.nwd"
	run.ProgressMessage = "Master model: /models/Campus.nwd"
	if err := env.store.Update(ctx, run); err != nil {
		t.Fatalf("update run: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history command: %v", err)
	}
	requireContains(t, out, "Campus")
	requireContains(t, out, string(runs.StatusCompleted))

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status command: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Run #%d", run.ID))
	requireContains(t, out, "/models/Campus.nwd")
}

func TestCLIStatusWithoutRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status command: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")
}

func TestCLIReportExportsLatestRun(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	run := testsupport.NewRun(t, env.store, "/plans/campus.yaml", "Campus")
	run.Status = runs.StatusCompleted
	if err := env.store.Update(ctx, run); err != nil {
		t.Fatalf("update run: %v", err)
	}

	target := filepath.Join(t.TempDir(), "report.xlsx")
	out, _, err := runCLI(t, []string{"report", "--output", target}, env.configPath)
	if err != nil {
		t.Fatalf("report command: %v", err)
	}
	requireContains(t, out, target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected report at %s: %v", target, err)
	}
}

func TestCLIRunDryRunSelectsWithoutConverting(t *testing.T) {
	env := setupCLITestEnv(t)

	srcDir := filepath.Join(env.baseDir, "cad")
	testsupport.WriteSources(t, srcDir, "tower.rvt")
	planPath := testsupport.WritePlan(t, "Campus", map[string]string{"Architecture": srcDir})

	out, _, err := runCLI(t, []string{"run", "--dry-run", planPath}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	requireContains(t, out, "1 file(s) selected")

	latest, err := env.store.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != nil {
		t.Fatalf("dry run recorded a run: %+v", latest)
	}
}

func TestCLIPreflightPassesWithStubConverter(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight command: %v", err)
	}
	requireContains(t, out, "All checks passed")
}
