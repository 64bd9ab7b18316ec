package plan_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"federate/internal/config"
	"federate/internal/plan"
)

func writePlan(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	return &cfg
}

func TestLoadAndResolve(t *testing.T) {
	arch := t.TempDir()
	struc := t.TempDir()

	body := strings.Join([]string{
		"master:",
		"  name: site-master",
		"groups:",
		"  - name: architecture",
		"    source: " + arch,
		"    extensions: [RVT]",
		"  - name: structure",
		"    source: " + struc,
		"    recursive: false",
		"    excludes: ['*_old*']",
	}, "\n")

	p, err := plan.Load(writePlan(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := testConfig(t)
	resolved, err := p.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resolved.MasterName != "site-master" {
		t.Fatalf("unexpected master name: %q", resolved.MasterName)
	}
	if len(resolved.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(resolved.Groups))
	}

	first := resolved.Groups[0]
	if len(first.Extensions) != 1 || first.Extensions[0] != ".rvt" {
		t.Fatalf("group extensions not normalized: %v", first.Extensions)
	}
	if !first.Recursive {
		t.Fatal("expected first group to inherit recursive default")
	}

	second := resolved.Groups[1]
	if second.Recursive {
		t.Fatal("expected second group to override recursive")
	}
	if len(second.Extensions) != len(cfg.Selection.Extensions) {
		t.Fatalf("expected default extensions, got %v", second.Extensions)
	}
	found := false
	for _, pattern := range second.Excludes {
		if pattern == "*_old*" {
			found = true
		}
	}
	if !found {
		t.Fatalf("group excludes missing plan pattern: %v", second.Excludes)
	}

	want := filepath.Join(cfg.Paths.OutputDir, "site-master.nwd")
	if got := resolved.MasterPath(".nwd"); got != want {
		t.Fatalf("master path: got %q want %q", got, want)
	}
}

func TestResolveStripsMasterExtension(t *testing.T) {
	src := t.TempDir()
	p := &plan.Plan{
		Master: plan.Master{Name: "campus.nwd"},
		Groups: []plan.Group{{Name: "a", Source: src}},
	}
	resolved, err := p.Resolve(testConfig(t))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.MasterName != "campus" {
		t.Fatalf("extension not stripped: %q", resolved.MasterName)
	}
}

func TestResolveRejections(t *testing.T) {
	src := t.TempDir()
	cases := []struct {
		name string
		p    plan.Plan
		want string
	}{
		{
			name: "no groups",
			p:    plan.Plan{Master: plan.Master{Name: "m"}},
			want: "no groups",
		},
		{
			name: "missing master name",
			p:    plan.Plan{Groups: []plan.Group{{Name: "a", Source: src}}},
			want: "master.name",
		},
		{
			name: "duplicate group",
			p: plan.Plan{Master: plan.Master{Name: "m"}, Groups: []plan.Group{
				{Name: "a", Source: src},
				{Name: "a", Source: src},
			}},
			want: "duplicate",
		},
		{
			name: "missing source dir",
			p: plan.Plan{Master: plan.Master{Name: "m"}, Groups: []plan.Group{
				{Name: "a", Source: filepath.Join(src, "absent")},
			}},
			want: "absent",
		},
	}

	cfg := testConfig(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.p.Resolve(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	if _, err := plan.Load(writePlan(t, "groups: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
