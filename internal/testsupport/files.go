package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteSources creates dir and fills it with empty CAD files for the given
// names, returning the created paths in name order.
func WriteSources(t testing.TB, dir string, names ...string) []string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("cad"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		paths = append(paths, path)
	}
	return paths
}

// WritePlan writes a minimal batch plan with the given master name and
// name->source groups, returning the plan path.
func WritePlan(t testing.TB, master string, groups map[string]string) string {
	t.Helper()

	var b strings.Builder
	fmt.Fprintf(&b, "master:\n  name: %s\ngroups:\n", master)
	for name, source := range groups {
		fmt.Fprintf(&b, "  - name: %s\n    source: %s\n", name, source)
	}
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return path
}
