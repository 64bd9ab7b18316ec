package manifest_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"federate/internal/manifest"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.rvt"))
	touch(t, filepath.Join(dir, "a.RVT"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "old_backup.rvt"))
	touch(t, filepath.Join(dir, "sub", "c.dwg"))

	got, err := manifest.Collect(dir, manifest.Rules{
		Extensions: []string{".rvt", ".dwg"},
		Excludes:   []string{"*backup*"},
		Recursive:  true,
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.RVT"),
		filepath.Join(dir, "b.rvt"),
		filepath.Join(dir, "sub", "c.dwg"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("selection mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestCollectNonRecursiveSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "top.rvt"))
	touch(t, filepath.Join(dir, "sub", "nested.rvt"))

	got, err := manifest.Collect(dir, manifest.Rules{Extensions: []string{".rvt"}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(dir, "top.rvt") {
		t.Fatalf("expected only top-level file, got %v", got)
	}
}

func TestCollectMissingDir(t *testing.T) {
	if _, err := manifest.Collect(filepath.Join(t.TempDir(), "absent"), manifest.Rules{}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNewDeduplicatesAndSorts(t *testing.T) {
	m, err := manifest.New("plant", []string{"/b", "/a", "/b", "", "  "})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []string{"/a", "/b"}
	if !reflect.DeepEqual(m.Paths, want) {
		t.Fatalf("paths mismatch: got %v want %v", m.Paths, want)
	}
	if m.Empty() {
		t.Fatal("manifest should not be empty")
	}
}

func TestNewRequiresName(t *testing.T) {
	if _, err := manifest.New("  ", nil); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestWriteProducesUTF16WithBOM(t *testing.T) {
	m, err := manifest.New("plant", []string{"/projects/ärger.rvt", "/projects/a.rvt"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "plant.txt")
	if err := manifest.Write(m, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) < 2 || raw[0] != 0xFF || raw[1] != 0xFE {
		t.Fatalf("missing UTF-16LE BOM: % x", raw[:2])
	}

	again, err := manifest.Read("plant", path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(again.Paths, m.Paths) {
		t.Fatalf("round trip mismatch:\n got %v\nwant %v", again.Paths, m.Paths)
	}
}

func TestWriteEmptyManifest(t *testing.T) {
	m, err := manifest.New("empty", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := manifest.Write(m, path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	again, err := manifest.Read("empty", path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !again.Empty() {
		t.Fatalf("expected empty manifest, got %v", again.Paths)
	}
}
