package runs

import (
	"path/filepath"
	"strings"
)

// StagingRoot returns the per-run staging directory rooted at base. Runs are
// keyed by UUID so a retry never inherits a dirty staging tree.
func (r Run) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := strings.TrimSpace(r.UUID)
	if segment == "" {
		segment = "run"
	}
	return filepath.Join(base, "run-"+segment)
}

// GroupDir returns the staging directory for one conversion group.
func (r Run) GroupDir(base, group string) string {
	return filepath.Join(r.StagingRoot(base), sanitizeSegment(group))
}

func sanitizeSegment(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-_")
	if out == "" {
		return "group"
	}
	return out
}
