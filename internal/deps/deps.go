package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"federate/internal/config"
)

// Status reports the availability of an external dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// wellKnownDirs are probed after PATH and configured search dirs. These cover
// the vendor install locations seen on site machines.
var wellKnownDirs = []string{
	"/opt/navistools",
	"/usr/local/navistools",
	"C:\\Program Files\\Autodesk\\Navisworks Manage 2021",
	"C:\\Program Files\\Autodesk\\Navisworks Manage 2020",
}

// LocateConverter resolves the conversion executable from the configuration:
// an explicit path wins, then PATH lookup, then configured search directories,
// then well-known install directories.
func LocateConverter(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("config is required")
	}
	if explicit := strings.TrimSpace(cfg.Converter.Path); explicit != "" {
		if info, err := os.Stat(explicit); err != nil || info.IsDir() {
			return "", fmt.Errorf("converter not found at configured path %q", explicit)
		}
		return explicit, nil
	}

	binary := strings.TrimSpace(cfg.Converter.Binary)
	if binary == "" {
		return "", fmt.Errorf("converter binary not configured")
	}

	if resolved, err := exec.LookPath(binary); err == nil {
		return resolved, nil
	}

	searched := append(append([]string{}, cfg.Converter.SearchDirs...), wellKnownDirs...)
	for _, dir := range searched {
		candidate := filepath.Join(dir, binary)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("converter binary %q not found on PATH or in %d search directories", binary, len(searched))
}

// CheckConverter produces an availability report for the converter.
func CheckConverter(cfg *config.Config) Status {
	status := Status{
		Name:        "Converter",
		Description: "external CAD conversion executable",
	}
	resolved, err := LocateConverter(cfg)
	if err != nil {
		if cfg != nil {
			status.Command = strings.TrimSpace(cfg.Converter.Binary)
		}
		status.Detail = err.Error()
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}
