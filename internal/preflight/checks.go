package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"federate/internal/config"
	"federate/internal/deps"
)

// CheckConverter verifies the conversion executable resolves.
func CheckConverter(cfg *config.Config) Result {
	const name = "Converter"
	status := deps.CheckConverter(cfg)
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: status.Command}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the staging volume holds at least minFreeGiB.
func CheckFreeSpace(path string, minFreeGiB int) Result {
	const name = "Staging space"
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeGiB := float64(stat.Bavail) * float64(stat.Bsize) / (1 << 30)
	detail := fmt.Sprintf("%.1f GiB free in %s", freeGiB, path)
	if minFreeGiB > 0 && freeGiB < float64(minFreeGiB) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %d GiB)", detail, minFreeGiB)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// RunAll evaluates every check a batch run depends on.
func RunAll(cfg *config.Config) []Result {
	staging := CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir)
	results := []Result{
		CheckConverter(cfg),
		staging,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	}
	if staging.Passed {
		results = append(results, CheckFreeSpace(cfg.Paths.StagingDir, cfg.Workflow.MinFreeGiB))
	}
	return results
}
