package runs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a batch run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDiscovering Status = "discovering"
	StatusConverting Status = "converting"
	StatusAssembling Status = "assembling"
	StatusPublishing Status = "publishing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// InterruptReason is the error message set when an in-flight run is failed
// because the process stopped.
const InterruptReason = "Run interrupted"

var allStatuses = []Status{
	StatusPending,
	StatusDiscovering,
	StatusConverting,
	StatusAssembling,
	StatusPublishing,
	StatusCompleted,
	StatusFailed,
}

var processingStatuses = map[Status]struct{}{
	StatusDiscovering: {},
	StatusConverting:  {},
	StatusAssembling:  {},
	StatusPublishing:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsProcessing reports whether the status marks an in-flight stage.
func (s Status) IsProcessing() bool {
	_, ok := processingStatuses[s]
	return ok
}

// Terminal reports whether the run reached a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run represents one batch execution persisted in SQLite.
type Run struct {
	ID              int64
	UUID            string
	PlanPath        string
	MasterName      string
	MasterPath      string
	Status          Status
	ErrorMessage    string
	ProgressStage   string
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetFailed marks the run failed with the given message.
func (r *Run) SetFailed(message string) {
	r.Status = StatusFailed
	r.ErrorMessage = strings.TrimSpace(message)
}

// FileState tracks the outcome of a single selected source file.
type FileState string

const (
	FileStatePending       FileState = "pending"
	FileStateConverted     FileState = "converted"
	FileStateConvertFailed FileState = "convert_failed"
	FileStatePublished     FileState = "published"
	FileStatePublishFailed FileState = "publish_failed"
	FileStateSkipped       FileState = "skipped"
)

// FileRecord represents a per-file outcome within a run.
type FileRecord struct {
	ID            int64
	RunID         int64
	Group         string
	SourcePath    string
	ConvertedPath string
	FinalPath     string
	State         FileState
	Detail        string
	UpdatedAt     time.Time
}

// HealthSummary describes aggregated run counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}
