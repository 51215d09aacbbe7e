package domain

// TaskStatus represents the current status of a download task
type TaskStatus string

const (
	StatusIdle        TaskStatus = "idle"
	StatusDownloading TaskStatus = "downloading"
	StatusCompleted   TaskStatus = "completed"
)

// Task is the ephemeral progress record for one in-flight download.
// Progress is scraped from the downloader's text output and is best-effort:
// it is clamped to [0,100] but not guaranteed monotonic.
type Task struct {
	Progress int        `json:"progress"`
	Status   TaskStatus `json:"status"`
}

// IdleTask is returned for unknown task ids: a missing entry means
// "not yet started or already gone", never an error.
func IdleTask() Task {
	return Task{Progress: 0, Status: StatusIdle}
}

// TaskStore holds task progress state keyed by an opaque task id.
// Implementations must treat unknown ids as absent rather than erroring,
// and may bound the number of live entries.
type TaskStore interface {
	Get(taskID string) (Task, bool)
	Set(taskID string, task Task)
	Delete(taskID string)
	Len() int
}

// ClampProgress clamps a scraped percentage into the [0,100] contract.
func ClampProgress(p float64) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return int(p)
}
