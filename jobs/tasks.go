package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportExport renders an admin report PDF into an artifact.
	TaskReportExport = "reports:export"
	// TaskReportCacheRefresh drops cached report overviews.
	TaskReportCacheRefresh = "reports:cache_refresh"
)

// ExportKind selects which PDF a report export job produces.
type ExportKind string

const (
	ExportFull  ExportKind = "full"
	ExportUsers ExportKind = "users"
)

// ParseExportKind validates a kind received over HTTP or from a payload.
func ParseExportKind(raw string) (ExportKind, error) {
	switch k := ExportKind(raw); k {
	case ExportFull, ExportUsers:
		return k, nil
	case "":
		return ExportFull, nil
	default:
		return "", fmt.Errorf("jobs: unknown export kind %q", raw)
	}
}

// ReportExportPayload identifies the requesting session and the artifact slot.
type ReportExportPayload struct {
	JobID     string     `json:"job_id"`
	SessionID string     `json:"session_id"`
	Kind      ExportKind `json:"kind"`
}

// NewReportExportTask constructs an Asynq task.
func NewReportExportTask(payload ReportExportPayload) (*asynq.Task, error) {
	if payload.JobID == "" || payload.SessionID == "" {
		return nil, fmt.Errorf("jobs: export payload requires job and session ids")
	}
	if _, err := ParseExportKind(string(payload.Kind)); err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportExport, data), nil
}

// NewReportCacheRefreshTask constructs the periodic cache refresh task.
func NewReportCacheRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskReportCacheRefresh, nil)
}
