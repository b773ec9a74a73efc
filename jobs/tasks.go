package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-loads the report cache for configured company codes.
	TaskReportWarmup = "purchase:report:warmup"
	// TaskCacheBump invalidates every cached report.
	TaskCacheBump = "purchase:cache:bump"
)

// ReportWarmupPayload names the company codes to warm. An empty list falls
// back to the codes configured on the job.
type ReportWarmupPayload struct {
	CompanyCodes []string `json:"companyCodes,omitempty"`
}

// NewReportWarmupTask constructs a warmup task.
func NewReportWarmupTask(companyCodes ...string) (*asynq.Task, error) {
	codes := make([]string, 0, len(companyCodes))
	for _, code := range companyCodes {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	data, err := json.Marshal(ReportWarmupPayload{CompanyCodes: codes})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode warmup payload: %w", err)
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// CacheBumpPayload records why the cache was invalidated.
type CacheBumpPayload struct {
	Reason string `json:"reason"`
}

// NewCacheBumpTask constructs a cache invalidation task.
func NewCacheBumpTask(reason string) (*asynq.Task, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "manual"
	}
	data, err := json.Marshal(CacheBumpPayload{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode cache bump payload: %w", err)
	}
	return asynq.NewTask(TaskCacheBump, data), nil
}
