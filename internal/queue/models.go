package queue

import (
	"strings"
	"time"
)

// WorkItem is one row of the durable backlog.
type WorkItem struct {
	ID        int64
	JobName   string
	TargetID  string
	DedupKey  string
	Processed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DedupKey builds the deterministic key that makes enqueueing idempotent.
// At most one row exists per (jobName, targetID) pair.
func DedupKey(jobName, targetID string) string {
	return jobName + "-" + targetID
}

// NormalizeJobName trims a job name for storage and lookups. An empty result
// means the name is unusable.
func NormalizeJobName(name string) string {
	return strings.TrimSpace(name)
}

// JobStats aggregates backlog counts for one job name.
type JobStats struct {
	JobName   string
	Pending   int
	Processed int
	Oldest    time.Time
}

// Total returns the row count for the job.
func (s JobStats) Total() int {
	return s.Pending + s.Processed
}

// DatabaseHealth captures diagnostic information about the backlog database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}
