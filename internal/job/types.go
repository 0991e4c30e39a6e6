package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobType represents the kind of job
type JobType string

const (
	// JobMerge concatenates subtitle files from the library into one
	// document
	JobMerge JobType = "merge"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job represents a queued batch merge
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// MergeParams are parameters for a merge job: library-relative paths, merged
// in the given order
type MergeParams struct {
	Paths     []string `json:"paths"`
	CreatedBy int64    `json:"created_by,omitempty"`
}

// MergeJobResult points at the merge record a completed job produced
type MergeJobResult struct {
	MergeID     string `json:"merge_id"`
	OutputCues  int    `json:"output_cues"`
	ParseIssues int    `json:"parse_issues"`
}

// JobHandler processes a job and returns the result payload to persist with
// it. The merge handler is provided by the API layer, which owns the
// storage and history wiring.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) (json.RawMessage, error)
