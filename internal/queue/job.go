// Package queue implements the asynchronous analysis job queue: the job
// state machine, a pluggable store with an atomic claim, the owner-facing
// service operations and the in-process worker pool.
package queue

import (
	"time"

	"github.com/mendio-dev/mendio/internal/core"
)

// Status is the job lifecycle state. Legal transitions are
// pending→processing→{completed,failed} plus pending|processing→cancelled.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from one status to another.
// Same-state writes are allowed while non-terminal so progress updates go
// through the same path as state changes.
func CanTransition(from, to Status) bool {
	if from == to {
		return !from.Terminal()
	}
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusCancelled
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	}
	return false
}

// Priority orders pending jobs for claiming.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (p Priority) rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// EstimatedWait returns the advisory wait string for jobs at this priority.
func (p Priority) EstimatedWait() string {
	switch p {
	case PriorityUrgent:
		return "< 10 seconds"
	case PriorityHigh:
		return "< 30 seconds"
	case PriorityLow:
		return "2-5 minutes"
	default:
		return "1-2 minutes"
	}
}

// Job is one persisted unit of asynchronous analysis work. Status, progress
// and result are written by the worker only; the owner may cancel while the
// job is non-terminal. Result is immutable once set and may be shared.
type Job struct {
	ID          string                 `json:"id"`
	Owner       string                 `json:"owner"`
	Status      Status                 `json:"status"`
	Priority    Priority               `json:"priority"`
	Code        string                 `json:"code"`
	Filename    string                 `json:"filename,omitempty"`
	Layers      []int                  `json:"layers"`
	Options     map[string]interface{} `json:"options,omitempty"`
	Result      *core.Report           `json:"result,omitempty"`
	ArtifactURL string                 `json:"artifactUrl,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Progress    int                    `json:"progress"`
	CreatedAt   time.Time              `json:"createdAt"`
	StartedAt   *time.Time             `json:"startedAt,omitempty"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
	ExpiresAt   time.Time              `json:"expiresAt"`
}

// Terminal reports whether the job reached a final state.
func (j *Job) Terminal() bool {
	return j.Status.Terminal()
}

// Expired reports whether the job's retention window has passed.
func (j *Job) Expired(now time.Time) bool {
	return now.After(j.ExpiresAt)
}

// Clone returns a deep copy safe to hand across goroutines. The result
// report is shared by pointer; it is never mutated after the worker sets it.
func (j *Job) Clone() *Job {
	c := *j
	if j.Layers != nil {
		c.Layers = make([]int, len(j.Layers))
		copy(c.Layers, j.Layers)
	}
	if j.Options != nil {
		c.Options = make(map[string]interface{}, len(j.Options))
		for k, v := range j.Options {
			c.Options[k] = v
		}
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Projection is the caller-visible view of a job returned by polling. It
// omits the input code and the owner.
type Projection struct {
	ID          string       `json:"id"`
	Status      Status       `json:"status"`
	Progress    int          `json:"progress"`
	Result      *core.Report `json:"result,omitempty"`
	ArtifactURL string       `json:"artifactUrl,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	StartedAt   *time.Time   `json:"startedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// Projection returns the caller-visible view of the job.
func (j *Job) Projection() Projection {
	return Projection{
		ID:          j.ID,
		Status:      j.Status,
		Progress:    j.Progress,
		Result:      j.Result,
		ArtifactURL: j.ArtifactURL,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
