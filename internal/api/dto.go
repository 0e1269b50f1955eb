package api

import "github.com/mendio-dev/mendio/internal/queue"

// AnalyzeRequest is the body of POST /v1/analyze and POST /v1/fix.
type AnalyzeRequest struct {
	Code     string                 `json:"code"`
	Filename string                 `json:"filename,omitempty"`
	Layers   []int                  `json:"layers,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// JobRequest is the body of POST /v1/jobs. Priority is a request, not a
// guarantee; the caller's tier decides how much of it is honored.
type JobRequest struct {
	AnalyzeRequest
	Priority string `json:"priority,omitempty"`
}

// JobAccepted is the response of POST /v1/jobs.
type JobAccepted struct {
	JobID         string       `json:"jobId"`
	Status        queue.Status `json:"status"`
	EstimatedWait string       `json:"estimatedWait"`
}

// CancelResponse is the response of DELETE /v1/jobs/{id}. Cancellation is
// advisory; an illegal request yields cancelled=false, not an error status.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// HealthResponse is the response of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the uniform error body for all non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
