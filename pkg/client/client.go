// Package client is a small typed client for the mendio HTTP API. It keeps
// its own wire types so importers do not pull in the engine internals;
// report payloads pass through as raw JSON.
package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/errors"
	"github.com/mendio-dev/mendio/pkg/shared/httpclient"
)

// AnalyzeRequest is the body for synchronous analysis and fix calls.
type AnalyzeRequest struct {
	Code     string                 `json:"code"`
	Filename string                 `json:"filename,omitempty"`
	Layers   []int                  `json:"layers,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// JobRequest is the body for asynchronous job submission.
type JobRequest struct {
	AnalyzeRequest
	Priority string `json:"priority,omitempty"`
}

// JobAccepted is returned when a job submission is accepted.
type JobAccepted struct {
	JobID         string `json:"jobId"`
	Status        string `json:"status"`
	EstimatedWait string `json:"estimatedWait"`
}

// Job is the polled view of a submitted job. Result carries the full report
// JSON once the job completed.
type Job struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	ArtifactURL string          `json:"artifactUrl,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// Health is the server health view.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to one mendio API server on behalf of one caller.
type Client struct {
	httpc *resty.Client
}

// New builds a Client for the server at baseURL, authenticating every
// request with apiKey. cfg tunes retries, timeouts, TLS and proxy settings.
func New(baseURL, apiKey string, logger hclog.Logger, cfg *config.Config) *Client {
	httpc := httpclient.New(logger, cfg)
	httpc.SetBaseURL(baseURL)
	httpc.SetHeader("X-Api-Key", apiKey)
	httpc.SetHeader("Content-Type", "application/json")
	return &Client{httpc: httpc}
}

// Health checks the server.
func (c *Client) Health() (*Health, error) {
	var h Health
	resp, err := c.httpc.R().
		SetResult(&h).
		Get("/healthz")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError(resp, "health check failed")
	}
	return &h, nil
}

// Analyze runs a synchronous analysis and returns the report JSON.
func (c *Client) Analyze(req AnalyzeRequest) (json.RawMessage, error) {
	return c.run("/v1/analyze", req)
}

// Fix runs a synchronous fix and returns the report JSON.
func (c *Client) Fix(req AnalyzeRequest) (json.RawMessage, error) {
	return c.run("/v1/fix", req)
}

func (c *Client) run(path string, req AnalyzeRequest) (json.RawMessage, error) {
	resp, err := c.httpc.R().
		SetBody(req).
		Post(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError(resp, "analysis request failed")
	}
	return json.RawMessage(resp.Body()), nil
}

// SubmitJob submits an asynchronous job.
func (c *Client) SubmitJob(req JobRequest) (*JobAccepted, error) {
	var accepted JobAccepted
	resp, err := c.httpc.R().
		SetBody(req).
		SetResult(&accepted).
		Post("/v1/jobs")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusAccepted {
		return nil, apiError(resp, "job submission failed")
	}
	return &accepted, nil
}

// GetJob polls a job by id. Unknown ids, including jobs owned by someone
// else, return errors.ErrNotFound.
func (c *Client) GetJob(id string) (*Job, error) {
	var job Job
	resp, err := c.httpc.R().
		SetResult(&job).
		Get("/v1/jobs/" + id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError(resp, "job lookup failed")
	}
	return &job, nil
}

// CancelJob requests cancellation and reports whether the server honored it.
func (c *Client) CancelJob(id string) (bool, error) {
	var cancelled cancelResponse
	resp, err := c.httpc.R().
		SetResult(&cancelled).
		Delete("/v1/jobs/" + id)
	if err != nil {
		return false, err
	}
	if resp.StatusCode() != http.StatusOK {
		return false, apiError(resp, "job cancellation failed")
	}
	return cancelled.Cancelled, nil
}

func apiError(resp *resty.Response, action string) error {
	var e errorResponse
	if err := json.Unmarshal(resp.Body(), &e); err == nil && e.Error != "" {
		return fmt.Errorf("%s: %s (status %d)", action, e.Error, resp.StatusCode())
	}
	return fmt.Errorf("%s: unexpected status %d", action, resp.StatusCode())
}
