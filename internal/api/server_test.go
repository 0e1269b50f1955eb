package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/queue"
	"github.com/mendio-dev/mendio/pkg/shared/config"
)

const (
	freeKey       = "key-free"
	enterpriseKey = "key-enterprise"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Callers = []config.Caller{
		{Key: freeKey, Name: "acme", Tier: "free"},
		{Key: enterpriseKey, Name: "globex", Tier: "enterprise"},
	}

	facade := core.New(cfg, nil)
	jobs := queue.NewService(queue.NewMemoryStore(), nil, 0)
	srv := NewServer(cfg, nil, facade, jobs)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, key string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if key != "" {
		req.Header.Set("X-Api-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var health HealthResponse
	decodeBody(t, resp, &health)
	if health.Status != "ok" {
		t.Fatalf("health status = %q, want %q", health.Status, "ok")
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	body := AnalyzeRequest{Code: "var x = 1;"}

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/analyze", "", body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no key: status = %d, want 401", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/v1/analyze", "wrong-key", body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad key: status = %d, want 401", resp.StatusCode)
	}
}

func TestAnalyzeRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/analyze", freeKey, AnalyzeRequest{
		Code:     "console.log('x'); <img src='a'/>",
		Filename: "widget.jsx",
		Layers:   []int{2, 3},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var report core.Report
	decodeBody(t, resp, &report)
	if len(report.Analysis.Issues) != 2 {
		t.Fatalf("issues = %d, want 2", len(report.Analysis.Issues))
	}
	for _, issue := range report.Analysis.Issues {
		if issue.Severity != engine.SeverityWarning {
			t.Fatalf("issue %s severity = %q, want warning", issue.RuleID, issue.Severity)
		}
	}
	if report.Analysis.QualityScore != 90 {
		t.Fatalf("quality = %d, want 90", report.Analysis.QualityScore)
	}
	if report.Metadata.Filename != "widget.jsx" {
		t.Fatalf("metadata filename = %q, want widget.jsx", report.Metadata.Filename)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/analyze", freeKey, AnalyzeRequest{Code: "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty code: status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/v1/analyze", freeKey, nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET: status = %d, want 405", resp.StatusCode)
	}
}

func TestFixRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/fix", freeKey, AnalyzeRequest{
		Code:   "var x = 1;\ndebugger;\n",
		Layers: []int{2},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var report core.Report
	decodeBody(t, resp, &report)
	if report.Fix == nil {
		t.Fatal("fix result missing")
	}
	if !report.Fix.Success {
		t.Fatal("fix reported no changes")
	}
	if strings.Contains(report.Fix.Code, "debugger") {
		t.Fatalf("debugger statement survived: %q", report.Fix.Code)
	}
	if !strings.Contains(report.Fix.Code, "let x") {
		t.Fatalf("var declaration not modernized: %q", report.Fix.Code)
	}
	if len(report.Layers) != 1 {
		t.Fatalf("layer outcomes = %d, want 1", len(report.Layers))
	}
}

func TestJobLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// submit as the free-tier caller
	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/jobs", freeKey, JobRequest{
		AnalyzeRequest: AnalyzeRequest{Code: "var x = 1;"},
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit: status = %d, want 202", resp.StatusCode)
	}
	var accepted JobAccepted
	decodeBody(t, resp, &accepted)
	if accepted.JobID == "" {
		t.Fatal("no job id returned")
	}
	if accepted.Status != queue.StatusPending {
		t.Fatalf("status = %q, want pending", accepted.Status)
	}
	if accepted.EstimatedWait != "1-2 minutes" {
		t.Fatalf("estimated wait = %q, want %q", accepted.EstimatedWait, "1-2 minutes")
	}

	// owner polls
	resp = doJSON(t, http.MethodGet, ts.URL+"/v1/jobs/"+accepted.JobID, freeKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("poll: status = %d, want 200", resp.StatusCode)
	}
	var projection queue.Projection
	decodeBody(t, resp, &projection)
	if projection.ID != accepted.JobID {
		t.Fatalf("projection id = %q, want %q", projection.ID, accepted.JobID)
	}

	// a different caller sees nothing
	resp = doJSON(t, http.MethodGet, ts.URL+"/v1/jobs/"+accepted.JobID, enterpriseKey, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign poll: status = %d, want 404", resp.StatusCode)
	}

	// owner cancels; the second cancel is a no-op
	resp = doJSON(t, http.MethodDelete, ts.URL+"/v1/jobs/"+accepted.JobID, freeKey, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status = %d, want 200", resp.StatusCode)
	}
	var cancel CancelResponse
	decodeBody(t, resp, &cancel)
	if !cancel.Cancelled {
		t.Fatal("cancel of pending job reported false")
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/v1/jobs/"+accepted.JobID, freeKey, nil)
	decodeBody(t, resp, &cancel)
	if cancel.Cancelled {
		t.Fatal("second cancel reported true")
	}
}

func TestJobPriorityByTier(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/jobs", enterpriseKey, JobRequest{
		AnalyzeRequest: AnalyzeRequest{Code: "var x = 1;"},
		Priority:       "urgent",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit: status = %d, want 202", resp.StatusCode)
	}
	var accepted JobAccepted
	decodeBody(t, resp, &accepted)
	if accepted.EstimatedWait != "< 10 seconds" {
		t.Fatalf("estimated wait = %q, want %q", accepted.EstimatedWait, "< 10 seconds")
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/v1/jobs", freeKey, JobRequest{
		AnalyzeRequest: AnalyzeRequest{Code: "var x = 1;", Layers: []int{12}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad layer: status = %d, want 400", resp.StatusCode)
	}
}
