package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/queue"
	"github.com/mendio-dev/mendio/pkg/shared/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: core.Version})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	report, err := s.facade.Analyze(req.Code, requestOptions(req))
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	report, err := s.facade.Fix(r.Context(), req.Code, requestOptions(req), nil)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	caller := callerFrom(r.Context())
	job, err := s.jobs.CreateJob(r.Context(), caller, queue.CreateRequest{
		Code:     req.Code,
		Filename: req.Filename,
		Layers:   req.Layers,
		Priority: req.Priority,
		Options:  req.Options,
	})
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, JobAccepted{
		JobID:         job.ID,
		Status:        job.Status,
		EstimatedWait: job.Priority.EstimatedWait(),
	})
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	caller := callerFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		job, err := s.jobs.GetJob(r.Context(), caller, id)
		if err != nil {
			if err == errors.ErrNotFound {
				s.writeError(w, http.StatusNotFound, "not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.writeJSON(w, http.StatusOK, job.Projection())
	case http.MethodDelete:
		cancelled := s.jobs.CancelJob(r.Context(), caller, id)
		s.writeJSON(w, http.StatusOK, CancelResponse{Cancelled: cancelled})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, bool) {
	var req AnalyzeRequest
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if strings.TrimSpace(req.Code) == "" {
		s.writeError(w, http.StatusBadRequest, "code must not be empty")
		return req, false
	}
	return req, true
}

// writeRunError maps façade and queue errors onto HTTP statuses: rejected
// input is the caller's fault, everything else is ours.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	if errors.IsValidation(err) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("request failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func requestOptions(req AnalyzeRequest) engine.Options {
	verbose := false
	if req.Options != nil {
		if b, ok := req.Options["verbose"].(bool); ok {
			verbose = b
		}
	}
	return engine.Options{
		Filename: req.Filename,
		Layers:   req.Layers,
		Verbose:  verbose,
	}
}
