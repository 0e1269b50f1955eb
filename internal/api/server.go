// Package api exposes the analysis engine and the job queue over HTTP.
// Synchronous runs go through POST /v1/analyze and /v1/fix; asynchronous
// work is submitted to /v1/jobs and polled by id. Callers authenticate with
// an API key resolved against the configured caller table.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/queue"
	"github.com/mendio-dev/mendio/pkg/shared/config"
)

type ctxKey int

const callerKey ctxKey = iota

// Server routes HTTP requests to the core façade and the job queue service.
type Server struct {
	logger  hclog.Logger
	facade  *core.Facade
	jobs    *queue.Service
	callers map[string]queue.Caller
	httpSrv *http.Server
}

// NewServer wires the façade and the queue service behind the HTTP routes.
func NewServer(cfg *config.Config, logger hclog.Logger, facade *core.Facade, jobs *queue.Service) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	callers := make(map[string]queue.Caller)
	addr := config.DefaultServerAddr
	if cfg != nil {
		for _, c := range cfg.Server.Callers {
			callers[c.Key] = queue.Caller{Name: c.Name, Tier: c.Tier}
		}
		if cfg.Server.Addr != "" {
			addr = cfg.Server.Addr
		}
	}

	s := &Server{
		logger:  logger,
		facade:  facade,
		jobs:    jobs,
		callers: callers,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/v1/analyze", s.requireCaller(http.HandlerFunc(s.handleAnalyze)))
	mux.Handle("/v1/fix", s.requireCaller(http.HandlerFunc(s.handleFix)))
	mux.Handle("/v1/jobs", s.requireCaller(http.HandlerFunc(s.handleJobs)))
	mux.Handle("/v1/jobs/", s.requireCaller(http.HandlerFunc(s.handleJobByID)))

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.withLogging(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, mainly for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// requireCaller resolves the API key to a configured caller. Unknown keys
// get a 401 without leaking whether any part of the key matched.
func (s *Server) requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Api-Key")
		if key == "" {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				key = strings.TrimPrefix(h, "Bearer ")
			}
		}
		caller, ok := s.callers[key]
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "unknown API key")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)))
	})
}

func callerFrom(ctx context.Context) queue.Caller {
	caller, _ := ctx.Value(callerKey).(queue.Caller)
	return caller
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
