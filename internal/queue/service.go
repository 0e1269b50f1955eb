package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/errors"
)

// Caller identifies the job owner and its service tier. The tier decides
// how much of a requested priority is honored.
type Caller struct {
	Name string
	Tier string
}

// CreateRequest carries the input of a job submission.
type CreateRequest struct {
	Code     string
	Filename string
	Layers   []int
	Priority string
	Options  map[string]interface{}
}

// Service implements the owner-facing queue operations on top of a Store.
type Service struct {
	store  Store
	logger hclog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewService builds a Service. A non-positive ttl falls back to the default
// 24 hour retention.
func NewService(store Store, logger hclog.Logger, ttl time.Duration) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if ttl <= 0 {
		ttl = config.DefaultJobTTL
	}
	return &Service{
		store:  store,
		logger: logger,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateJob validates the request, resolves the effective priority from the
// caller tier and persists a pending job. Submission never blocks on
// execution; the job is picked up out-of-band by the worker pool.
func (s *Service) CreateJob(ctx context.Context, caller Caller, req CreateRequest) (*Job, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, errors.NewValidationError("code", "must not be empty")
	}
	layers, err := validateLayers(req.Layers)
	if err != nil {
		return nil, err
	}
	priority, err := resolvePriority(caller.Tier, req.Priority)
	if err != nil {
		return nil, err
	}

	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		Owner:     caller.Name,
		Status:    StatusPending,
		Priority:  priority,
		Code:      req.Code,
		Filename:  req.Filename,
		Layers:    layers,
		Options:   req.Options,
		Progress:  0,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}
	s.logger.Info("job created",
		"job_id", job.ID,
		"owner", caller.Name,
		"priority", priority,
		"layers", layers,
	)
	return job, nil
}

// GetJob returns the job with the given id if it belongs to the caller.
// Jobs owned by someone else behave exactly like missing ones.
func (s *Service) GetJob(ctx context.Context, caller Caller, id string) (*Job, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Owner != caller.Name {
		return nil, errors.ErrNotFound
	}
	return job, nil
}

// CancelJob moves a non-terminal job owned by the caller to cancelled and
// stamps the completion time. Any illegal request, including unknown ids,
// foreign owners, finished jobs and update races lost against a worker,
// returns false rather than an error.
func (s *Service) CancelJob(ctx context.Context, caller Caller, id string) bool {
	job, err := s.store.Get(ctx, id)
	if err != nil || job.Owner != caller.Name || job.Terminal() {
		return false
	}
	now := s.now()
	job.Status = StatusCancelled
	job.CompletedAt = &now
	if err := s.store.Update(ctx, job); err != nil {
		return false
	}
	s.logger.Info("job cancelled", "job_id", id, "owner", caller.Name)
	return true
}

// Sweep deletes terminal jobs whose retention window has passed and returns
// how many were removed. It never touches non-terminal jobs and is safe to
// run concurrently with submissions and lookups.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	jobs, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	now := s.now()
	removed := 0
	for _, job := range jobs {
		if !job.Terminal() || !job.Expired(now) {
			continue
		}
		if err := s.store.Delete(ctx, job.ID); err != nil {
			s.logger.Error("failed to delete expired job", "job_id", job.ID, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Debug("expired jobs swept", "removed", removed)
	}
	return removed, nil
}

// StartSweeper runs Sweep on the given interval until ctx is done. A
// non-positive interval falls back to the default.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = config.DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.Error("sweep failed", "error", err)
				}
			}
		}
	}()
}

// validateLayers checks the requested layers against the supported range and
// defaults an empty request to the full set. Order and duplicates are
// preserved here; the engine normalizes.
func validateLayers(layers []int) ([]int, error) {
	if len(layers) == 0 {
		full := make([]int, 0, config.MaxLayer)
		for l := config.MinLayer; l <= config.MaxLayer; l++ {
			full = append(full, l)
		}
		return full, nil
	}
	for _, l := range layers {
		if l < config.MinLayer || l > config.MaxLayer {
			return nil, errors.NewValidationError("layers",
				fmt.Sprintf("layer %d out of supported range %d..%d", l, config.MinLayer, config.MaxLayer))
		}
	}
	out := make([]int, len(layers))
	copy(out, layers)
	return out, nil
}

// resolvePriority applies the tier policy: the base tier always runs at
// normal, the pro tier caps requests at high, the enterprise tier is honored
// up to urgent. An absent request means normal.
func resolvePriority(tier, requested string) (Priority, error) {
	p := PriorityNormal
	if requested != "" {
		p = Priority(requested)
		if !p.Valid() {
			return "", errors.NewValidationError("priority",
				fmt.Sprintf("unknown priority '%s'", requested))
		}
	}
	switch tier {
	case config.TierFree, "":
		return PriorityNormal, nil
	case config.TierPro:
		if p.rank() > PriorityHigh.rank() {
			p = PriorityHigh
		}
		return p, nil
	case config.TierEnterprise:
		return p, nil
	}
	return "", errors.NewValidationError("tier", fmt.Sprintf("unknown tier '%s'", tier))
}
