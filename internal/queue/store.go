package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mendio-dev/mendio/pkg/shared/errors"
)

// Store persists analysis jobs. Implementations must make Claim atomic: two
// concurrent claims never return the same job. Update must reject writes
// whose status transition is illegal against the currently stored status, so
// a finished worker cannot resurrect a job the owner cancelled meanwhile.
type Store interface {
	Put(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, job *Job) error
	Claim(ctx context.Context) (*Job, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Job, error)
}

// MemoryStore is the in-process Store used by the serve command and tests.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewMemoryStore returns an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Put stores a new job.
func (s *MemoryStore) Put(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a copy of the job with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return job.Clone(), nil
}

// Update overwrites a stored job. The status transition is checked against
// the stored status, not the caller's stale copy.
func (s *MemoryStore) Update(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[job.ID]
	if !ok {
		return errors.ErrNotFound
	}
	if !CanTransition(current.Status, job.Status) {
		return errors.NewValidationError("status",
			"illegal transition from '"+string(current.Status)+"' to '"+string(job.Status)+"'")
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Claim atomically selects the best pending job, ordered by priority
// descending then creation time ascending, marks it processing and returns
// it. It returns (nil, nil) when nothing is claimable.
func (s *MemoryStore) Claim(ctx context.Context) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *Job
	for _, job := range s.jobs {
		if job.Status != StatusPending {
			continue
		}
		if best == nil || claimBefore(job, best) {
			best = job
		}
	}
	if best == nil {
		return nil, nil
	}
	now := time.Now().UTC()
	best.Status = StatusProcessing
	best.StartedAt = &now
	return best.Clone(), nil
}

// claimBefore reports whether a should be claimed before b.
func claimBefore(a, b *Job) bool {
	if a.Priority.rank() != b.Priority.rank() {
		return a.Priority.rank() > b.Priority.rank()
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Delete removes a job. Deleting an absent job is a no-op so the expiry
// sweep stays idempotent.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

// List returns copies of all stored jobs in creation order.
func (s *MemoryStore) List(ctx context.Context) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs, nil
}
