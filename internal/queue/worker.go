package queue

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/transform"
	"github.com/mendio-dev/mendio/pkg/shared/config"
)

const defaultPollInterval = 200 * time.Millisecond

// Runner executes one analysis or fix run over a job's input. Implemented
// by core.Facade.
type Runner interface {
	Analyze(code string, opts engine.Options) (*core.Report, error)
	Fix(ctx context.Context, code string, opts engine.Options, progress core.ProgressFunc) (*core.Report, error)
}

// Uploader persists a completed result outside the queue. Implemented by
// the artifacts store.
type Uploader interface {
	Upload(owner string, report *core.Report) (string, error)
}

// Pool runs a fixed number of workers that claim pending jobs, execute them
// through the runner and write the terminal state back to the store.
type Pool struct {
	store    Store
	runner   Runner
	uploader Uploader
	logger   hclog.Logger
	workers  int
	interval time.Duration
	wg       sync.WaitGroup
}

// NewPool builds a worker pool. Non-positive worker counts fall back to the
// default pool size.
func NewPool(store Store, runner Runner, logger hclog.Logger, workers int) *Pool {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if workers <= 0 {
		workers = config.DefaultQueueWorkers
	}
	return &Pool{
		store:    store,
		runner:   runner,
		logger:   logger,
		workers:  workers,
		interval: defaultPollInterval,
	}
}

// SetUploader enables artifact upload for jobs submitted with the upload
// option. Must be called before Start.
func (p *Pool) SetUploader(uploader Uploader) {
	p.uploader = uploader
}

// Start launches the workers. They run until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, p.logger.With("worker", id))
		}(i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, logger hclog.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := p.store.Claim(ctx)
		if err != nil {
			logger.Error("failed to claim job", "error", err)
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.interval):
			}
			continue
		}
		p.process(ctx, logger, job)
	}
}

// process runs one claimed job to a terminal state. Cancellation is
// cooperative: between layers the worker re-reads the stored job and aborts
// the run when the owner cancelled it mid-flight.
func (p *Pool) process(ctx context.Context, logger hclog.Logger, job *Job) {
	logger.Info("job claimed", "job_id", job.ID, "owner", job.Owner, "priority", job.Priority)
	started := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := len(job.Layers)
	if total == 0 {
		total = 1
	}
	done := 0
	progress := func(outcome transform.LayerOutcome) {
		done++
		current, err := p.store.Get(runCtx, job.ID)
		if err != nil || current.Status == StatusCancelled {
			cancel()
			return
		}
		job.Progress = done * 100 / total
		if err := p.store.Update(runCtx, job); err != nil {
			cancel()
		}
	}

	opts := engine.Options{
		Filename: job.Filename,
		Layers:   job.Layers,
		Verbose:  boolOption(job.Options, "verbose"),
	}
	var report *core.Report
	var err error
	if boolOption(job.Options, "fix") {
		report, err = p.runner.Fix(runCtx, job.Code, opts, progress)
	} else {
		report, err = p.runner.Analyze(job.Code, opts)
	}

	if stderrors.Is(err, context.Canceled) {
		logger.Info("job preempted by cancellation", "job_id", job.ID)
		return
	}

	now := time.Now().UTC()
	job.CompletedAt = &now
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusCompleted
		job.Result = report
		job.Progress = 100
		// Upload failures do not fail the job; the analysis result stands.
		if p.uploader != nil && boolOption(job.Options, "upload") {
			if location, uerr := p.uploader.Upload(job.Owner, report); uerr != nil {
				logger.Error("artifact upload failed", "job_id", job.ID, "error", uerr)
			} else {
				job.ArtifactURL = location
			}
		}
	}
	if uerr := p.store.Update(ctx, job); uerr != nil {
		logger.Info("job finished after cancellation, result discarded", "job_id", job.ID)
		return
	}
	logger.Info("job finished",
		"job_id", job.ID,
		"status", job.Status,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

func boolOption(opts map[string]interface{}, key string) bool {
	if opts == nil {
		return false
	}
	b, ok := opts[key].(bool)
	return ok && b
}
