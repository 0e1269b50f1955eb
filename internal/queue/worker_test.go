package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/engine"
	"github.com/mendio-dev/mendio/internal/transform"
)

// fakeRunner stands in for the core façade. Fix reports one layer outcome
// per requested layer and observes cancellation between layers, exactly
// like the real implementation.
type fakeRunner struct {
	err error
}

func (f *fakeRunner) Analyze(code string, opts engine.Options) (*core.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.Report{Analysis: engine.BuildResult(code, nil, opts.Layers)}, nil
}

func (f *fakeRunner) Fix(ctx context.Context, code string, opts engine.Options, progress core.ProgressFunc) (*core.Report, error) {
	for _, layer := range opts.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(transform.LayerOutcome{Layer: layer, Name: engine.LayerName(layer), Strategy: transform.StrategyPattern})
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &core.Report{
		Analysis: engine.BuildResult(code, nil, opts.Layers),
		Fix:      &engine.FixResult{OriginalCode: code, Code: code},
	}, nil
}

func waitForStatus(t *testing.T, store Store, id string, want Status) *Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", id, want)
	return nil
}

func TestPoolCompletesAnalysisJob(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, 0)
	caller := Caller{Name: "acme", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), caller, CreateRequest{Code: "var x = 1;", Layers: []int{2, 3}})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(store, &fakeRunner{}, nil, 1)
	pool.Start(ctx)
	defer func() {
		cancel()
		pool.Wait()
	}()

	got := waitForStatus(t, store, job.ID, StatusCompleted)
	if got.Result == nil {
		t.Fatal("completed job has no result")
	}
	if got.Progress != 100 {
		t.Fatalf("progress = %d, want 100", got.Progress)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatal("timestamps not stamped")
	}
	if got.Error != "" {
		t.Fatalf("unexpected error on completed job: %q", got.Error)
	}
}

func TestPoolMarksJobFailed(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, 0)
	caller := Caller{Name: "acme", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), caller, CreateRequest{Code: "var x = 1;"})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(store, &fakeRunner{err: errors.New("input too large")}, nil, 1)
	pool.Start(ctx)
	defer func() {
		cancel()
		pool.Wait()
	}()

	got := waitForStatus(t, store, job.ID, StatusFailed)
	if got.Error != "input too large" {
		t.Fatalf("error = %q, want %q", got.Error, "input too large")
	}
	if got.Result != nil {
		t.Fatal("failed job carries a result")
	}
	if got.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped")
	}
}

func TestPoolRunsFixJobs(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, 0)
	caller := Caller{Name: "acme", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), caller, CreateRequest{
		Code:    "var x = 1;",
		Layers:  []int{2, 4},
		Options: map[string]interface{}{"fix": true},
	})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(store, &fakeRunner{}, nil, 1)
	pool.Start(ctx)
	defer func() {
		cancel()
		pool.Wait()
	}()

	got := waitForStatus(t, store, job.ID, StatusCompleted)
	if got.Result == nil || got.Result.Fix == nil {
		t.Fatal("fix job completed without a fix result")
	}
}

type fakeUploader struct {
	owners []string
	err    error
}

func (f *fakeUploader) Upload(owner string, report *core.Report) (string, error) {
	f.owners = append(f.owners, owner)
	if f.err != nil {
		return "", f.err
	}
	return "s3://reports/" + owner + "/latest.json", nil
}

func TestPoolUploadsArtifactsOnRequest(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, 0)
	caller := Caller{Name: "acme", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), caller, CreateRequest{
		Code:    "var x = 1;",
		Options: map[string]interface{}{"upload": true},
	})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	uploader := &fakeUploader{}
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(store, &fakeRunner{}, nil, 1)
	pool.SetUploader(uploader)
	pool.Start(ctx)
	defer func() {
		cancel()
		pool.Wait()
	}()

	got := waitForStatus(t, store, job.ID, StatusCompleted)
	if got.ArtifactURL != "s3://reports/acme/latest.json" {
		t.Fatalf("artifact url = %q, want the uploaded location", got.ArtifactURL)
	}
	if len(uploader.owners) != 1 || uploader.owners[0] != "acme" {
		t.Fatalf("uploader saw owners %v, want [acme]", uploader.owners)
	}
}

func TestPoolUploadFailureDoesNotFailJob(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, 0)
	caller := Caller{Name: "acme", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), caller, CreateRequest{
		Code:    "var x = 1;",
		Options: map[string]interface{}{"upload": true},
	})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(store, &fakeRunner{}, nil, 1)
	pool.SetUploader(&fakeUploader{err: errors.New("bucket unreachable")})
	pool.Start(ctx)
	defer func() {
		cancel()
		pool.Wait()
	}()

	got := waitForStatus(t, store, job.ID, StatusCompleted)
	if got.ArtifactURL != "" {
		t.Fatalf("artifact url = %q, want empty after failed upload", got.ArtifactURL)
	}
	if got.Result == nil {
		t.Fatal("completed job has no result")
	}
}

func TestProcessObservesMidFlightCancellation(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, 0)
	caller := Caller{Name: "acme", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), caller, CreateRequest{
		Code:    "var x = 1;",
		Layers:  []int{2, 4, 5},
		Options: map[string]interface{}{"fix": true},
	})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	claimed, err := store.Claim(context.Background())
	if err != nil || claimed == nil {
		t.Fatalf("Claim() = %v, %v", claimed, err)
	}
	if !svc.CancelJob(context.Background(), caller, claimed.ID) {
		t.Fatal("cancel of processing job failed")
	}

	pool := NewPool(store, &fakeRunner{}, nil, 1)
	pool.process(context.Background(), hclog.NewNullLogger(), claimed)

	got, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %q, want %q", got.Status, StatusCancelled)
	}
	if got.Result != nil {
		t.Fatal("cancelled job carries a result")
	}
}
