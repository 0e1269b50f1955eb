package queue

import (
	"context"
	"testing"
	"time"

	"github.com/mendio-dev/mendio/pkg/shared/errors"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store, nil, 0), store
}

func TestCreateJobDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	caller := Caller{Name: "acme", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), caller, CreateRequest{Code: "var x = 1;"})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}
	if job.Status != StatusPending {
		t.Fatalf("status = %q, want %q", job.Status, StatusPending)
	}
	if job.Priority != PriorityNormal {
		t.Fatalf("priority = %q, want %q", job.Priority, PriorityNormal)
	}
	if got := job.Priority.EstimatedWait(); got != "1-2 minutes" {
		t.Fatalf("estimated wait = %q, want %q", got, "1-2 minutes")
	}
	if job.Progress != 0 {
		t.Fatalf("progress = %d, want 0", job.Progress)
	}
	if len(job.Layers) != 8 {
		t.Fatalf("layers = %v, want full set of 8", job.Layers)
	}
	if want := job.CreatedAt.Add(24 * time.Hour); !job.ExpiresAt.Equal(want) {
		t.Fatalf("expiry = %v, want %v", job.ExpiresAt, want)
	}
	if job.ID == "" {
		t.Fatal("job ID is empty")
	}
}

func TestCreateJobTierPolicy(t *testing.T) {
	testCases := []struct {
		name      string
		tier      string
		requested string
		want      Priority
		wantErr   bool
	}{
		{name: "free defaults to normal", tier: "free", want: PriorityNormal},
		{name: "free cannot elevate", tier: "free", requested: "urgent", want: PriorityNormal},
		{name: "pro honors high", tier: "pro", requested: "high", want: PriorityHigh},
		{name: "pro capped at high", tier: "pro", requested: "urgent", want: PriorityHigh},
		{name: "pro may lower", tier: "pro", requested: "low", want: PriorityLow},
		{name: "enterprise up to urgent", tier: "enterprise", requested: "urgent", want: PriorityUrgent},
		{name: "enterprise defaults to normal", tier: "enterprise", want: PriorityNormal},
		{name: "unknown priority rejected", tier: "enterprise", requested: "asap", wantErr: true},
		{name: "unknown tier rejected", tier: "platinum", wantErr: true},
	}

	svc, _ := newTestService(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			job, err := svc.CreateJob(context.Background(), Caller{Name: "acme", Tier: tc.tier}, CreateRequest{
				Code:     "var x = 1;",
				Priority: tc.requested,
			})
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateJob() unexpected error: %v", err)
			}
			if job.Priority != tc.want {
				t.Fatalf("priority = %q, want %q", job.Priority, tc.want)
			}
		})
	}
}

func TestCreateJobValidation(t *testing.T) {
	svc, _ := newTestService(t)
	caller := Caller{Name: "acme", Tier: "free"}

	if _, err := svc.CreateJob(context.Background(), caller, CreateRequest{Code: "   "}); !errors.IsValidation(err) {
		t.Fatalf("empty code: expected validation error, got %v", err)
	}
	if _, err := svc.CreateJob(context.Background(), caller, CreateRequest{Code: "x", Layers: []int{2, 9}}); !errors.IsValidation(err) {
		t.Fatalf("layer 9: expected validation error, got %v", err)
	}
	if _, err := svc.CreateJob(context.Background(), caller, CreateRequest{Code: "x", Layers: []int{0}}); !errors.IsValidation(err) {
		t.Fatalf("layer 0: expected validation error, got %v", err)
	}

	job, err := svc.CreateJob(context.Background(), caller, CreateRequest{Code: "x", Layers: []int{4, 2}})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}
	if len(job.Layers) != 2 || job.Layers[0] != 4 || job.Layers[1] != 2 {
		t.Fatalf("layers = %v, want requested layers preserved", job.Layers)
	}
}

func TestGetJobOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	owner := Caller{Name: "acme", Tier: "free"}
	other := Caller{Name: "globex", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), owner, CreateRequest{Code: "x"})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	got, err := svc.GetJob(context.Background(), owner, job.ID)
	if err != nil {
		t.Fatalf("owner GetJob() unexpected error: %v", err)
	}
	if got.ID != job.ID {
		t.Fatalf("got job %q, want %q", got.ID, job.ID)
	}

	if _, err := svc.GetJob(context.Background(), other, job.ID); err != errors.ErrNotFound {
		t.Fatalf("non-owner GetJob() = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetJob(context.Background(), owner, "missing"); err != errors.ErrNotFound {
		t.Fatalf("missing GetJob() = %v, want ErrNotFound", err)
	}
}

func TestCancelJob(t *testing.T) {
	svc, store := newTestService(t)
	owner := Caller{Name: "acme", Tier: "free"}
	other := Caller{Name: "globex", Tier: "free"}

	job, err := svc.CreateJob(context.Background(), owner, CreateRequest{Code: "x"})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	if svc.CancelJob(context.Background(), other, job.ID) {
		t.Fatal("non-owner cancel succeeded")
	}
	if svc.CancelJob(context.Background(), owner, "missing") {
		t.Fatal("cancel of missing job succeeded")
	}

	if !svc.CancelJob(context.Background(), owner, job.ID) {
		t.Fatal("owner cancel of pending job failed")
	}
	got, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %q, want %q", got.Status, StatusCancelled)
	}
	if got.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped")
	}

	// terminal jobs stay terminal
	if svc.CancelJob(context.Background(), owner, job.ID) {
		t.Fatal("second cancel succeeded on terminal job")
	}
}

func TestSweepRemovesOnlyExpiredTerminalJobs(t *testing.T) {
	svc, store := newTestService(t)
	owner := Caller{Name: "acme", Tier: "free"}

	expired, err := svc.CreateJob(context.Background(), owner, CreateRequest{Code: "x"})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}
	if !svc.CancelJob(context.Background(), owner, expired.ID) {
		t.Fatal("cancel failed")
	}

	stale, err := svc.CreateJob(context.Background(), owner, CreateRequest{Code: "x"})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}

	// move the service clock past the retention window of the first two jobs,
	// then create a third job whose window starts at the shifted clock
	svc.now = func() time.Time { return expired.ExpiresAt.Add(time.Minute) }

	fresh, err := svc.CreateJob(context.Background(), owner, CreateRequest{Code: "x"})
	if err != nil {
		t.Fatalf("CreateJob() unexpected error: %v", err)
	}
	if !svc.CancelJob(context.Background(), owner, fresh.ID) {
		t.Fatal("cancel failed")
	}

	removed, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() unexpected error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, err := store.Get(context.Background(), expired.ID); err != errors.ErrNotFound {
		t.Fatalf("expired terminal job still present: %v", err)
	}
	if _, err := store.Get(context.Background(), stale.ID); err != nil {
		t.Fatalf("expired pending job was deleted: %v", err)
	}
	if _, err := store.Get(context.Background(), fresh.ID); err != nil {
		t.Fatalf("unexpired terminal job was deleted: %v", err)
	}

	// second sweep finds nothing new
	removed, err = svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() unexpected error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("second sweep removed = %d, want 0", removed)
	}
}
