package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func putJob(t *testing.T, store *MemoryStore, id string, priority Priority, created time.Time) {
	t.Helper()
	err := store.Put(context.Background(), &Job{
		ID:        id,
		Owner:     "acme",
		Status:    StatusPending,
		Priority:  priority,
		Code:      "x",
		Layers:    []int{1},
		CreatedAt: created,
		ExpiresAt: created.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Put(%s) unexpected error: %v", id, err)
	}
}

func TestClaimOrder(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	putJob(t, store, "normal-late", PriorityNormal, base.Add(2*time.Minute))
	putJob(t, store, "normal-early", PriorityNormal, base)
	putJob(t, store, "urgent", PriorityUrgent, base.Add(5*time.Minute))
	putJob(t, store, "low", PriorityLow, base)
	putJob(t, store, "high", PriorityHigh, base.Add(time.Minute))

	want := []string{"urgent", "high", "normal-early", "normal-late", "low"}
	for i, id := range want {
		job, err := store.Claim(context.Background())
		if err != nil {
			t.Fatalf("Claim() #%d unexpected error: %v", i, err)
		}
		if job == nil {
			t.Fatalf("Claim() #%d returned nil, want %q", i, id)
		}
		if job.ID != id {
			t.Fatalf("Claim() #%d = %q, want %q", i, job.ID, id)
		}
		if job.Status != StatusProcessing {
			t.Fatalf("claimed job status = %q, want %q", job.Status, StatusProcessing)
		}
		if job.StartedAt == nil {
			t.Fatal("claimed job has no StartedAt")
		}
	}

	job, err := store.Claim(context.Background())
	if err != nil {
		t.Fatalf("Claim() on drained store unexpected error: %v", err)
	}
	if job != nil {
		t.Fatalf("Claim() on drained store = %q, want nil", job.ID)
	}
}

func TestClaimIsAtomic(t *testing.T) {
	store := NewMemoryStore()
	base := time.Now().UTC()
	const jobs = 50
	for i := 0; i < jobs; i++ {
		putJob(t, store, fmt.Sprintf("job-%02d", i), PriorityNormal, base.Add(time.Duration(i)*time.Second))
	}

	claimed := make(chan string, jobs)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := store.Claim(context.Background())
				if err != nil || job == nil {
					return
				}
				claimed <- job.ID
			}
		}()
	}
	wg.Wait()
	close(claimed)

	seen := make(map[string]bool)
	for id := range claimed {
		if seen[id] {
			t.Fatalf("job %q claimed twice", id)
		}
		seen[id] = true
	}
	if len(seen) != jobs {
		t.Fatalf("claimed %d jobs, want %d", len(seen), jobs)
	}
}

func TestUpdateEnforcesTransitions(t *testing.T) {
	testCases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "pending to processing", from: StatusPending, to: StatusProcessing, allowed: true},
		{name: "pending to cancelled", from: StatusPending, to: StatusCancelled, allowed: true},
		{name: "pending cannot complete directly", from: StatusPending, to: StatusCompleted, allowed: false},
		{name: "processing to completed", from: StatusProcessing, to: StatusCompleted, allowed: true},
		{name: "processing to failed", from: StatusProcessing, to: StatusFailed, allowed: true},
		{name: "processing to cancelled", from: StatusProcessing, to: StatusCancelled, allowed: true},
		{name: "processing progress write", from: StatusProcessing, to: StatusProcessing, allowed: true},
		{name: "cancelled stays cancelled", from: StatusCancelled, to: StatusCompleted, allowed: false},
		{name: "completed cannot regress", from: StatusCompleted, to: StatusProcessing, allowed: false},
		{name: "failed cannot rewrite", from: StatusFailed, to: StatusFailed, allowed: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemoryStore()
			now := time.Now().UTC()
			job := &Job{ID: "j1", Owner: "acme", Status: tc.from, Code: "x", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
			if err := store.Put(context.Background(), job); err != nil {
				t.Fatalf("Put() unexpected error: %v", err)
			}

			job.Status = tc.to
			err := store.Update(context.Background(), job)
			if tc.allowed && err != nil {
				t.Fatalf("Update(%s→%s) unexpected error: %v", tc.from, tc.to, err)
			}
			if !tc.allowed && err == nil {
				t.Fatalf("Update(%s→%s) succeeded, want rejection", tc.from, tc.to)
			}
		})
	}
}

func TestStoreCopiesJobs(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now().UTC()
	job := &Job{ID: "j1", Owner: "acme", Status: StatusPending, Code: "x", Layers: []int{1, 2}, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := store.Put(context.Background(), job); err != nil {
		t.Fatalf("Put() unexpected error: %v", err)
	}

	// mutating the caller's copy must not leak into the store
	job.Layers[0] = 99
	job.Status = StatusFailed

	got, err := store.Get(context.Background(), "j1")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.Layers[0] != 1 {
		t.Fatalf("stored layers mutated: %v", got.Layers)
	}
	if got.Status != StatusPending {
		t.Fatalf("stored status mutated: %q", got.Status)
	}
}
