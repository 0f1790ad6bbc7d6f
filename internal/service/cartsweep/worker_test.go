package cartsweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestWorker_DeleteExpired_Batches(t *testing.T) {
	t.Parallel()

	purger := &stubPurger{results: []int{2, 2, 1}}
	worker := NewWorker(purger, WithBatchSize(2))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 5 {
		t.Fatalf("unexpected deleted total: got=%d want=5", deleted)
	}
	if calls := purger.calls(); calls != 3 {
		t.Fatalf("unexpected purge calls: got=%d want=3", calls)
	}
}

func TestWorker_DeleteExpired_Error(t *testing.T) {
	t.Parallel()

	purger := &stubPurger{results: []int{3}, errs: []error{nil, errors.New("boom")}}
	worker := NewWorker(purger, WithBatchSize(3))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected DeleteExpired error")
	}
	if deleted != 3 {
		t.Fatalf("expected partial total 3, got %d", deleted)
	}
}

func TestWorker_DeleteExpired_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	purger := &stubPurger{}
	if _, err := NewWorker(purger).DeleteExpired(ctx, time.Now()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if purger.calls() != 0 {
		t.Fatal("purger must not be called with canceled context")
	}
}

func TestWorker_SweepsMemoryStore(t *testing.T) {
	t.Parallel()

	store := memory.NewCartStore(time.Hour)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if err := store.Save(ctx, id, []byte(`[]`)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	worker := NewWorker(store, WithMetrics(metrics.NewCartSweepMetrics(reg)))
	worker.sweep(ctx)
	if store.Len() != 2 {
		t.Fatalf("fresh carts must survive, got %d", store.Len())
	}

	worker.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	worker.sweep(ctx)
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}

	count, err := testutil.GatherAndCount(reg,
		"storefront_cart_sweep_runs_total",
		"storefront_cart_sweep_deleted_total",
		"storefront_cart_sweep_last_deleted",
	)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 series, got %d", count)
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(&stubPurger{}, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestWorker_Run_DisabledWithoutPurger(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewWorker(nil).Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker without purger should return immediately")
	}
}

type stubPurger struct {
	mu      sync.Mutex
	results []int
	errs    []error
	n       int
}

func (s *stubPurger) DeleteExpired(_ time.Time, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.n
	s.n++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return 0, s.errs[idx]
	}
	if idx < len(s.results) {
		return s.results[idx], nil
	}
	return 0, nil
}

func (s *stubPurger) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

var _ Purger = (*memory.CartStore)(nil)
