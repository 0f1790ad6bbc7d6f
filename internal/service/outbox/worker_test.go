package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func enqueueOrderEvent(t *testing.T, repo domain.OutboxRepository, orderID string) domain.OutboxMessage {
	t.Helper()
	msg, err := repo.Enqueue(context.Background(), domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		EventType:     domain.EventOrderPlaced,
		Payload:       []byte(`{"order_id":` + orderID + `}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return msg
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg := enqueueOrderEvent(t, repo, "1")
	publisher := &stubPublisher{}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))

	if sent := worker.ProcessOnce(context.Background()); sent != 1 {
		t.Fatalf("expected 1 sent event, got %d", sent)
	}
	if got := len(repo.AllPending()); got != 0 {
		t.Fatalf("expected empty backlog, got %d", got)
	}
	if got := publisher.calls(); got != 1 {
		t.Fatalf("expected 1 publish call, got %d", got)
	}
	if publisher.last().ID != msg.ID {
		t.Fatalf("expected published id %s, got %s", msg.ID, publisher.last().ID)
	}
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg := enqueueOrderEvent(t, repo, "2")
	publisher := &stubPublisher{err: errors.New("broker unavailable")}
	dlqPublisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithDLQPublisher(dlqPublisher),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	if sent := worker.ProcessOnce(context.Background()); sent != 0 {
		t.Fatalf("expected 0 sent events, got %d", sent)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(repo.AllPending()); got != 0 {
		t.Fatalf("failed event should leave pending state, got %d pending", got)
	}
	if got := dlqPublisher.calls(); got != 1 {
		t.Fatalf("expected 1 DLQ publish, got %d", got)
	}

	var letter deadLetter
	if err := json.Unmarshal(dlqPublisher.last().Payload, &letter); err != nil {
		t.Fatalf("decode dlq payload: %v", err)
	}
	if letter.OutboxID != msg.ID || letter.EventType != domain.EventOrderPlaced {
		t.Fatalf("unexpected dead letter: %+v", letter)
	}
	if string(letter.Payload) != `{"order_id":2}` {
		t.Fatalf("expected original payload, got %s", letter.Payload)
	}
	if letter.PublishError == "" {
		t.Fatal("expected publish error in dead letter")
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueueOrderEvent(t, repo, "3")
	publisher := &stubPublisher{
		sequenceErrors: []error{
			errors.New("attempt 1"),
			errors.New("attempt 2"),
			nil,
		},
	}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))

	if sent := worker.ProcessOnce(context.Background()); sent != 1 {
		t.Fatalf("expected 1 sent event, got %d", sent)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
}

func TestWorker_ProcessOnce_RespectsBatchSize(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	for _, id := range []string{"10", "11", "12"} {
		enqueueOrderEvent(t, repo, id)
	}
	worker := NewWorker(repo, &stubPublisher{}, WithBatchSize(2))

	if sent := worker.ProcessOnce(context.Background()); sent != 2 {
		t.Fatalf("expected 2 sent events, got %d", sent)
	}
	if got := len(repo.AllPending()); got != 1 {
		t.Fatalf("expected 1 pending event, got %d", got)
	}
}

func TestWorker_ProcessOnce_RecordsMetrics(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueueOrderEvent(t, repo, "4")
	reg := prometheus.NewRegistry()

	worker := NewWorker(repo, &stubPublisher{}, WithMetrics(metrics.NewOutboxMetrics(reg)))
	worker.ProcessOnce(context.Background())

	count, err := testutil.GatherAndCount(reg,
		"storefront_outbox_publish_attempts_total",
		"storefront_outbox_pending_records",
	)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 series, got %d", count)
	}
}

func TestWorker_ProcessOnce_PullError(t *testing.T) {
	t.Parallel()

	publisher := &stubPublisher{}
	worker := NewWorker(&failingOutboxRepo{}, publisher)

	if sent := worker.ProcessOnce(context.Background()); sent != 0 {
		t.Fatalf("expected 0 sent events, got %d", sent)
	}
	if publisher.calls() != 0 {
		t.Fatal("publisher must not be called when pull fails")
	}
}

func TestRetryBackoff(t *testing.T) {
	t.Parallel()

	cases := []struct {
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{0, 3, 0},
		{10 * time.Millisecond, 1, 10 * time.Millisecond},
		{10 * time.Millisecond, 2, 20 * time.Millisecond},
		{10 * time.Millisecond, 4, 80 * time.Millisecond},
		{time.Duration(1 << 62), 3, time.Duration(1<<63 - 1)},
	}
	for _, tc := range cases {
		if got := retryBackoff(tc.base, tc.attempt); got != tc.want {
			t.Errorf("retryBackoff(%v, %d) = %v, want %v", tc.base, tc.attempt, got, tc.want)
		}
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(
		memory.NewOutboxRepository(),
		&stubPublisher{},
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestWorker_Run_DisabledWithoutPublisher(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewWorker(memory.NewOutboxRepository(), nil).Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker without publisher should return immediately")
	}
}

type failingOutboxRepo struct{}

func (failingOutboxRepo) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	return msg, nil
}

func (failingOutboxRepo) PullPending(context.Context, int) ([]domain.OutboxMessage, error) {
	return nil, errors.New("connection reset")
}

func (failingOutboxRepo) Stats(context.Context) (domain.OutboxStats, error) {
	return domain.OutboxStats{}, nil
}

func (failingOutboxRepo) MarkSent(context.Context, string) error   { return nil }
func (failingOutboxRepo) MarkFailed(context.Context, string) error { return nil }

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	published      []domain.OutboxMessage
}

func (s *stubPublisher) Publish(event domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published = append(s.published, event)
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func (s *stubPublisher) last() domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published[len(s.published)-1]
}

var _ domain.OutboxRepository = failingOutboxRepo{}
var _ domain.OutboxPublisher = (*stubPublisher)(nil)
