package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// WorkerOptions задаёт параметры outbox worker.
type WorkerOptions struct {
	Logger         *log.Entry
	Metrics        *metrics.OutboxMetrics
	DLQPublisher   domain.OutboxPublisher
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики публикации.
func WithMetrics(m *metrics.OutboxMetrics) Option {
	return func(opts *WorkerOptions) {
		opts.Metrics = m
	}
}

// WithDLQPublisher задаёт publisher для событий, исчерпавших retry.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(opts *WorkerOptions) {
		opts.DLQPublisher = publisher
	}
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт размер батча.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMaxAttempts задаёт число попыток публикации одного события.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *WorkerOptions) {
		opts.MaxAttempts = maxAttempts
	}
}

// WithRetryBaseDelay задаёт базовую задержку exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.RetryBaseDelay = delay
	}
}

// Worker доставляет события заказов из outbox во внешний брокер.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	opts      WorkerOptions
	now       func() time.Time
}

// NewWorker создаёт outbox worker.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	opts := WorkerOptions{}
	for _, option := range options {
		option(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "outbox-worker")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}

	return &Worker{repo: repo, publisher: publisher, opts: opts, now: time.Now}
}

// Run опрашивает outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.opts.Logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		w.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce забирает один батч pending-событий и пытается их доставить.
// Возвращает число отправленных событий.
func (w *Worker) ProcessOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	defer w.refreshBacklog(ctx)

	events, err := w.repo.PullPending(ctx, w.opts.BatchSize)
	if err != nil {
		w.opts.Logger.WithError(err).Warn("failed to pull pending outbox messages")
		return 0
	}

	sent := 0
	for _, event := range events {
		if ctx.Err() != nil {
			break
		}
		if w.deliver(ctx, event) {
			sent++
		}
	}
	return sent
}

// deliver публикует событие и фиксирует его итоговый статус в outbox.
func (w *Worker) deliver(ctx context.Context, event domain.OutboxMessage) bool {
	logger := w.opts.Logger.WithFields(log.Fields{
		"outbox_id":  event.ID,
		"event_type": event.EventType,
	})

	err := w.publishWithRetry(ctx, event)
	if err == nil {
		if markErr := w.repo.MarkSent(ctx, event.ID); markErr != nil {
			logger.WithError(markErr).Warn("failed to mark outbox as sent")
		}
		return true
	}
	if ctx.Err() != nil {
		// Событие остаётся pending и будет доставлено после перезапуска.
		return false
	}

	logger.WithError(err).Error("outbox publish failed after retries")
	w.opts.Metrics.RecordPublish(metrics.PublishFailed)

	if dlqErr := w.publishToDLQ(event, err); dlqErr != nil {
		logger.WithError(dlqErr).Warn("failed to publish to DLQ")
		w.opts.Metrics.RecordPublish(metrics.PublishDLQFailed)
	}
	if markErr := w.repo.MarkFailed(ctx, event.ID); markErr != nil {
		logger.WithError(markErr).Warn("failed to mark outbox as failed")
	}
	return false
}

func (w *Worker) publishWithRetry(ctx context.Context, event domain.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= w.opts.MaxAttempts; attempt++ {
		if lastErr = w.publisher.Publish(event); lastErr == nil {
			w.opts.Metrics.RecordPublish(metrics.PublishSent)
			return nil
		}
		w.opts.Metrics.RecordPublish(metrics.PublishRetryError)

		if attempt == w.opts.MaxAttempts {
			break
		}
		if delay := retryBackoff(w.opts.RetryBaseDelay, attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("publish failed after %d attempts: %w", w.opts.MaxAttempts, lastErr)
}

func (w *Worker) refreshBacklog(ctx context.Context) {
	if w.opts.Metrics == nil {
		return
	}
	stats, err := w.repo.Stats(context.WithoutCancel(ctx))
	if err != nil {
		w.opts.Logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}
	w.opts.Metrics.SetBacklog(stats, w.now())
}

// retryBackoff возвращает base * 2^(attempt-1) с насыщением при переполнении.
func retryBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	const maxDuration = time.Duration(1<<63 - 1)
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}

// deadLetter — конверт события, отправляемого в DLQ.
type deadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
	PublishedAt   time.Time       `json:"dlq_published_at"`
}

func (w *Worker) publishToDLQ(event domain.OutboxMessage, publishErr error) error {
	if w.opts.DLQPublisher == nil {
		return nil
	}

	letter := deadLetter{
		OutboxID:      event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishError:  publishErr.Error(),
		PublishedAt:   w.now().UTC(),
	}
	if !json.Valid(letter.Payload) {
		letter.Payload = nil
	}
	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}

	dlqEvent := event
	dlqEvent.Payload = payload
	if err := w.opts.DLQPublisher.Publish(dlqEvent); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}
