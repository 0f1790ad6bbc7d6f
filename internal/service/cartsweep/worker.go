package cartsweep

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	defaultInterval  = 10 * time.Minute
	defaultBatchSize = 500
)

// Purger удаляет истёкшие корзины порциями.
type Purger interface {
	DeleteExpired(before time.Time, limit int) (int, error)
}

// Options задаёт параметры воркера очистки.
type Options struct {
	Logger    *log.Entry
	Metrics   *metrics.CartSweepMetrics
	Interval  time.Duration
	BatchSize int
}

// Option настраивает Worker.
type Option func(*Options)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики очистки.
func WithMetrics(m *metrics.CartSweepMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithInterval задаёт интервал между проходами.
func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithBatchSize задаёт размер порции одного удаления.
func WithBatchSize(batchSize int) Option {
	return func(opts *Options) {
		opts.BatchSize = batchSize
	}
}

// Worker периодически удаляет корзины с истёкшим сроком жизни.
// Нужен хранилищам без собственного TTL; Redis удаляет ключи сам.
type Worker struct {
	purger Purger
	opts   Options
	now    func() time.Time
}

// NewWorker создаёт воркер очистки корзин.
func NewWorker(purger Purger, options ...Option) *Worker {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "cart-sweep-worker")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	return &Worker{purger: purger, opts: opts, now: time.Now}
}

// Run выполняет очистку сразу и затем по интервалу до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.purger == nil {
		w.opts.Logger.Warn("cart sweep worker is disabled: purger is nil")
		return
	}

	w.sweep(ctx)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	deleted, err := w.DeleteExpired(ctx, w.now())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.opts.Metrics.RecordRun(metrics.SweepError, deleted)
		w.opts.Logger.WithError(err).Warn("cart sweep run failed")
		return
	}

	w.opts.Metrics.RecordRun(metrics.SweepOK, deleted)
	if deleted > 0 {
		w.opts.Logger.WithField("deleted", deleted).Info("expired carts removed")
	}
}

// DeleteExpired удаляет все корзины, истёкшие к before, порциями BatchSize.
func (w *Worker) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if before.IsZero() {
		before = w.now()
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		deleted, err := w.purger.DeleteExpired(before, w.opts.BatchSize)
		if err != nil {
			return total, err
		}
		total += deleted
		w.opts.Metrics.AddDeleted(deleted)

		if deleted < w.opts.BatchSize {
			return total, nil
		}
	}
}
