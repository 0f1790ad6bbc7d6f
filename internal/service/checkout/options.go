package checkout

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Options задаёт необязательные зависимости Coordinator.
type Options struct {
	Logger       *log.Entry
	Metrics      *metrics.CheckoutMetrics
	Outbox       domain.OutboxRepository
	RefreshStock bool
}

// Option настраивает Coordinator.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт prometheus-метрики оформления.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithOutbox включает запись событий заказа в transactional outbox.
func WithOutbox(repo domain.OutboxRepository) Option {
	return func(opts *Options) {
		opts.Outbox = repo
	}
}

// WithStockRefresh заставляет перечитывать остатки из каталога перед проверкой,
// вместо снимка, загруженного вместе с корзиной.
func WithStockRefresh(enabled bool) Option {
	return func(opts *Options) {
		opts.RefreshStock = enabled
	}
}
