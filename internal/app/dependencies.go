package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/service/cartsweep"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	"github.com/vladislavdragonenkov/storefront/internal/storage/redisstore"
)

// Dependencies содержит хранилища приложения и проверки их доступности.
type Dependencies struct {
	Catalog   domain.CatalogRepository
	Orders    domain.OrderRepository
	Admins    domain.AdminRepository
	Customers domain.CustomerRepository
	Outbox    domain.OutboxRepository
	Carts     domain.CartStore
	Checkers  map[string]health.Checker
	Logger    *log.Entry

	// CartPurger задан только для хранилища без встроенного TTL.
	CartPurger cartsweep.Purger

	closers []func() error
}

// NewDependencies создаёт хранилища по cfg.StorageDriver и cfg.CartStore.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	deps := &Dependencies{Checkers: make(map[string]health.Checker), Logger: logger}

	if err := deps.initStorage(ctx, cfg); err != nil {
		_ = deps.Close()
		return nil, err
	}
	if err := deps.initCartStore(ctx, cfg); err != nil {
		_ = deps.Close()
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) initStorage(ctx context.Context, cfg Config) error {
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		d.closers = append(d.closers, store.Close)

		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				return fmt.Errorf("migrate postgres: %w", err)
			}
			d.Logger.Info("postgres migrations applied")
		}

		accounts := postgres.NewAccountRepository(store)
		d.Catalog = postgres.NewCatalogRepository(store)
		d.Orders = postgres.NewOrderRepository(store)
		d.Admins = accounts
		d.Customers = accounts
		d.Outbox = postgres.NewOutboxRepository(store)
		d.Checkers["postgres"] = health.NewPingChecker("postgres", store.Ping)
	default:
		accounts := memory.NewAccountRepository()
		d.Catalog = memory.NewCatalogRepository()
		d.Orders = memory.NewOrderRepository()
		d.Admins = accounts
		d.Customers = accounts
		d.Outbox = memory.NewOutboxRepository()
	}

	d.Logger.WithField("driver", cfg.StorageDriver).Info("storage initialized")
	return nil
}

func (d *Dependencies) initCartStore(ctx context.Context, cfg Config) error {
	switch cfg.CartStore {
	case CartStoreRedis:
		client, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		d.closers = append(d.closers, client.Close)

		store := redisstore.NewCartStore(client, cfg.CartTTL)
		d.Carts = store
		d.Checkers["redis"] = health.NewPingChecker("redis", store.Ping)
	default:
		store := memory.NewCartStore(cfg.CartTTL)
		d.Carts = store
		d.CartPurger = store
	}

	d.Logger.WithField("cart_store", cfg.CartStore).Info("cart store initialized")
	return nil
}

// Close освобождает соединения в обратном порядке открытия.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
