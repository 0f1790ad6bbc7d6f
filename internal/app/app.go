package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/auth"
	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/account"
	"github.com/vladislavdragonenkov/storefront/internal/service/cartsweep"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/seed"
	"github.com/vladislavdragonenkov/storefront/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает API, сервер метрик и outbox worker и останавливает их по отмене ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if cfg.UsesDevSecrets() {
		logger.Warn("session or jwt secret is not set, using development defaults")
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	api, err := newAPI(ctx, cfg, deps, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return err
	}

	producer := connectKafka(cfg, logger)
	defer closeKafka(producer, logger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if worker := newOutboxWorker(cfg, deps, producer, prometheus.DefaultRegisterer, logger); worker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(workerCtx)
		}()
	}
	if sweeper := newCartSweeper(cfg, deps, prometheus.DefaultRegisterer, logger); sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.Run(workerCtx)
		}()
	}
	defer func() {
		stopWorker()
		wg.Wait()
	}()

	healthHandler := newHealthHandler(cfg, deps)
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: api, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", lis.Addr())
		errCh <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(srv, logger)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newAPI собирает сервисы поверх хранилищ и возвращает HTTP-обработчик API.
func newAPI(ctx context.Context, cfg Config, deps *Dependencies, registerer prometheus.Registerer, logger *log.Entry) (http.Handler, error) {
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	if cfg.SeedDefaults {
		if _, err := seed.Defaults(ctx, deps.Catalog, deps.Admins, hasher, logger.WithField("layer", "seed")); err != nil {
			return nil, err
		}
	}

	carts := cart.NewEngine(deps.Carts, logger.WithField("layer", "cart"))
	coordinator := checkout.NewCoordinator(deps.Catalog, deps.Orders, carts,
		checkout.WithLogger(logger.WithField("layer", "checkout")),
		checkout.WithMetrics(metrics.NewCheckoutMetricsWithRegisterer(registerer)),
		checkout.WithOutbox(deps.Outbox),
		checkout.WithStockRefresh(cfg.CheckoutRefreshStock),
	)
	accounts := account.NewService(deps.Admins, deps.Customers, hasher, tokens, logger.WithField("layer", "account"))

	sessionStore := httpapi.NewSessionStore([]byte(cfg.SessionSecret), cfg.CartTTL, cfg.SessionSecure)

	handler := httpapi.NewHandler(httpapi.Dependencies{
		Catalog:  deps.Catalog,
		Orders:   deps.Orders,
		Carts:    carts,
		Checkout: coordinator,
		Accounts: accounts,
		Tokens:   tokens,
		Sessions: sessionStore,
	},
		httpapi.WithLogger(logger.WithField("layer", "http")),
		httpapi.WithMetrics(metrics.NewHTTPMetrics(registerer)),
		httpapi.WithAllowedOrigins(cfg.AllowedOrigins),
		httpapi.WithRequestTimeout(cfg.RequestTimeout),
	)
	return handler.Routes(), nil
}

// newOutboxWorker возвращает nil, если брокер не настроен.
func newOutboxWorker(cfg Config, deps *Dependencies, producer *kafka.Producer, registerer prometheus.Registerer, logger *log.Entry) *outbox.Worker {
	if producer == nil {
		logger.Info("kafka is not configured, outbox events stay pending")
		return nil
	}
	return outbox.NewWorker(
		deps.Outbox,
		kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
		outbox.WithLogger(logger.WithField("layer", "outbox")),
		outbox.WithMetrics(metrics.NewOutboxMetrics(registerer)),
		outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic)),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
}

// newCartSweeper возвращает nil, если хранилище корзин истекает само или TTL отключён.
func newCartSweeper(cfg Config, deps *Dependencies, registerer prometheus.Registerer, logger *log.Entry) *cartsweep.Worker {
	if deps.CartPurger == nil || cfg.CartTTL <= 0 {
		return nil
	}
	return cartsweep.NewWorker(
		deps.CartPurger,
		cartsweep.WithLogger(logger.WithField("layer", "cart-sweep")),
		cartsweep.WithMetrics(metrics.NewCartSweepMetrics(registerer)),
		cartsweep.WithInterval(cfg.CartSweep),
	)
}

func newHealthHandler(cfg Config, deps *Dependencies) *health.Handler {
	handler := health.NewHandler(version.GetVersion())
	for name, checker := range deps.Checkers {
		handler.RegisterChecker(name, checker)
	}
	handler.RegisterChecker("outbox", health.NewOutboxBacklogChecker(deps.Outbox, cfg.OutboxMaxAge))
	return handler
}

func newMetricsMux(healthHandler *health.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

// startMetricsServer запускает HTTP-обработчик /metrics и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *health.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: newMetricsMux(healthHandler), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
