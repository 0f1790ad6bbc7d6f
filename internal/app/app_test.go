package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func newTestAPI(t *testing.T, cfg Config) (http.Handler, *Dependencies) {
	t.Helper()

	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })

	api, err := newAPI(context.Background(), cfg, deps, prometheus.NewRegistry(), log.WithField("test", "app"))
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	return api, deps
}

func TestNewAPI_SeedsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	api, _ := newTestAPI(t, cfg)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?category=Accessories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var products []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 seeded accessories, got %d", len(products))
	}

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "admin"})
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin login to succeed, got %d: %s", rec.Code, rec.Body)
	}
}

func TestNewAPI_WithoutSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeedDefaults = false
	api, deps := newTestAPI(t, cfg)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	categories, err := deps.Catalog.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 0 {
		t.Errorf("expected empty catalog, got %d categories", len(categories))
	}
}

func TestMetricsMux_HealthEndpoints(t *testing.T) {
	cfg := DefaultConfig()
	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	mux := newMetricsMux(newHealthHandler(cfg, deps))

	for _, path := range []string{"/livez", "/readyz", "/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body)
		}
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.BcryptCost = bcrypt.MinCost

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Run(ctx, cfg); err != nil && err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewCartSweeper(t *testing.T) {
	logger := log.WithField("test", "app")

	cfg := DefaultConfig()
	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	defer deps.Close()

	if newCartSweeper(cfg, deps, prometheus.NewRegistry(), logger) == nil {
		t.Error("expected sweeper for memory cart store")
	}

	cfg.CartTTL = 0
	if newCartSweeper(cfg, deps, prometheus.NewRegistry(), logger) != nil {
		t.Error("sweeper must be disabled without cart ttl")
	}

	cfg = DefaultConfig()
	if newCartSweeper(cfg, &Dependencies{}, prometheus.NewRegistry(), logger) != nil {
		t.Error("sweeper must be disabled without purger")
	}
}
