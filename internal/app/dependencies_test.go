package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/health"
)

func TestNewDependencies_Memory(t *testing.T) {
	deps, err := NewDependencies(context.Background(), DefaultConfig(), log.WithField("test", "dependencies"))
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	defer deps.Close()

	if deps.Catalog == nil || deps.Orders == nil || deps.Outbox == nil || deps.Carts == nil {
		t.Fatalf("storage not initialized: %+v", deps)
	}
	if deps.Admins == nil || deps.Customers == nil {
		t.Fatal("account storage not initialized")
	}
	if deps.CartPurger == nil {
		t.Error("memory cart store must expose a purger")
	}
	if len(deps.Checkers) != 0 {
		t.Errorf("memory storage must not register checkers, got %d", len(deps.Checkers))
	}
}

func TestNewDependencies_WithNilLogger(t *testing.T) {
	deps, err := NewDependencies(context.Background(), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	if deps.Logger == nil {
		t.Error("Logger should be initialized even when nil is passed")
	}
}

func TestNewDependencies_RedisCartStore(t *testing.T) {
	srv := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.CartStore = CartStoreRedis
	cfg.RedisAddr = srv.Addr()

	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	defer deps.Close()

	checker, ok := deps.Checkers["redis"]
	if !ok {
		t.Fatal("expected redis checker")
	}
	if check := checker.Check(context.Background()); check.Status != health.StatusHealthy {
		t.Errorf("expected healthy redis, got %+v", check)
	}

	if err := deps.Carts.Save(context.Background(), "session-1", []byte("[]")); err != nil {
		t.Fatalf("save cart: %v", err)
	}
	if !srv.Exists("cart:session-1") {
		t.Error("expected cart key in redis")
	}
	if deps.CartPurger != nil {
		t.Error("redis expires carts itself, purger must be nil")
	}
}

func TestNewDependencies_RedisUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CartStore = CartStoreRedis
	cfg.RedisAddr = "127.0.0.1:1"

	if _, err := NewDependencies(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

func TestDependencies_CloseOrder(t *testing.T) {
	var order []int
	deps := &Dependencies{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	}}

	if err := deps.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("expected reverse close order, got %v", order)
	}
	if err := deps.Close(); err != nil {
		t.Errorf("second close must be a no-op, got %v", err)
	}
}
