package postgres

import (
	"context"
	"testing"
	"time"
)

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	latest := migrations[len(migrations)-1].Version

	if err := store.MigrateDown(ctx, 100); err != nil {
		t.Fatalf("migrate down reset: %v", err)
	}
	state, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status after reset: %v", err)
	}
	if state.Version != 0 || state.Applied != 0 || len(state.Pending) != len(migrations) {
		t.Fatalf("unexpected status after reset: %+v", state)
	}

	for range 2 {
		if err := store.MigrateUp(ctx, 0); err != nil {
			t.Fatalf("migrate up all: %v", err)
		}
		state, err = store.MigrationStatus(ctx)
		if err != nil {
			t.Fatalf("migration status after up: %v", err)
		}
		if state.Version != latest || state.Applied != len(migrations) || len(state.Pending) != 0 {
			t.Fatalf("unexpected status after up: %+v", state)
		}
	}

	if err := store.MigrateDown(ctx, 0); err != nil {
		t.Fatalf("migrate down default step: %v", err)
	}
	state, err = store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status after down: %v", err)
	}
	if state.Applied != len(migrations)-1 {
		t.Fatalf("expected one rolled back migration, got %+v", state)
	}

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("restore schema: %v", err)
	}
}

func TestMigrator_GuardsAndUnsupportedDirection(t *testing.T) {
	var nilStore *Store
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := nilStore.MigrateUp(ctx, 0); err == nil {
		t.Fatal("expected error for nil store MigrateUp")
	}
	if err := nilStore.MigrateDown(ctx, 1); err == nil {
		t.Fatal("expected error for nil store MigrateDown")
	}
	if _, err := nilStore.MigrationStatus(ctx); err == nil {
		t.Fatal("expected error for nil store MigrationStatus")
	}

	store := openRawPostgresStoreForIntegrationTest(t)
	if err := store.migrate(ctx, migrationDirection("sideways"), 0); err == nil {
		t.Fatal("expected unsupported direction error")
	}
}
