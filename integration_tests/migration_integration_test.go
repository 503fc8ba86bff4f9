package integration_tests

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rubiojr/carefinder/pkg/db"
	"github.com/rubiojr/carefinder/pkg/storage"
)

func TestSnapshotStoreUpgradesOldDatabase(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "snapshots.db")

	// Build a database that only knows the first migration.
	firstOnly := filepath.Join(tempDir, "migrations")
	if err := os.MkdirAll(firstOnly, 0755); err != nil {
		t.Fatal(err)
	}
	initial, err := os.ReadFile(filepath.Join("..", "pkg", "db", "migrations", "001_snapshots.sql"))
	if err != nil {
		t.Fatalf("Failed to read first migration: %v", err)
	}
	if err := os.WriteFile(filepath.Join(firstOnly, "001_snapshots.sql"), initial, 0644); err != nil {
		t.Fatal(err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := db.NewMigrationManagerFromPath(conn, firstOnly).ApplyPendingMigrations(ctx); err != nil || n != 1 {
		t.Fatalf("applying first migration: n=%d err=%v", n, err)
	}

	status, err := db.NewMigrationManager(conn).GetMigrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Applied) != 1 || len(status.Pending) == 0 {
		t.Fatalf("expected pending migrations, got %d applied %d pending", len(status.Applied), len(status.Pending))
	}
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}

	// Opening the store applies the rest.
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if _, err := store.Save(ctx, "file", TestProviders()); err != nil {
		t.Fatalf("Failed to save after upgrade: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	conn, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	status, err = db.NewMigrationManager(conn).GetMigrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Pending) != 0 || len(status.Applied) != len(status.Available) {
		t.Errorf("database not up to date: %d applied, %d pending", len(status.Applied), len(status.Pending))
	}

	var index string
	err = conn.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_snapshots_created_at'").Scan(&index)
	if err != nil {
		t.Errorf("created_at index missing after upgrade: %v", err)
	}
}

func TestMigrationErrorHandling(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "migrations")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "001_broken.sql"), []byte("CREATE TABLE (;"), 0644); err != nil {
		t.Fatal(err)
	}

	conn, err := sql.Open("sqlite3", filepath.Join(tempDir, "broken.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	manager := db.NewMigrationManagerFromPath(conn, dir)
	if _, err := manager.ApplyPendingMigrations(ctx); err == nil {
		t.Fatal("expected broken migration to fail")
	}
	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Applied) != 0 || len(status.Pending) != 1 {
		t.Errorf("failed migration must not be recorded: %+v", status)
	}
}
