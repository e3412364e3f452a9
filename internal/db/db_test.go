package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestOpenAppliesPragmasToEveryConnection(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, filepath.Join(t.TempDir(), "open-test.db"), 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	// Both connections are held at once so the pool has to hand out two distinct ones.
	conns := make([]*sql.Conn, 2)
	for i := range conns {
		conn, err := database.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		defer conn.Close()
		conns[i] = conn
	}

	for i, conn := range conns {
		var foreignKeys, busyTimeout int
		if err := conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&foreignKeys); err != nil {
			t.Fatalf("conn %d: query foreign_keys pragma: %v", i, err)
		}
		if err := conn.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&busyTimeout); err != nil {
			t.Fatalf("conn %d: query busy_timeout pragma: %v", i, err)
		}
		if foreignKeys != 1 || busyTimeout != 5000 {
			t.Fatalf("conn %d: foreign_keys=%d busy_timeout=%d, want 1 and 5000", i, foreignKeys, busyTimeout)
		}
	}

	var mode string
	if err := database.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

func TestOpenFailsForUnreachablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "x.db")
	if _, err := Open(context.Background(), path, 2); err == nil {
		t.Fatalf("expected error opening %s", path)
	}
}
