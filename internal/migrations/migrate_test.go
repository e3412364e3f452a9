package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/metalworks/quoter/internal/db"
)

func TestUpAppliesSchemaAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "migrate.db"), 1)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	for i := 0; i < 2; i++ {
		if err := Up(ctx, database, "../../migrations"); err != nil {
			t.Fatalf("Up run %d: %v", i+1, err)
		}
	}

	version, err := Version(ctx, database)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 2 {
		t.Fatalf("schema version = %d, want 2", version)
	}

	for _, table := range []string{"users", "company_settings", "materials", "surcharges", "quotes", "quote_lines"} {
		var name string
		err := database.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}
