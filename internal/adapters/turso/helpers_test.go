package turso_test

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/abeval/internal/infrastructure/database"
	"github.com/emiliopalmerini/abeval/internal/migrate"
)

func testDB(t *testing.T) *database.Client {
	t.Helper()

	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "abeval.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	logger := slog.New(slog.DiscardHandler)
	if err := migrate.RunAll(context.Background(), db, logger); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return database.Wrap(db, 0, logger)
}
