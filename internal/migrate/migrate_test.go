package migrate

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/tursodatabase/go-libsql"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSplitSQL(t *testing.T) {
	got := SplitSQL("CREATE TABLE a (x INT);\n\n  ;CREATE INDEX i ON a (x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, got)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.up.sql":  {Data: []byte("B")},
		"001_first.up.sql":   {Data: []byte("A")},
		"001_first.down.sql": {Data: []byte("a")},
		"README.md":          {Data: []byte("ignored")},
	}

	got, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Migration{Version: 1, Name: "first", UpSQL: "A", DownSQL: "a"}, got[0])
	assert.Equal(t, 2, got[1].Version)
	assert.Empty(t, got[1].DownSQL)
}

func TestMigratorUpAndDown(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	m, err := New(db, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.Current)
	assert.Equal(t, 2, status.Latest)
	assert.False(t, status.Dirty)
	assert.Empty(t, status.Pending)

	_, err = db.ExecContext(ctx, `INSERT INTO experiment_outcomes (participant_id, experiment_name, purchased, revenue, evaluated_at) VALUES (1, 'X', 0, 0, '2026-01-01')`)
	require.NoError(t, err)

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second run has nothing to apply")

	n, err = m.To(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Current)
	require.Len(t, status.Pending, 1)
	assert.Equal(t, "create_outcomes", status.Pending[0].Name)

	_, err = m.To(ctx, 9)
	assert.Error(t, err)
}

func TestOutcomeInvariantEnforcedBySchema(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	require.NoError(t, RunAll(ctx, db, slog.New(slog.DiscardHandler)))

	_, err := db.ExecContext(ctx, `INSERT INTO experiment_outcomes (participant_id, experiment_name, purchased, revenue, evaluated_at) VALUES (1, 'X', 0, 12.5, '2026-01-01')`)
	assert.Error(t, err)
}
