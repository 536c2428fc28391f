package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

// Client wraps a libsql connection with the retry policy of the storage
// boundary.
type Client struct {
	*sql.DB
	maxRetries int
	logger     *slog.Logger
}

// Options configures the client.
type Options struct {
	URL        string
	AuthToken  string
	MaxRetries int
	// Ping verifies the connection on open.
	Ping bool
}

// Open connects to a local libsql file ("file:...") or a remote Turso
// database.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	local := IsLocal(opts.URL)
	if local {
		if err := ensureDir(opts.URL); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("libsql", connString(opts.URL, opts.AuthToken))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if !local {
		// Turso closes idle Hrana streams aggressively; stale pooled
		// connections surface as "stream not found".
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(0)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(0)
	}

	if opts.Ping {
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	return &Client{DB: db, maxRetries: opts.MaxRetries, logger: logger}, nil
}

// Wrap adopts an existing connection, e.g. an in-memory test database.
func Wrap(db *sql.DB, maxRetries int, logger *slog.Logger) *Client {
	return &Client{DB: db, maxRetries: maxRetries, logger: logger}
}

func IsLocal(url string) bool {
	return strings.HasPrefix(url, "file:")
}

func connString(url, authToken string) string {
	if authToken == "" || IsLocal(url) {
		return url
	}
	return url + "?authToken=" + authToken
}

func ensureDir(url string) error {
	path := strings.TrimPrefix(url, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// IsStreamError checks if an error is a Turso "stream not found" error.
func IsStreamError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "stream not found")
}

// Do runs fn, retrying Turso stream errors up to the client's retry budget.
// Every retry is logged; other errors are returned immediately.
func Do[T any](ctx context.Context, c *Client, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsStreamError(err) || attempt == c.maxRetries {
			return result, err
		}

		c.logger.Warn("retrying database operation", "op", op, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return result, err
}
