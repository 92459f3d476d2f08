package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/metrics"

	_ "modernc.org/sqlite"
)

// Cache maps experiment fingerprints to reduced results. Implementations
// are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (metrics.Summary, bool, error)
	Put(ctx context.Context, key string, s metrics.Summary) error
	Len(ctx context.Context) (int, error)
	Close() error
}

// NewCache opens a cache backend: "memory", or "sqlite" at path.
func NewCache(ctx context.Context, backend, path string) (Cache, error) {
	switch backend {
	case "", "memory":
		return NewMemoryCache(), nil
	case "sqlite":
		return OpenSQLiteCache(ctx, path)
	}
	return nil, dynamo.Configf("cache_backend", backend, "expected memory or sqlite")
}

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]metrics.Summary
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]metrics.Summary)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (metrics.Summary, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[key]
	return s, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, s metrics.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = s
	return nil
}

func (c *MemoryCache) Len(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

func (c *MemoryCache) Close() error { return nil }

type SQLiteCache struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

func OpenSQLiteCache(ctx context.Context, path string) (*SQLiteCache, error) {
	if path == "" {
		return nil, dynamo.Configf("cache_path", path, "required for the sqlite backend")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS results (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

var errCacheClosed = errors.New("storage: cache closed")

func (c *SQLiteCache) getDB() (*sql.DB, error) {
	if c.closed {
		return nil, errCacheClosed
	}
	return c.db, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (metrics.Summary, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	db, err := c.getDB()
	if err != nil {
		return metrics.Summary{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM results WHERE key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return metrics.Summary{}, false, nil
		}
		return metrics.Summary{}, false, err
	}

	var s metrics.Summary
	if err := json.Unmarshal(payload, &s); err != nil {
		return metrics.Summary{}, false, fmt.Errorf("decode cached result %s: %w", key, err)
	}
	return s, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, key string, s metrics.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	db, err := c.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO results (key, payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, key, payload, time.Now().Unix())
	return err
}

func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	db, err := c.getDB()
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n)
	return n, err
}

func (c *SQLiteCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}
