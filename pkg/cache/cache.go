// Package cache stores compiled chunks in SQLite, keyed by the SHA-256 of
// the source they were compiled from.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/luar/pkg/bytecode"
)

// ErrNotFound indicates the source has no cached chunk.
var ErrNotFound = errors.New("chunk not cached")

// MemoryPath opens a private in-memory cache.
const MemoryPath = ":memory:"

func logger() commonlog.Logger {
	return commonlog.GetLogger("luar.cache")
}

// Cache is a persistent map from source hash to chunk image.
type Cache struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the cache database at path, creating its directory
// if needed.
func Open(ctx context.Context, path string) (*Cache, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection, so an in-memory database is shared by every call.
	db.SetMaxOpenConns(1)

	// Set busy timeout for concurrent access
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS chunks (
		key        TEXT PRIMARY KEY,
		version    INTEGER NOT NULL,
		image      BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	logger().Debugf("opened chunk cache %s", path)
	return &Cache{db: db, path: path}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database location.
func (c *Cache) Path() string {
	return c.path
}

// Key returns the cache key for source text.
func Key(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Get returns the chunk cached for src. Entries that no longer decode, for
// example after a bytecode version change, are evicted and reported as
// ErrNotFound.
func (c *Cache) Get(ctx context.Context, src []byte) (*bytecode.Chunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(src)
	var image []byte
	err := c.db.QueryRowContext(ctx, "SELECT image FROM chunks WHERE key = ?", key).Scan(&image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying chunk: %w", err)
	}

	chunk, err := bytecode.UnmarshalChunk(image)
	if err != nil {
		logger().Warningf("evicting unreadable cache entry %s: %s", key[:12], err)
		if _, err := c.db.ExecContext(ctx, "DELETE FROM chunks WHERE key = ?", key); err != nil {
			return nil, fmt.Errorf("evicting chunk: %w", err)
		}
		return nil, ErrNotFound
	}

	logger().Debugf("cache hit %s", key[:12])
	return chunk, nil
}

// Put stores chunk as the compiled form of src, replacing any earlier entry.
func (c *Cache) Put(ctx context.Context, src []byte, chunk *bytecode.Chunk) error {
	image, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(src)
	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO chunks (key, version, image, created_at) VALUES (?, ?, ?, ?)",
		key, chunk.Version, image, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}

	logger().Debugf("cached %s (%d bytes)", key[:12], len(image))
	return nil
}

// Len returns the number of cached chunks.
func (c *Cache) Len(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Purge removes every entry.
func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("purging chunks: %w", err)
	}
	return nil
}
