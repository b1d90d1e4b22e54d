package tiles

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Cache is an MBTiles file in front of an optional upstream Source. With no
// upstream it only serves what is already stored.
type Cache struct {
	db       *sql.DB
	upstream Source
}

// OpenCache opens or creates the MBTiles file at path.
func OpenCache(path string, upstream Source) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create tile cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open tile cache: %w", err)
	}
	// One writer; prefetch workers queue on the pool.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise tile cache schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("Opened tile cache")
	return &Cache{db: db, upstream: upstream}, nil
}

// tmsRow converts an XYZ row to the TMS row MBTiles stores.
func tmsRow(t Tile) int {
	return (1 << t.Z) - 1 - t.Y
}

// Tile returns the stored tile, fetching and storing it on a miss.
func (c *Cache) Tile(ctx context.Context, t Tile) ([]byte, error) {
	data, err := c.lookup(ctx, t)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if c.upstream == nil {
		return nil, err
	}

	data, err = c.upstream.Tile(ctx, t)
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, t, data); err != nil {
		log.Warn().Err(err).Str("tile", t.String()).Msg("Could not store tile")
	}
	return data, nil
}

func (c *Cache) lookup(ctx context.Context, t Tile) ([]byte, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		t.Z, t.X, tmsRow(t),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s not cached", ErrNotFound, t)
	}
	if err != nil {
		return nil, fmt.Errorf("query tile %s: %w", t, err)
	}
	return data, nil
}

// Has reports whether t is stored.
func (c *Cache) Has(ctx context.Context, t Tile) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		t.Z, t.X, tmsRow(t),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query tile %s: %w", t, err)
	}
	return n > 0, nil
}

// Put stores or replaces t.
func (c *Cache) Put(ctx context.Context, t Tile, data []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
		t.Z, t.X, tmsRow(t), data,
	)
	if err != nil {
		return fmt.Errorf("store tile %s: %w", t, err)
	}
	return nil
}

// Count returns the number of stored tiles.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tiles: %w", err)
	}
	return n, nil
}

// SetMetadata writes an MBTiles metadata row.
func (c *Cache) SetMetadata(ctx context.Context, name, value string) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)`, name, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", name, err)
	}
	return nil
}

// Metadata reads an MBTiles metadata row; a missing row yields "".
func (c *Cache) Metadata(ctx context.Context, name string) (string, error) {
	var value sql.NullString
	err := c.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", name, err)
	}
	return value.String, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
