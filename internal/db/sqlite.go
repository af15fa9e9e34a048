package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		accessed_at INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, key)
	);

	CREATE INDEX IF NOT EXISTS idx_cache_entries_lru ON cache_entries(namespace, accessed_at);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// nextTick is a per-namespace logical clock; wall time is too coarse to order
// accesses that land in the same nanosecond bucket on some platforms.
const nextTick = `(SELECT COALESCE(MAX(accessed_at), 0) + 1 FROM cache_entries WHERE namespace = ?)`

// CacheGet returns the stored value. When touch is set the entry becomes the
// most recently used one in its namespace.
func (d *Database) CacheGet(ctx context.Context, namespace, key string, touch bool) ([]byte, bool, error) {
	var val []byte
	err := d.db.QueryRowContext(ctx,
		"SELECT value FROM cache_entries WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if touch {
		if _, err := d.db.ExecContext(ctx,
			"UPDATE cache_entries SET accessed_at = "+nextTick+" WHERE namespace = ? AND key = ?",
			namespace, namespace, key,
		); err != nil {
			return nil, false, err
		}
	}
	return val, true, nil
}

// CachePut upserts an entry and keeps the namespace at or below capacity.
// With evict unset a new key is refused once the namespace is full, and the
// returned bool reports whether the value was stored.
func (d *Database) CachePut(ctx context.Context, namespace, key string, value []byte, capacity int, evict bool) (bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cache_entries WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&exists); err != nil {
		return false, err
	}

	if exists == 0 && !evict {
		var count int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM cache_entries WHERE namespace = ?", namespace,
		).Scan(&count); err != nil {
			return false, err
		}
		if count >= capacity {
			return false, nil
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cache_entries (namespace, key, value, accessed_at) VALUES (?, ?, ?, `+nextTick+`)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, accessed_at = excluded.accessed_at`,
		namespace, key, value, namespace,
	); err != nil {
		return false, err
	}

	if evict {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM cache_entries WHERE namespace = ? AND key NOT IN (
				SELECT key FROM cache_entries WHERE namespace = ? ORDER BY accessed_at DESC LIMIT ?
			)`,
			namespace, namespace, capacity,
		); err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

// CacheCount returns the number of entries in a namespace.
func (d *Database) CacheCount(ctx context.Context, namespace string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cache_entries WHERE namespace = ?", namespace,
	).Scan(&n)
	return n, err
}

// GetSetting returns a setting value by key, or defaultVal if not found
func (d *Database) GetSetting(key, defaultVal string) string {
	var val string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return defaultVal
	}
	return val
}

// SetSetting upserts a setting
func (d *Database) SetSetting(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP`,
		key, value, value,
	)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}
