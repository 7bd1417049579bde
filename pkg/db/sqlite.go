// pkg/db/sqlite.go
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver, registers as "sqlite"
)

// SQLiteConfig holds SQLite connection configuration.
type SQLiteConfig struct {
	Path        string        `env:"SQLITE_PATH" envDefault:"referrals.db"`
	BusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`
}

// DSN renders the modernc.org/sqlite connection string with WAL and busy timeout pragmas.
func (cfg SQLiteConfig) DSN() string {
	path := filepath.Clean(strings.TrimPrefix(cfg.Path, "file:"))
	if strings.Contains(cfg.Path, ":memory:") {
		path = ":memory:"
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path, cfg.BusyTimeout.Milliseconds())
}

// NewSQLiteDB opens (creating if needed) a SQLite database file.
// The pool is limited to one connection so writes are serialized by the driver.
func NewSQLiteDB(cfg SQLiteConfig) (*sqlx.DB, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := ensureDirForSQLite(cfg.Path); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite: %w", err)
	}

	return db, nil
}

// ensureDirForSQLite creates the parent dir for a SQLite file if needed.
func ensureDirForSQLite(path string) error {
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(path, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
