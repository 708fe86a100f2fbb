package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventdeck/eventdeck-go/internal/platform/env"
	_ "modernc.org/sqlite"
)

// DriverName selects this backend in DATABASE_DRIVER. It is also the
// database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

func ConfigFromEnv() (Config, error) {
	busyTimeout, err := env.Duration("SQLITE_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Path:        env.String("SQLITE_PATH", "eventdeck.db"),
		BusyTimeout: busyTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return errors.New("SQLITE_PATH is required")
	}
	if strings.Contains(c.Path, "?") {
		return fmt.Errorf("SQLITE_PATH must not contain query parameters: %q", c.Path)
	}
	if c.BusyTimeout < 0 {
		return errors.New("SQLITE_BUSY_TIMEOUT must be >= 0")
	}
	return nil
}

// DSN renders the modernc connection string. Pragmas are applied on every
// new connection.
func (c Config) DSN() string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", c.BusyTimeout.Milliseconds()),
	}
	return "file:" + c.Path + "?" + strings.Join(pragmas, "&")
}

// Open opens the database with a single connection: SQLite allows one
// writer, so transactions are serialized by the pool.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open(DriverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}
