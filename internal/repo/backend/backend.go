// Package backend opens the repo.Store selected by DATABASE_DRIVER.
package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eventdeck/eventdeck-go/internal/platform/env"
	"github.com/eventdeck/eventdeck-go/internal/platform/postgres"
	"github.com/eventdeck/eventdeck-go/internal/platform/sqlite"
	"github.com/eventdeck/eventdeck-go/internal/repo"
	repopg "github.com/eventdeck/eventdeck-go/internal/repo/postgres"
	reposqlite "github.com/eventdeck/eventdeck-go/internal/repo/sqlite"
)

type Backend struct {
	Store  repo.Store
	DB     *sql.DB
	Driver string
}

func (b Backend) IsPostgres() bool {
	return b.Driver == postgres.DriverName
}

// Driver reads DATABASE_DRIVER. Postgres is the default.
func Driver() (string, error) {
	return env.OneOf("DATABASE_DRIVER", postgres.DriverName, postgres.DriverName, sqlite.DriverName)
}

func Open(ctx context.Context) (Backend, error) {
	driver, err := Driver()
	if err != nil {
		return Backend{}, err
	}
	switch driver {
	case sqlite.DriverName:
		cfg, err := sqlite.ConfigFromEnv()
		if err != nil {
			return Backend{}, err
		}
		return OpenSQLite(ctx, cfg)
	default:
		cfg, err := postgres.ConfigFromEnv()
		if err != nil {
			return Backend{}, err
		}
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return Backend{}, fmt.Errorf("open postgres: %w", err)
		}
		return Backend{Store: repopg.NewStore(db, cfg.LockTimeout), DB: db, Driver: driver}, nil
	}
}

func OpenSQLite(ctx context.Context, cfg sqlite.Config) (Backend, error) {
	db, err := sqlite.Open(ctx, cfg)
	if err != nil {
		return Backend{}, fmt.Errorf("open sqlite: %w", err)
	}
	return Backend{Store: reposqlite.NewStore(db), DB: db, Driver: sqlite.DriverName}, nil
}
