package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/eventdeck/eventdeck-go/internal/platform/sqlite"
)

func TestOpenSQLiteFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "board.db"))

	b, err := Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = b.Store.Close() }()

	if b.Driver != sqlite.DriverName {
		t.Fatalf("driver=%q, want %q", b.Driver, sqlite.DriverName)
	}
	if b.IsPostgres() {
		t.Fatalf("sqlite backend reported as postgres")
	}
	if err := b.Store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := b.Store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestDriverRejectsUnknown(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	if _, err := Driver(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestDriverDefaultsToPostgres(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	if err := os.Unsetenv("DATABASE_DRIVER"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	driver, err := Driver()
	if err != nil {
		t.Fatalf("Driver: %v", err)
	}
	if driver != "postgres" {
		t.Fatalf("driver=%q, want postgres", driver)
	}
}
