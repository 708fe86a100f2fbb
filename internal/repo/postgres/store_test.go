package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eventdeck/eventdeck-go/internal/repo"
)

func TestLockEventQueryLocksParentRow(t *testing.T) {
	if !strings.Contains(lockEventQuery, "FOR UPDATE") {
		t.Fatalf("expected row lock in lock query")
	}
	if !strings.Contains(lockEventQuery, "FROM events") {
		t.Fatalf("expected lock on the events table")
	}
}

func TestShiftRanksQueryIsEventScopedRange(t *testing.T) {
	for _, want := range []string{"event_id = $1", "rank >= $2", "rank <= $3", "rank = rank + $4"} {
		if !strings.Contains(shiftRanksQuery, want) {
			t.Fatalf("shift query missing %q", want)
		}
	}
}

func TestListCardsQueryOrdersByRank(t *testing.T) {
	if !strings.Contains(listCardsQuery, "ORDER BY rank ASC") {
		t.Fatalf("expected rank ordering in list query")
	}
}

func TestRenumberQueryUsesRowNumber(t *testing.T) {
	if !strings.Contains(renumberCardsQuery, "ROW_NUMBER() OVER (ORDER BY rank ASC") {
		t.Fatalf("expected window renumbering")
	}
}

func TestBuildUpsertLayoutsQuery(t *testing.T) {
	q := buildUpsertLayoutsQuery(2)
	if !strings.Contains(q, "($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14)") {
		t.Fatalf("unexpected values list: %s", q)
	}
	if !strings.Contains(q, "ON CONFLICT (card_item_id, screen) DO UPDATE SET") {
		t.Fatalf("expected conflict clause: %s", q)
	}
	for _, col := range []string{"x = EXCLUDED.x", "y = EXCLUDED.y", "w = EXCLUDED.w", "h = EXCLUDED.h"} {
		if !strings.Contains(q, col) {
			t.Fatalf("expected %q in upsert: %s", col, q)
		}
	}
}

func TestBuildSelectLayoutsQuery(t *testing.T) {
	q := buildSelectLayoutsQuery(2)
	if !strings.HasSuffix(q, "(card_item_id, screen) IN (($1,$2),($3,$4))") {
		t.Fatalf("unexpected key list: %s", q)
	}
}

func TestLockTimeoutStatement(t *testing.T) {
	if got := lockTimeoutStatement(1500 * time.Millisecond); got != "SET LOCAL lock_timeout = '1500ms'" {
		t.Fatalf("lockTimeoutStatement()=%q", got)
	}
	if got := lockTimeoutStatement(time.Microsecond); got != "SET LOCAL lock_timeout = '1ms'" {
		t.Fatalf("lockTimeoutStatement()=%q", got)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{code: "40001", want: repo.ErrConflict},
		{code: "40P01", want: repo.ErrConflict},
		{code: "55P03", want: repo.ErrConflict},
		{code: "23503", want: repo.ErrNotFound},
		{code: "08006", want: repo.ErrUnavailable},
		{code: "57P01", want: repo.ErrUnavailable},
	}
	for _, tc := range cases {
		err := classifyError(fmt.Errorf("exec: %w", &pgconn.PgError{Code: tc.code}))
		if !errors.Is(err, tc.want) {
			t.Fatalf("classifyError(%s)=%v, want %v", tc.code, err, tc.want)
		}
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) {
			t.Fatalf("classifyError(%s) dropped the driver error", tc.code)
		}
	}
}

func TestClassifyError_PassesThroughOthers(t *testing.T) {
	err := classifyError(&pgconn.PgError{Code: "23505"})
	for _, sentinel := range []error{repo.ErrConflict, repo.ErrNotFound, repo.ErrUnavailable} {
		if errors.Is(err, sentinel) {
			t.Fatalf("unique violation classified as %v", sentinel)
		}
	}
	plain := errors.New("boom")
	if got := classifyError(plain); got != plain {
		t.Fatalf("classifyError(plain)=%v, want unchanged", got)
	}
	if classifyError(nil) != nil {
		t.Fatalf("classifyError(nil) should be nil")
	}
}

func TestNewStoreNilDB(t *testing.T) {
	if NewStore(nil, time.Second) != nil {
		t.Fatalf("expected nil store for nil db")
	}
}
