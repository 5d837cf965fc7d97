// README: PostgreSQL booking store tests (skipped unless SKYBOOK_TEST_DB_DSN is set).
package booking

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

func TestStoreRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	svc := newTestService(store)
	ctx := context.Background()

	b := mustCreateBooking(t, svc)
	got, err := store.GetByReference(ctx, b.Reference)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != b.ID || got.CabinClass != pricing.Economy || got.Status != StatusPending {
		t.Fatalf("got %+v", got)
	}
	if got.TotalPrice != types.HUF(22015) || got.Breakdown.Total != 22015 || got.Breakdown.EarlyBirdDiscount != 3885 {
		t.Fatalf("price not stored verbatim: %+v / %+v", got.TotalPrice, got.Breakdown)
	}

	dup := *b
	dup.ID = "00000000-0000-0000-0000-000000000001"
	if err := store.Create(ctx, &dup); !errors.Is(err, ErrReferenceTaken) {
		t.Fatalf("duplicate reference err = %v, want ErrReferenceTaken", err)
	}

	if _, err := svc.Cancel(ctx, b.Reference, "no longer travelling"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	events, err := store.Events(ctx, b.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[1].ToStatus != StatusCancelled || events[1].Reason == nil {
		t.Fatalf("events = %+v", events)
	}
}

func TestStoreConcurrentConfirm(t *testing.T) {
	store := setupTestStore(t)
	svc := newTestService(store)
	ctx := context.Background()
	b := mustCreateBooking(t, svc)

	const workers = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Confirm(ctx, b.Reference)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrInvalidState) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one confirm, got %d", success)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("SKYBOOK_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("SKYBOOK_TEST_DB_DSN not set; skipping DB-backed booking tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE booking_events, bookings, seats, flight_fares, flights, airports"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	if err := seedFlight(ctx, db); err != nil {
		t.Fatalf("seed flight: %v", err)
	}
	return NewStore(db)
}

// seedFlight inserts the F1 row that bookings reference; fares and seats come from the fake catalogue.
func seedFlight(ctx context.Context, db *pgxpool.Pool) error {
	departure := testNow.AddDate(0, 0, 35)
	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO airports (code, name, city, country) VALUES
			('BUD', 'Budapest Liszt Ferenc', 'Budapest', 'Hungary'),
			('LHR', 'London Heathrow', 'London', 'United Kingdom')`, nil},
		{`INSERT INTO flights (id, flight_number, airline, departure_airport, arrival_airport, departure_time, arrival_time)
			VALUES ('F1', 'SB101', 'Skybook Air', 'BUD', 'LHR', $1, $2)`,
			[]any{departure, departure.Add(2 * time.Hour)}},
	}
	for _, s := range stmts {
		if _, err := db.Exec(ctx, s.sql, s.args...); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
