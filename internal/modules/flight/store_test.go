// README: PostgreSQL catalogue store tests (skipped unless SKYBOOK_TEST_DB_DSN is set).
package flight

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"skybook/internal/modules/pricing"
)

func TestStoreImportAndRead(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	stats, err := store.Import(ctx, []Airport{bud, lhr}, fixtureFlights())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Flights != 6 || stats.Airports != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	// 60 + 8 + 100 + 80 + 40 + 40 seats.
	if stats.Seats != 328 {
		t.Fatalf("seats = %d, want 328", stats.Seats)
	}

	day := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)
	route, err := store.ListByRoute(ctx, "BUD", "LHR", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(route) != 4 {
		t.Fatalf("route flights = %d, want 4", len(route))
	}
	if route[0].ID != "1" || route[0].Fares[pricing.Business] != 20000 || route[0].AvailableSeats[pricing.Business] != 10 {
		t.Fatalf("first flight = %+v", route[0])
	}

	f, err := store.Get(ctx, "4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Status != StatusCancelled || f.Departure.City != "Budapest" {
		t.Fatalf("flight 4 = %+v", f)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing flight err = %v", err)
	}

	seats, err := store.Seats(ctx, "2")
	if err != nil {
		t.Fatalf("seats: %v", err)
	}
	if len(seats) != 8 || seats[0].Number != "1A" || seats[0].Class != pricing.First {
		t.Fatalf("seat map = %+v", seats)
	}

	// Re-import replaces inventory instead of duplicating it.
	if _, err := store.Import(ctx, []Airport{bud, lhr}, fixtureFlights()[:1]); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	seats, err = store.Seats(ctx, "1")
	if err != nil {
		t.Fatalf("seats after re-import: %v", err)
	}
	if len(seats) != 60 {
		t.Fatalf("seats after re-import = %d, want 60", len(seats))
	}

	airports, err := store.Airports(ctx)
	if err != nil {
		t.Fatalf("airports: %v", err)
	}
	if len(airports) != 2 || airports[0].Code != "BUD" {
		t.Fatalf("airports = %+v", airports)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("SKYBOOK_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("SKYBOOK_TEST_DB_DSN not set; skipping DB-backed catalogue tests")
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
	return NewStore(db)
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
