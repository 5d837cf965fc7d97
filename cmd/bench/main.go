// README: Smoke and load runner against a live skybook API; executes HTTP/DB/Redis checks and prints results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, pending, skipped := 0, 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusPending:
			pending++
		case statusSkip:
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d PENDING=%d SKIP=%d\n", pass, fail, pending, skipped)

	if fail > 0 || (cfg.Strict && pending > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL        string
	DSN            string
	RedisAddr      string
	MigrationPath  string
	ApplyMigration bool
	Strict         bool
	Timeout        time.Duration
	Concurrency    int
	Duration       time.Duration

	// Catalog fixture the booking and quote cases run against.
	FlightID      string
	Origin        string
	Destination   string
	DepartureDate string
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("SKYBOOK_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", envOrDefault("SKYBOOK_DB_DSN", ""), "Postgres DSN (empty skips DB cases)")
	flag.StringVar(&cfg.RedisAddr, "redis", envOrDefault("SKYBOOK_REDIS_ADDR", ""), "Redis address (empty skips Redis cases)")
	flag.StringVar(&cfg.MigrationPath, "migration", envOrDefault("SKYBOOK_BENCH_MIGRATION", "migrations/0001_init.sql"), "Migration SQL path")
	flag.BoolVar(&cfg.ApplyMigration, "apply-migration", envOrDefaultBool("SKYBOOK_BENCH_APPLY_MIGRATION", false), "Apply migration SQL before tests")
	flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("SKYBOOK_BENCH_STRICT", false), "Fail on pending tests")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("SKYBOOK_BENCH_TIMEOUT", 60*time.Second), "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("SKYBOOK_BENCH_CONCURRENCY", 20), "Concurrency for perf and race tests")
	flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("SKYBOOK_BENCH_DURATION", 10*time.Second), "Duration for perf tests")
	flag.StringVar(&cfg.FlightID, "flight", envOrDefault("SKYBOOK_BENCH_FLIGHT", "1001"), "Flight id used by quote and booking cases")
	flag.StringVar(&cfg.Origin, "origin", envOrDefault("SKYBOOK_BENCH_ORIGIN", "BUD"), "Search origin IATA code")
	flag.StringVar(&cfg.Destination, "destination", envOrDefault("SKYBOOK_BENCH_DESTINATION", "LHR"), "Search destination IATA code")
	flag.StringVar(&cfg.DepartureDate, "date", envOrDefault("SKYBOOK_BENCH_DATE", "2026-11-20"), "Search departure date (YYYY-MM-DD)")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
