// README: Loads a JSON catalogue file (mocks/flights.json shape) into PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skybook/internal/config"
	"skybook/internal/infra"
	"skybook/internal/modules/flight"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	file := flag.String("file", cfg.Catalog.MockPath, "catalogue JSON file")
	dsn := flag.String("dsn", cfg.DB.DSN, "Postgres DSN")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mock, err := flight.LoadMockFile(*file)
	if err != nil {
		slog.Error("load catalogue", "file", *file, "error", err)
		os.Exit(1)
	}
	airports, err := mock.Airports(ctx)
	if err != nil {
		slog.Error("list airports", "error", err)
		os.Exit(1)
	}
	flights, err := mock.Flights(ctx)
	if err != nil {
		slog.Error("list flights", "error", err)
		os.Exit(1)
	}

	db, err := infra.NewDB(ctx, *dsn)
	if err != nil {
		slog.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	start := time.Now()
	stats, err := flight.NewStore(db).Import(ctx, airports, flights)
	if err != nil {
		slog.Error("import catalogue", "error", err)
		os.Exit(1)
	}
	slog.Info("catalogue imported",
		"file", *file,
		"airports", stats.Airports,
		"flights", stats.Flights,
		"seats", stats.Seats,
		"elapsed", time.Since(start),
	)
}
