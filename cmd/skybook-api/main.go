// README: Entry point; loads config, wires catalogue, pricing and bookings, serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"skybook/internal/config"
	httptransport "skybook/internal/http"
	"skybook/internal/infra"
	"skybook/internal/modules/booking"
	"skybook/internal/modules/flight"
	"skybook/internal/modules/pricing"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]httptransport.HealthCheck{}

	var (
		catalog  flight.Repository
		bookings booking.Repository
		dbPool   *pgxpool.Pool
	)
	switch cfg.Catalog.Source {
	case config.SourceMock:
		mock, err := flight.LoadMockFile(cfg.Catalog.MockPath)
		if err != nil {
			slog.Error("load mock catalogue", "path", cfg.Catalog.MockPath, "error", err)
			os.Exit(1)
		}
		catalog = mock
		bookings = booking.NewMemoryStore()
		slog.Info("using mock catalogue", "path", cfg.Catalog.MockPath)
	default:
		dbPool, err = infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			slog.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		catalog = flight.NewStore(dbPool)
		bookings = booking.NewStore(dbPool)
		health["postgres"] = dbPool.Ping
	}

	var cache flight.Cache = flight.NopCache{}
	if cfg.Redis.Addr != "" {
		client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			slog.Warn("redis unavailable; search cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer client.Close()
			cache = flight.NewRedisCache(client)
			health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	pricingSvc := pricing.NewService(cfg.Pricing.Location, time.Now)
	flightSvc := flight.NewService(catalog, cache, pricingSvc, cfg.Search.CacheTTL)
	bookingSvc := booking.NewService(bookings, flightSvc, pricingSvc, cfg.Pricing.Currency)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Flights:     flightSvc,
		Bookings:    bookingSvc,
		Location:    cfg.Pricing.Location,
		Currency:    cfg.Pricing.Currency,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Health:      health,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown", "error", err)
		}
	}()

	slog.Info("skybook api listening",
		"addr", cfg.HTTP.Addr,
		"catalog", cfg.Catalog.Source,
		"tz", cfg.Pricing.Location.String(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server", "error", err)
		os.Exit(1)
	}
}
