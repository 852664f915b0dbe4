package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/arcglobe/internal/adapters/nats"
	"github.com/samirrijal/arcglobe/internal/adapters/postgres"
	"github.com/samirrijal/arcglobe/internal/adapters/valkey"
	"github.com/samirrijal/arcglobe/internal/core/ports"
	"github.com/samirrijal/arcglobe/internal/core/usecases"
	"github.com/samirrijal/arcglobe/internal/pkg/config"
	"github.com/samirrijal/arcglobe/internal/pkg/logging"
	"github.com/samirrijal/arcglobe/internal/pkg/telemetry"
	"github.com/samirrijal/arcglobe/internal/routetable"
)

// broadcaster polls the route source and publishes a snapshot to NATS
// whenever the table changes, e.g. after `migrate seed` rewrites Postgres.
func main() {
	cfg, err := config.Load("arcglobe-broadcaster")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	if cfg.NATS.URL == "" {
		log.Fatal("nats.url is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	var source ports.RouteSource = routetable.Static{}
	if cfg.Source.Kind == config.SourcePostgres {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		source = postgres.NewRouteTableRepo(db)
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	opts := []usecases.Option{usecases.WithPublisher(pub)}

	// The API's cache must be dropped when the table changes.
	if cfg.Valkey.Addr != "" {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, cached tables expire by TTL only", "error", err)
		} else {
			defer cache.Close()
			opts = append(opts, usecases.WithCache(cache, cfg.Cache.TTLSeconds))
		}
	}

	svc := usecases.NewRouteTableService(source, opts...)

	pollInterval := time.Duration(cfg.Broadcast.IntervalSeconds) * time.Second
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	slog.Info("broadcaster started", "source", cfg.Source.Kind, "interval", pollInterval.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run once immediately
	syncOnce(ctx, svc)

	for {
		select {
		case <-ticker.C:
			syncOnce(ctx, svc)
		case <-ctx.Done():
			return
		case sig := <-quit:
			slog.Info("shutting down broadcaster", "signal", sig.String())
			return
		}
	}
}

func syncOnce(ctx context.Context, svc *usecases.RouteTableService) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	published, err := svc.Sync(ctx)
	if err != nil {
		slog.Error("sync failed", "error", err)
		return
	}
	if published {
		slog.Info("route table snapshot published")
	}
}
