package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geoproxy/internal/adapters/http"
	natsadapter "github.com/samirrijal/geoproxy/internal/adapters/nats"
	"github.com/samirrijal/geoproxy/internal/adapters/providers"
	"github.com/samirrijal/geoproxy/internal/adapters/upstream"
	"github.com/samirrijal/geoproxy/internal/adapters/valkey"
	"github.com/samirrijal/geoproxy/internal/core/ports"
	"github.com/samirrijal/geoproxy/internal/core/usecases"
	"github.com/samirrijal/geoproxy/internal/pkg/config"
	"github.com/samirrijal/geoproxy/internal/pkg/logging"
	"github.com/samirrijal/geoproxy/internal/pkg/telemetry"
)

var Version = "dev"

func main() {
	cfg, err := config.Load("geoproxy-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	logging.Setup(logLevel, logFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Providers, in configured registration order
	registry, err := buildRegistry(cfg)
	if err != nil {
		log.Fatalf("providers: %v", err)
	}
	slog.Info("providers registered", "order", registry.IDs())

	opts := []usecases.GeocodeOption{
		usecases.WithFetchTimeout(cfg.Geocode.FetchTimeout()),
		usecases.WithBoundsMode(usecases.BoundsMode(cfg.Geocode.BoundsConvention)),
	}
	deps := &http.Dependencies{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		Version:        Version,
	}

	// Cache
	if cfg.Cache.Enabled {
		cache, err := valkey.New(cfg.Cache.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, caching disabled", "error", err)
		} else {
			defer cache.Close()
			opts = append(opts, usecases.WithCache(cache, cfg.Cache.TTL))
			deps.Cache = cache
		}
	}

	// NATS
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, lookup events disabled", "error", err)
		} else {
			defer pub.Close()
			opts = append(opts, usecases.WithEvents(pub))
			deps.NATS = pub
		}
	}

	fetcher := upstream.New(cfg.Geocode.Workers)
	deps.Geocoder = usecases.NewGeocodeService(registry, fetcher, opts...)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "GeoProxy API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func buildRegistry(cfg *config.Config) (*providers.Registry, error) {
	var list []ports.Provider
	for _, name := range cfg.Geocode.Providers {
		switch name {
		case string(providers.GoogleID):
			if cfg.Google.APIKey == "" {
				slog.Warn("google api key not set, requests will be denied upstream")
			}
			list = append(list, providers.NewGoogle(cfg.Google.APIKey, cfg.Google.Endpoint))
		case string(providers.HereID):
			if cfg.Here.AppID == "" || cfg.Here.AppCode == "" {
				slog.Warn("here credentials not set, requests will be denied upstream")
			}
			list = append(list, providers.NewHere(cfg.Here.AppID, cfg.Here.AppCode, cfg.Here.Endpoint))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return providers.NewRegistry(list...)
}
