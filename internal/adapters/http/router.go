package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/samirrijal/geoproxy/internal/pkg/metrics"
)

// RateLimitPerMinute caps requests per client IP.
const RateLimitPerMinute = 120

// SetupRoutes registers the REST and GraphQL routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        RateLimitPerMinute,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return errTooManyRequests(c, "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware(LegacyRoutes))
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	geocode := timeout.NewWithContext(GeocodeHandler(deps), deps.requestTimeout())

	v1 := app.Group("/v1")
	v1.Get("/geocode", geocode)
	v1.Get("/providers", ProvidersHandler(deps))

	// Unversioned path of the first release
	app.Get("/geocode", geocode)

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)
}
