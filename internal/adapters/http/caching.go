package http

import (
	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses the handler left alone.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		var ttl string
		switch c.Path() {
		case "/v1/health", "/v1/ready", "/metrics":
			ttl = "no-cache"
		case "/v1/providers":
			ttl = "public, max-age=3600" // changes only on redeploy
		case "/docs", "/docs/openapi.yaml", "/docs/openapi.json":
			ttl = "public, max-age=86400"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
