package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoproxy/internal/pkg/logging"
)

// AccessLogMiddleware logs one structured line per request once the response
// is written.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		status := c.Response().StatusCode()
		latency := time.Since(start)

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("latency", latency.String()),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if svc := c.Query("service"); svc != "" {
			attrs = append(attrs, slog.String("service", svc))
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		}

		// the request logger already carries request_id
		logging.FromContext(c.UserContext()).LogAttrs(c.UserContext(), level,
			fmt.Sprintf("response completed in %s", latency), attrs...)

		return err
	}
}
