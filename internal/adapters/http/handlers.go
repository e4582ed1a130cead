package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/samirrijal/geoproxy/internal/core/domain"
	"github.com/samirrijal/geoproxy/internal/core/usecases"
)

// GeocodeHandler resolves ?address=&service=&bounds= through the provider chain.
// The body is always a proxy response, whatever the status.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		args := c.Context().QueryArgs()
		raw := usecases.RawRequest{
			Address: queryValues(args, "address"),
			Service: queryValues(args, "service"),
			Bounds:  queryValues(args, "bounds"),
		}

		resp := deps.Geocoder.Lookup(c.UserContext(), raw)

		if resp.OK() {
			c.Set(fiber.HeaderCacheControl, "public, max-age=300")
		} else {
			c.Set(fiber.HeaderCacheControl, "no-store")
		}
		return c.Status(HTTPStatus(resp.Status)).JSON(resp)
	}
}

// ProvidersHandler lists the registered providers in default attempt order.
func ProvidersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"providers": deps.Geocoder.Providers()})
	}
}

// HTTPStatus maps a proxy status to the HTTP status code. ZERO_RESULTS is a
// successful lookup with nothing found, so it stays 200.
func HTTPStatus(s domain.Status) int {
	switch s {
	case domain.StatusOK, domain.StatusZeroResults:
		return fiber.StatusOK
	case domain.StatusInvalidRequest:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusBadGateway
	}
}

// queryValues returns every occurrence of key, or nil when it is absent.
func queryValues(args *fasthttp.Args, key string) []string {
	raw := args.PeekMulti(key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = string(v)
	}
	return out
}
