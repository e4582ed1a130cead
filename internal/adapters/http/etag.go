package http

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware tags cacheable 200 GET responses with a weak validator and
// answers 304 when If-None-Match already names it. Responses marked
// no-store (errors, ZERO_RESULTS) are never tagged.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if !etaggable(c) {
			return nil
		}

		tag := weakETag(c.Response().Body())
		c.Set(fiber.HeaderETag, tag)

		if matchesIfNoneMatch(c.Get(fiber.HeaderIfNoneMatch), tag) {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}

func etaggable(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
		return false
	}
	if strings.Contains(c.GetRespHeader(fiber.HeaderCacheControl), "no-store") {
		return false
	}
	return len(c.Response().Body()) > 0
}

func weakETag(body []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return `W/"` + strconv.FormatUint(h.Sum64(), 16) + `"`
}

// matchesIfNoneMatch uses weak comparison over a comma-separated list.
func matchesIfNoneMatch(header, tag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
