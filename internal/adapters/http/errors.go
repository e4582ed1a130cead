package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// APIError is the envelope for faults outside the geocode contract
// (unknown routes, bad GraphQL bodies, rate limiting).
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errTooManyRequests(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusTooManyRequests, "rate_limited", msg)
}

// ErrorHandler renders errors returned by handlers and middleware as APIError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	switch code {
	case fiber.StatusNotFound:
		return newError(c, code, "not_found", err.Error())
	case fiber.StatusRequestTimeout:
		return newError(c, code, "timeout", "request timed out")
	case fiber.StatusMethodNotAllowed:
		return newError(c, code, "method_not_allowed", err.Error())
	}
	if code < 500 {
		return newError(c, code, "bad_request", err.Error())
	}
	return newError(c, code, "internal_error", "internal server error")
}
