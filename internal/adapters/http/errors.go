package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, build_in_progress, not_found, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errDomain maps wrapped domain sentinels to their HTTP representation.
func errDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrBuildInProgress):
		return newError(c, 409, "build_in_progress", err.Error())
	case errors.Is(err, domain.ErrViaLimit):
		return newError(c, 422, "via_limit", err.Error())
	case errors.Is(err, domain.ErrNoRoute):
		return newError(c, 422, "no_route", err.Error())
	case errors.Is(err, domain.ErrGeocodeNotFound):
		return newError(c, 404, "geocode_not_found", err.Error())
	case errors.Is(err, domain.ErrLayerNoData):
		return newError(c, 404, "layer_no_data", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return newError(c, 404, "not_found", err.Error())
	case errors.Is(err, domain.ErrShareDecode):
		return newError(c, 400, "bad_share_token", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return newError(c, 400, "bad_request", err.Error())
	case errors.Is(err, domain.ErrProvider), errors.Is(err, domain.ErrLayerLoad):
		return newError(c, 502, "bad_gateway", err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
