package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/oguarni/status-point/domain/apperr"
)

// writeError maps an error kind to its HTTP status. Persistence and
// unclassified failures are logged and reported without detail.
func writeError(c *fiber.Ctx, err error) error {
	var status int
	var code string

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status, code = fiber.StatusNotFound, "not_found"
	case apperr.KindAuthorization:
		status, code = fiber.StatusForbidden, "forbidden"
	case apperr.KindAuthentication:
		status, code = fiber.StatusUnauthorized, "unauthorized"
	case apperr.KindValidation:
		status, code = fiber.StatusBadRequest, "bad_request"
	case apperr.KindConflict:
		status, code = fiber.StatusConflict, "conflict"
	default:
		log.Printf("[api] Internal error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}

	return c.Status(status).JSON(ErrorResponse{
		Error:   code,
		Message: apperr.Message(err),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// customErrorHandler handles errors returned from Fiber itself, such as unknown routes.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
