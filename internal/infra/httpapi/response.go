package httpapi

import (
	"errors"

	"yearbook_alumni/internal/domain/alumni"

	"github.com/gofiber/fiber/v2"
)

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func ResponseSuccess(ctx *fiber.Ctx, status int, data any) error {
	return ctx.Status(status).JSON(fiber.Map{"data": data})
}

// statusFor maps an engine error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, alumni.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, alumni.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, alumni.ErrDuplicateRequest), errors.Is(err, alumni.ErrDuplicateSchoolBadge):
		return fiber.StatusConflict
	case errors.Is(err, alumni.ErrBadgeLimitExceeded), errors.Is(err, alumni.ErrBlocked):
		return fiber.StatusForbidden
	case errors.Is(err, alumni.ErrRateLimited):
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// responseEngineError writes err with a user-displayable message. Internal
// faults never leak their detail.
func responseEngineError(ctx *fiber.Ctx, err error) error {
	return ResponseError(ctx, statusFor(err), alumni.UserMessage(err))
}
