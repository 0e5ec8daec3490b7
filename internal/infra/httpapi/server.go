package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// NewServer builds the fiber app with the alumni routes registered.
func NewServer(handler *AlumniHandler, logger *logrus.Entry) *fiber.App {
	fapp := fiber.New(fiber.Config{
		AppName:               "yearbook-alumni",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})
	fapp.Use(recover.New())
	fapp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Accept, Authorization, " + UserIDHeader,
	}))

	handler.SetupRoutes(fapp)
	return fapp
}

// errorHandler renders errors returned by handlers in the {"error": msg} shape.
func errorHandler(logger *logrus.Entry) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ResponseError(ctx, fe.Code, fe.Message)
		}
		logger.WithError(err).WithField("path", ctx.Path()).Error("Unhandled request error")
		return ResponseError(ctx, fiber.StatusInternalServerError, "internal server error")
	}
}
