package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger logs one line per request once the response status is known.
func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
			"ip", c.IP(),
		}
		if id, ok := c.Locals("requestid").(string); ok {
			attrs = append(attrs, "request_id", id)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.ErrorContext(c.UserContext(), "Request", append(attrs, "error", err)...)
		case status >= fiber.StatusBadRequest:
			logger.WarnContext(c.UserContext(), "Request", attrs...)
		default:
			logger.InfoContext(c.UserContext(), "Request", attrs...)
		}

		return err
	}
}
