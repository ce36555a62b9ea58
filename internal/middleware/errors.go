package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/digitalbank/backoffice/internal/ledger"
)

// StatusFor maps an error returned by a handler to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, ledger.ErrInvalidInput), errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every handler error as {"message": ...}. Storage and
// unexpected failures are logged and reported without internal detail.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		message := err.Error()
		var fe *fiber.Error
		if status == http.StatusInternalServerError && !errors.As(err, &fe) {
			logger.ErrorContext(c.UserContext(), "request failed",
				slog.String("path", c.Path()),
				slog.String("request_id", requestIDOf(c)),
				slog.Any("error", err),
			)
			message = "internal error"
			if errors.Is(err, ledger.ErrStorage) {
				message = ledger.ErrStorage.Error()
			}
		}
		return c.Status(status).JSON(fiber.Map{"message": message})
	}
}
