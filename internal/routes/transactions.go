package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/digitalbank/backoffice/internal/transaction"
)

// RegisterTransactionRoutes wires deposit, withdrawal and transfer endpoints.
// idempotency may be nil when no Redis is configured.
func RegisterTransactionRoutes(r fiber.Router, h *transaction.Handler, idempotency, limiter fiber.Handler) {
	group := r.Group("/transactions")
	if idempotency != nil {
		group.Use(idempotency)
	}
	group.Post("/deposit", h.Deposit)
	group.Post("/withdraw", limiter, h.Withdraw)
	group.Post("/transfer", limiter, h.Transfer)
}
