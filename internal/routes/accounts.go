package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/digitalbank/backoffice/internal/account"
	"github.com/digitalbank/backoffice/internal/statement"
)

// RegisterAccountRoutes wires account lifecycle endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Get("/accounts", h.List)
	r.Post("/accounts", h.Create)
	r.Put("/accounts/:number/owner", h.UpdateOwner)
	r.Delete("/accounts/:number", h.Delete)
}

// RegisterStatementRoutes wires the password-protected read endpoints.
func RegisterStatementRoutes(r fiber.Router, h *statement.Handler, limiter fiber.Handler) {
	r.Get("/accounts/balance", limiter, h.Balance)
	r.Get("/accounts/statement", limiter, h.Statement)
}
