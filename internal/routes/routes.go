package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/digitalbank/backoffice/internal/account"
	"github.com/digitalbank/backoffice/internal/config"
	"github.com/digitalbank/backoffice/internal/ledger"
	"github.com/digitalbank/backoffice/internal/middleware"
	"github.com/digitalbank/backoffice/internal/notification"
	"github.com/digitalbank/backoffice/internal/statement"
	"github.com/digitalbank/backoffice/internal/transaction"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	Store  ledger.Store
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. The app must be
// created with middleware.ErrorHandler so domain errors map to statuses.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil {
		return fmt.Errorf("account store is required")
	}
	// Replays of financial operations must be caught outside of dev.
	if !isDev(d.Cfg.AppEnv) && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	accountHandler := account.NewHandler(account.NewService(d.Store, d.Cfg.BcryptCost), d.Cfg.BankPassword)
	transactionHandler := transaction.NewHandler(transaction.NewService(d.Store, notifier))
	statementHandler := statement.NewHandler(statement.NewService(d.Store))

	passwordLimiter := middleware.PasswordAttemptLimit(d.Cache, d.Cfg.PasswordAttemptsPerMinute)
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterStatementRoutes(api, statementHandler, passwordLimiter)
	RegisterAccountRoutes(api, accountHandler)
	RegisterTransactionRoutes(api, transactionHandler, idempotency, passwordLimiter)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
