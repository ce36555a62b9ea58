package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/digitalbank/backoffice/internal/ledger"
)

const passwordAttemptsPrefix = "backoffice:pwd:"

// PasswordAttemptLimit caps failed password checks per account, client IP and
// minute using Redis counters. Only requests the handler rejects with
// ledger.ErrUnauthorized are counted, so a caller with the right password is
// never throttled. The account is read from the account_number query parameter
// or from the account_number / source_account_number body field. Without
// Redis, or on cache errors, requests pass through.
func PasswordAttemptLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		ctx := c.UserContext()
		key := passwordAttemptsPrefix + attemptSubject(c) + ":ip:" + c.IP()

		failures, err := cache.Get(ctx, key).Int64()
		if err == nil && failures >= int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many failed password attempts, try again later")
		}

		err = c.Next()
		if errors.Is(err, ledger.ErrUnauthorized) {
			if cnt, incrErr := cache.Incr(ctx, key).Result(); incrErr == nil && cnt == 1 {
				cache.Expire(ctx, key, time.Minute)
			}
		}
		return err
	}
}

func attemptSubject(c *fiber.Ctx) string {
	if n := strings.TrimSpace(c.Query("account_number")); n != "" {
		return "account:" + n
	}
	var req struct {
		AccountNumber       json.Number `json:"account_number"`
		SourceAccountNumber json.Number `json:"source_account_number"`
	}
	if len(c.Body()) > 0 && json.Unmarshal(c.Body(), &req) == nil {
		if n := strings.TrimSpace(req.SourceAccountNumber.String()); n != "" {
			return "account:" + n
		}
		if n := strings.TrimSpace(req.AccountNumber.String()); n != "" {
			return "account:" + n
		}
	}
	return "anonymous"
}
