package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aidapay/internal/cache"
)

const (
	rateLimitMax    = 10
	rateLimitWindow = 10 * time.Minute
)

// AdmissionConfig configures the payment admission checks.
type AdmissionConfig struct {
	Store  cache.Store
	Logger *zap.Logger
	// MaxAmount is the largest accepted transaction amount; zero disables
	// the ceiling.
	MaxAmount float64
	// DuplicateWindow is how long an identical (user, phone, amount)
	// attempt is suppressed after one is admitted.
	DuplicateWindow time.Duration
}

type admissionPayload struct {
	PhoneNumber string  `json:"phone_number"`
	Amount      float64 `json:"amount"`
	UserID      string  `json:"user_id"`
}

// SecureTransaction guards payment initiation: amount bounds, per-IP rate
// limiting and duplicate suppression over the shared cache. Checks run in
// that order so a rejected request burns as little shared state as
// possible. Cache failures admit the request; availability wins over
// strictness for these advisory checks.
func SecureTransaction(cfg AdmissionConfig) echo.MiddlewareFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			var payload admissionPayload
			if err := json.Unmarshal(body, &payload); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
			}

			if payload.Amount <= 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid transaction amount"})
			}
			if cfg.MaxAmount > 0 && payload.Amount > cfg.MaxAmount {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Transaction amount exceeds maximum allowed"})
			}

			ctx := c.Request().Context()

			rateKey := "aida:rate:" + c.RealIP()
			count, err := cfg.Store.Incr(ctx, rateKey, rateLimitWindow)
			if err != nil {
				logger.Warn("rate limit check unavailable", zap.Error(err))
			} else if count > rateLimitMax {
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "Too many payment attempts. Please try again later.",
				})
			}

			if cfg.DuplicateWindow > 0 {
				dupKey := duplicateKey(payload.UserID, payload.PhoneNumber, payload.Amount)
				won, err := cfg.Store.SetNX(ctx, dupKey, "1", cfg.DuplicateWindow)
				if err != nil {
					logger.Warn("duplicate check unavailable", zap.Error(err))
				} else if !won {
					return c.JSON(http.StatusTooManyRequests, echo.Map{
						"error": "Duplicate transaction detected. Please wait before retrying.",
					})
				}
			}

			return next(c)
		}
	}
}

// duplicateKey fingerprints an attempt by who is paying, to whom, and how
// much. Anonymous requests share the "guest" bucket.
func duplicateKey(userID, phone string, amount float64) string {
	if userID == "" {
		userID = "guest"
	}
	return fmt.Sprintf("aida:txn:%s:%s:%.2f", userID, phone, amount)
}
