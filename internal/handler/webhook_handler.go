package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aidapay/internal/config"
	"aidapay/internal/gateway"
	"aidapay/internal/notify"
	"aidapay/internal/repository"
)

// webhookRoutes maps URL slugs to gateway names.
var webhookRoutes = map[string]string{
	"orange-money": config.GatewayOrangeMoney,
	"wave":         config.GatewayWave,
	"free-money":   config.GatewayFreeMoney,
	"emoney":       config.GatewayEmoney,
}

// WebhookHandler ingests provider callbacks. Delivery is at-least-once and
// unordered, so every request is verified, normalized and applied through
// the idempotent store upsert; only an applied transition produces a
// notification.
type WebhookHandler struct {
	registry *gateway.Registry
	store    repository.TransactionStore
	notifier *notify.Notifier
	logger   *zap.Logger
}

func NewWebhookHandler(registry *gateway.Registry, store repository.TransactionStore, notifier *notify.Notifier, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		registry: registry,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Register mounts one POST route per provider under the group.
func (h *WebhookHandler) Register(g *echo.Group) {
	for slug, name := range webhookRoutes {
		g.POST("/"+slug, h.handle(name))
	}
}

func (h *WebhookHandler) handle(gatewayName string) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := h.logger.With(zap.String("gateway", gatewayName))

		gw, err := h.registry.Select(gatewayName)
		if err != nil {
			logger.Warn("webhook for unavailable gateway", zap.Error(err))
			return c.JSON(http.StatusNotFound, echo.Map{
				"success": false,
				"error":   "Gateway not available",
			})
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "Invalid request body",
			})
		}

		signature := c.Request().Header.Get("X-Signature")
		if signature == "" {
			signature = c.Request().Header.Get("Signature")
		}
		if !gw.VerifyWebhook(body, signature) {
			logger.Warn("webhook signature verification failed",
				zap.String("ip", c.RealIP()))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid signature"})
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "Invalid payload",
			})
		}

		cfg, _ := h.registry.Config(gatewayName)
		upd := normalizeWebhook(gatewayName, cfg, payload)
		if upd.Reference == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "Missing transaction reference",
			})
		}

		tx, changed, err := h.store.ApplyUpdate(c.Request().Context(), upd)
		if err != nil {
			logger.Error("webhook processing failed",
				zap.String("reference", upd.Reference), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"success": false,
				"error":   "Webhook processing failed",
			})
		}

		if changed {
			h.notifier.Dispatch(c.Request().Context(), tx)
		}
		logger.Info("webhook processed",
			zap.String("reference", tx.Reference),
			zap.String("status", string(tx.Status)),
			zap.Bool("transitioned", changed))

		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "Webhook processed successfully",
		})
	}
}
