package router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"aidapay/internal/cache"
	"aidapay/internal/config"
	"aidapay/internal/gateway"
	"aidapay/internal/handler"
	"aidapay/internal/middleware"
	"aidapay/internal/notify"
	"aidapay/internal/repository"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	cfg *config.Config,
	registry *gateway.Registry,
	store repository.TransactionStore,
	cacheStore cache.Store,
	notifier *notify.Notifier,
	logger *zap.Logger,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Handlers
	paymentHandler := handler.NewPaymentHandler(registry, store, notifier, logger)
	webhookHandler := handler.NewWebhookHandler(registry, store, notifier, logger)

	// Payment API
	apiGroup := e.Group("/api")
	apiGroup.POST("/payments", paymentHandler.Pay, middleware.SecureTransaction(middleware.AdmissionConfig{
		Store:           cacheStore,
		Logger:          logger,
		MaxAmount:       cfg.Transaction.MaxAmount,
		DuplicateWindow: cfg.Transaction.Timeout,
	}))
	apiGroup.GET("/payments/:reference", paymentHandler.Get)
	apiGroup.GET("/payments/:reference/status", paymentHandler.Status)
	apiGroup.POST("/payments/:reference/refund", paymentHandler.Refund)
	apiGroup.GET("/gateways", paymentHandler.Gateways)

	// Provider webhooks, one route per gateway under the configured prefix.
	prefix := "/" + strings.Trim(cfg.Webhook.RoutePrefix, "/")
	webhookGroup := e.Group(prefix)
	webhookHandler.Register(webhookGroup)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
