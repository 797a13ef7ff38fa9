package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aidapay/internal/gateway"
	"aidapay/internal/models"
	"aidapay/internal/notify"
	"aidapay/internal/repository"
)

// PaymentHandler exposes the payment API: initiation, lookup, live status
// refresh and refunds.
type PaymentHandler struct {
	registry *gateway.Registry
	store    repository.TransactionStore
	notifier *notify.Notifier
	logger   *zap.Logger
}

func NewPaymentHandler(registry *gateway.Registry, store repository.TransactionStore, notifier *notify.Notifier, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		registry: registry,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

type payRequest struct {
	Gateway     string                 `json:"gateway"`
	PhoneNumber string                 `json:"phone_number"`
	Amount      float64                `json:"amount"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata"`
	UserID      string                 `json:"user_id"`
}

type refundRequest struct {
	Amount *float64 `json:"amount"`
}

// Pay initiates a payment through the requested (or default) gateway and
// records the attempt when the provider handed back a reference.
func (h *PaymentHandler) Pay(c echo.Context) error {
	var req payRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if req.PhoneNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone_number is required"})
	}

	gw, err := h.registry.Select(req.Gateway)
	if err != nil {
		return gatewayError(c, err)
	}

	result := gw.Pay(c.Request().Context(), req.PhoneNumber, req.Amount, req.Description, req.Metadata)

	if result.Reference != "" {
		tx := &models.Transaction{
			Reference:   result.Reference,
			ExternalID:  result.ExternalID,
			Gateway:     gw.Name(),
			Status:      result.Status,
			PhoneNumber: req.PhoneNumber,
			Amount:      req.Amount,
			Currency:    result.Currency,
			Description: req.Description,
			IPAddress:   c.RealIP(),
			UserAgent:   c.Request().UserAgent(),
			UserID:      req.UserID,
		}
		tx.SetMetadata(req.Metadata)
		tx.SetRawResponse(result.Raw)
		if err := h.store.Create(c.Request().Context(), tx); err != nil {
			h.logger.Error("failed to record transaction",
				zap.String("reference", result.Reference), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to record transaction"})
		}
		h.notifier.Dispatch(c.Request().Context(), tx)
	}

	if !result.Success {
		h.logger.Warn("payment initiation rejected",
			zap.String("gateway", gw.Name()),
			zap.String("message", result.Message))
	}
	// A provider rejection is a payment-level failure, not an HTTP one;
	// the result carries the success flag.
	return c.JSON(http.StatusOK, result)
}

// Get returns the stored transaction.
func (h *PaymentHandler) Get(c echo.Context) error {
	tx, err := h.store.FindByReference(c.Request().Context(), c.Param("reference"))
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Transaction not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Lookup failed"})
	}
	return c.JSON(http.StatusOK, tx)
}

// Status refreshes a pending transaction against the provider before
// returning it. Terminal transactions are served from the store; a failed
// provider call leaves the stored state untouched.
func (h *PaymentHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	tx, err := h.store.FindByReference(ctx, c.Param("reference"))
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Transaction not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Lookup failed"})
	}

	if !tx.IsPending() || tx.ExternalID == "" {
		return c.JSON(http.StatusOK, tx)
	}

	gw, err := h.registry.Select(tx.Gateway)
	if err != nil {
		return c.JSON(http.StatusOK, tx)
	}

	result := gw.CheckStatus(ctx, tx.ExternalID)
	if !result.Success {
		h.logger.Warn("status check failed, serving stored state",
			zap.String("reference", tx.Reference),
			zap.String("message", result.Message))
		return c.JSON(http.StatusOK, tx)
	}

	updated, changed, err := h.store.ApplyUpdate(ctx, repository.TransactionUpdate{
		Reference:   tx.Reference,
		Gateway:     tx.Gateway,
		ExternalID:  result.ExternalID,
		Status:      result.Status,
		Amount:      result.Amount,
		Currency:    result.Currency,
		RawResponse: result.Raw,
	})
	if err != nil {
		h.logger.Error("failed to apply status result",
			zap.String("reference", tx.Reference), zap.Error(err))
		return c.JSON(http.StatusOK, tx)
	}
	if changed {
		h.notifier.Dispatch(ctx, updated)
	}
	return c.JSON(http.StatusOK, updated)
}

// Refund sends a full or partial refund for a successful transaction and
// applies the resulting state.
func (h *PaymentHandler) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	var req refundRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	tx, err := h.store.FindByReference(ctx, c.Param("reference"))
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Transaction not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Lookup failed"})
	}
	if !tx.IsSuccessful() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Only successful transactions can be refunded"})
	}

	gw, err := h.registry.Select(tx.Gateway)
	if err != nil {
		return gatewayError(c, err)
	}

	result := gw.Refund(ctx, tx.ExternalID, req.Amount)
	if !result.Success {
		return c.JSON(http.StatusBadRequest, result)
	}

	updated, changed, err := h.store.ApplyUpdate(ctx, repository.TransactionUpdate{
		Reference:   tx.Reference,
		Gateway:     tx.Gateway,
		Status:      gateway.StatusRefunded,
		RawResponse: result.Raw,
	})
	if err != nil {
		h.logger.Error("failed to record refund",
			zap.String("reference", tx.Reference), zap.Error(err))
		return c.JSON(http.StatusOK, result)
	}
	if changed {
		h.logger.Info("transaction refunded",
			zap.String("reference", updated.Reference),
			zap.Float64("amount", result.Amount))
	}
	return c.JSON(http.StatusOK, result)
}

// Gateways lists the configured gateway surface.
func (h *PaymentHandler) Gateways(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"default":   h.registry.Default(),
		"supported": h.registry.Supported(),
		"enabled":   h.registry.Enabled(),
	})
}

func gatewayError(c echo.Context, err error) error {
	var notFound *gateway.ErrGatewayNotFound
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": notFound.Error()})
	}
	var notEnabled *gateway.ErrGatewayNotEnabled
	if errors.As(err, &notEnabled) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": notEnabled.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Gateway selection failed"})
}
