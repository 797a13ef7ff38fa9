package gateway

import (
	"context"

	"go.uber.org/zap"

	"aidapay/internal/config"
)

// WaveGateway integrates the Wave checkout-session API.
type WaveGateway struct {
	base
}

func NewWaveGateway(cfg config.GatewayConfig, webhookSecret string, logger *zap.Logger) *WaveGateway {
	return &WaveGateway{base: newBase(config.GatewayWave, cfg, webhookSecret, logger)}
}

func (g *WaveGateway) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + g.cfg.APIKey}
}

func (g *WaveGateway) Pay(ctx context.Context, phoneNumber string, amount float64, description string, metadata map[string]interface{}) *PaymentResult {
	_ = g.formatPhoneNumber(phoneNumber) // Wave identifies the payer at checkout time
	reference := g.newReference()

	if description == "" {
		description = "Payment via Wave"
	}

	payload := map[string]interface{}{
		"amount":           amount,
		"currency":         g.cfg.Currency,
		"client_reference": reference,
		"description":      description,
		"metadata":         metadata,
	}

	resp, err := g.client.Post(ctx, g.endpoint("/v1/checkout/sessions"), payload, g.authHeaders())
	if err != nil {
		g.logger.Error("payment initiation failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Failed to create payment session", resp)
	}

	body := decodeJSON(resp.Body)
	sessionID := stringField(body, "id")
	launchURL := stringField(body, "wave_launch_url")
	if sessionID == "" || launchURL == "" {
		return g.failure("Failed to create payment session", body)
	}

	return g.success(StatusPending, reference, sessionID, amount,
		"Payment session created successfully",
		map[string]interface{}{
			"checkout_url": launchURL,
			"session_id":   sessionID,
			"qr_code":      body["qr_code"],
		})
}

func (g *WaveGateway) CheckStatus(ctx context.Context, externalID string) *PaymentResult {
	resp, err := g.client.Get(ctx, g.endpoint("/v1/checkout/sessions/"+externalID), g.authHeaders())
	if err != nil {
		g.logger.Error("status check failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Status check failed", resp)
	}

	body := decodeJSON(resp.Body)
	status := g.mapStatus(stringField(body, "status"))

	return g.success(status, externalID, stringField(body, "id"), floatField(body, "amount"),
		"Transaction status retrieved", body)
}

func (g *WaveGateway) Refund(ctx context.Context, externalID string, amount *float64) *PaymentResult {
	payload := map[string]interface{}{
		"checkout_session_id": externalID,
	}
	if amount != nil {
		payload["amount"] = *amount
	}

	resp, err := g.client.Post(ctx, g.endpoint("/v1/refunds"), payload, g.authHeaders())
	if err != nil {
		g.logger.Error("refund failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Refund failed", resp)
	}

	body := decodeJSON(resp.Body)
	refundID := stringField(body, "id")
	if refundID == "" {
		return g.failure("Refund failed", body)
	}

	refunded := floatField(body, "amount")
	if refunded == 0 && amount != nil {
		refunded = *amount
	}
	return g.success(StatusRefunded, externalID, refundID, refunded,
		"Refund processed successfully", body)
}

// VerifyWebhook checks the HMAC-SHA256 signature Wave computes over the
// raw JSON body.
func (g *WaveGateway) VerifyWebhook(payload []byte, signature string) bool {
	return secureCompare(hmacHex(g.signingSecret(), payload), signature)
}

func (g *WaveGateway) mapStatus(status string) Status {
	switch normalizeToken(status) {
	case "complete", "completed", "success":
		return StatusSuccess
	case "pending", "open":
		return StatusPending
	case "failed", "expired":
		return StatusFailed
	case "cancelled":
		return StatusCancelled
	default:
		return StatusFailed
	}
}
