package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"aidapay/internal/config"
)

// EmoneyGateway integrates the E-money merchant payments API.
type EmoneyGateway struct {
	base
	baseURL string
	prefix  string
}

func NewEmoneyGateway(cfg config.GatewayConfig, webhookSecret, appURL, webhookPrefix string, logger *zap.Logger) *EmoneyGateway {
	return &EmoneyGateway{
		base:    newBase(config.GatewayEmoney, cfg, webhookSecret, logger),
		baseURL: strings.TrimRight(appURL, "/"),
		prefix:  strings.Trim(webhookPrefix, "/"),
	}
}

func (g *EmoneyGateway) authHeaders() map[string]string {
	return map[string]string{
		"Authorization":   "Bearer " + g.cfg.APIKey,
		"X-Merchant-Code": g.cfg.MerchantCode,
	}
}

func (g *EmoneyGateway) Pay(ctx context.Context, phoneNumber string, amount float64, description string, metadata map[string]interface{}) *PaymentResult {
	phoneNumber = g.formatPhoneNumber(phoneNumber)
	reference := g.newReference()

	if description == "" {
		description = "Payment via E-money"
	}
	encodedMetadata, _ := json.Marshal(metadata)

	payload := map[string]interface{}{
		"merchant_code":    g.cfg.MerchantCode,
		"amount":           amount,
		"currency":         g.cfg.Currency,
		"reference":        reference,
		"customer_phone":   phoneNumber,
		"description":      description,
		"notification_url": g.baseURL + "/" + g.prefix + "/emoney",
		"return_url":       metadataString(metadata, "return_url", g.baseURL+"/payment/return"),
		"metadata":         string(encodedMetadata),
	}

	resp, err := g.client.Post(ctx, g.endpoint("/api/payment/initiate"), payload, g.authHeaders())
	if err != nil {
		g.logger.Error("payment initiation failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Failed to initiate payment", resp)
	}

	body := decodeJSON(resp.Body)
	paymentID := stringField(body, "payment_id")
	rawStatus, hasStatus := body["status"]
	if paymentID == "" || !hasStatus {
		return g.failure("Failed to initiate payment", body)
	}

	message := stringField(body, "message")
	if message == "" {
		message = "Payment initiated successfully"
	}
	status := g.mapStatus(scalarString(rawStatus))

	return g.success(status, reference, paymentID, amount, message,
		map[string]interface{}{
			"payment_id":  paymentID,
			"payment_url": body["payment_url"],
			"qr_code":     body["qr_code"],
		})
}

func (g *EmoneyGateway) CheckStatus(ctx context.Context, externalID string) *PaymentResult {
	resp, err := g.client.Get(ctx, g.endpoint("/api/payment/status/"+externalID), g.authHeaders())
	if err != nil {
		g.logger.Error("status check failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Status check failed", resp)
	}

	body := decodeJSON(resp.Body)
	status := g.mapStatus(stringField(body, "status"))

	message := stringField(body, "message")
	if message == "" {
		message = "Transaction status retrieved"
	}
	return g.success(status, externalID, stringField(body, "payment_id"), floatField(body, "amount"),
		message, body)
}

func (g *EmoneyGateway) Refund(ctx context.Context, externalID string, amount *float64) *PaymentResult {
	payload := map[string]interface{}{
		"merchant_code": g.cfg.MerchantCode,
		"payment_id":    externalID,
		"refund_reason": "Customer refund request",
	}
	if amount != nil {
		payload["amount"] = *amount
	}

	resp, err := g.client.Post(ctx, g.endpoint("/api/payment/refund"), payload, g.authHeaders())
	if err != nil {
		g.logger.Error("refund failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Refund failed", resp)
	}

	body := decodeJSON(resp.Body)
	refundID := stringField(body, "refund_id")
	if refundID == "" || stringField(body, "status") != "success" {
		return g.failure("Refund failed", body)
	}

	refunded := floatField(body, "refund_amount")
	if refunded == 0 && amount != nil {
		refunded = *amount
	}
	return g.success(StatusRefunded, externalID, refundID, refunded,
		"Refund processed successfully", body)
}

// VerifyWebhook checks the HMAC-SHA256 signature over the raw JSON body.
func (g *EmoneyGateway) VerifyWebhook(payload []byte, signature string) bool {
	return secureCompare(hmacHex(g.cfg.APISecret, payload), signature)
}

func (g *EmoneyGateway) mapStatus(status string) Status {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS", "COMPLETED", "VALIDATED":
		return StatusSuccess
	case "PENDING", "PROCESSING", "INITIATED":
		return StatusPending
	case "FAILED", "DECLINED", "ERROR", "EXPIRED":
		return StatusFailed
	case "CANCELLED", "CANCELED":
		return StatusCancelled
	case "REFUNDED":
		return StatusRefunded
	default:
		return StatusFailed
	}
}
