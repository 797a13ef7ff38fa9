package gateway

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"aidapay/internal/config"
)

// FreeMoneyGateway integrates the Free Money payments API. Requests and
// webhooks are signed with an HMAC over a canonicalized, key-sorted
// query-string encoding of the payload.
type FreeMoneyGateway struct {
	base
	baseURL string
	prefix  string
}

func NewFreeMoneyGateway(cfg config.GatewayConfig, webhookSecret, appURL, webhookPrefix string, logger *zap.Logger) *FreeMoneyGateway {
	return &FreeMoneyGateway{
		base:    newBase(config.GatewayFreeMoney, cfg, webhookSecret, logger),
		baseURL: strings.TrimRight(appURL, "/"),
		prefix:  strings.Trim(webhookPrefix, "/"),
	}
}

// sign canonicalizes the payload and computes the request signature.
func (g *FreeMoneyGateway) sign(payload map[string]interface{}) string {
	return hmacHex(g.cfg.APISecret, []byte(canonicalQuery(payload)))
}

func (g *FreeMoneyGateway) signedHeaders(payload map[string]interface{}) map[string]string {
	return map[string]string{
		"X-API-Key":   g.cfg.APIKey,
		"X-Signature": g.sign(payload),
	}
}

func (g *FreeMoneyGateway) Pay(ctx context.Context, phoneNumber string, amount float64, description string, metadata map[string]interface{}) *PaymentResult {
	phoneNumber = g.formatPhoneNumber(phoneNumber)
	reference := g.newReference()

	if description == "" {
		description = "Payment via Free Money"
	}

	payload := map[string]interface{}{
		"merchant_id":     g.cfg.MerchantID,
		"amount":          amount,
		"currency":        g.cfg.Currency,
		"transaction_ref": reference,
		"phone_number":    phoneNumber,
		"description":     description,
		"callback_url":    g.baseURL + "/" + g.prefix + "/free-money",
		"metadata":        metadata,
	}

	resp, err := g.client.Post(ctx, g.endpoint("/api/v1/payments/initiate"), payload, g.signedHeaders(payload))
	if err != nil {
		g.logger.Error("payment initiation failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Failed to initiate payment", resp)
	}

	body := decodeJSON(resp.Body)
	transactionID := stringField(body, "transaction_id")
	if transactionID == "" || stringField(body, "status") != "pending" {
		return g.failure("Failed to initiate payment", body)
	}

	return g.success(StatusPending, reference, transactionID, amount,
		"Payment initiated successfully",
		map[string]interface{}{
			"transaction_id": transactionID,
			"ussd_code":      body["ussd_code"],
		})
}

func (g *FreeMoneyGateway) CheckStatus(ctx context.Context, externalID string) *PaymentResult {
	resp, err := g.client.Get(ctx, g.endpoint("/api/v1/payments/"+externalID),
		map[string]string{"X-API-Key": g.cfg.APIKey})
	if err != nil {
		g.logger.Error("status check failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Status check failed", resp)
	}

	body := decodeJSON(resp.Body)
	status := g.mapStatus(stringField(body, "status"))

	return g.success(status, externalID, stringField(body, "transaction_id"), floatField(body, "amount"),
		"Transaction status retrieved", body)
}

func (g *FreeMoneyGateway) Refund(ctx context.Context, externalID string, amount *float64) *PaymentResult {
	payload := map[string]interface{}{
		"transaction_id": externalID,
		"merchant_id":    g.cfg.MerchantID,
	}
	if amount != nil {
		payload["amount"] = *amount
	}

	resp, err := g.client.Post(ctx, g.endpoint("/api/v1/payments/refund"), payload, g.signedHeaders(payload))
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

	refunded := floatField(body, "amount")
	if refunded == 0 && amount != nil {
		refunded = *amount
	}
	return g.success(StatusRefunded, externalID, refundID, refunded,
		"Refund processed successfully", body)
}

// VerifyWebhook recomputes the canonical-query HMAC over the decoded
// payload and compares in constant time.
func (g *FreeMoneyGateway) VerifyWebhook(payload []byte, signature string) bool {
	decoded := decodeJSON(payload)
	return secureCompare(g.sign(decoded), signature)
}

func (g *FreeMoneyGateway) mapStatus(status string) Status {
	switch normalizeToken(status) {
	case "success", "completed", "paid":
		return StatusSuccess
	case "pending", "processing":
		return StatusPending
	case "failed", "declined", "expired":
		return StatusFailed
	case "cancelled", "canceled":
		return StatusCancelled
	default:
		return StatusFailed
	}
}
