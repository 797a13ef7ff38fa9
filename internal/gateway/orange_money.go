package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"aidapay/internal/cache"
	"aidapay/internal/config"
)

// OrangeMoneyGateway integrates the Orange Money web-payment API. API
// access is authenticated with an OAuth bearer token obtained through a
// client-credential exchange and cached in the shared store.
type OrangeMoneyGateway struct {
	base
	tokens  *tokenSource
	baseURL string // application base URL for return/cancel/notify links
	prefix  string // webhook route prefix
}

func NewOrangeMoneyGateway(cfg config.GatewayConfig, webhookSecret, appURL, webhookPrefix string, store cache.Store, logger *zap.Logger) *OrangeMoneyGateway {
	g := &OrangeMoneyGateway{
		base:    newBase(config.GatewayOrangeMoney, cfg, webhookSecret, logger),
		baseURL: strings.TrimRight(appURL, "/"),
		prefix:  strings.Trim(webhookPrefix, "/"),
	}
	g.tokens = &tokenSource{
		store: store,
		key:   "aida:gateway:orange_money:token",
		fetch: g.fetchAccessToken,
	}
	return g
}

func (g *OrangeMoneyGateway) fetchAccessToken(ctx context.Context) (string, int64, error) {
	credentials := base64.StdEncoding.EncodeToString(
		[]byte(g.cfg.APIUsername + ":" + g.cfg.APIPassword))

	resp, err := g.client.Post(ctx, g.endpoint("/oauth/v3/token"),
		map[string]interface{}{"grant_type": "client_credentials"},
		map[string]string{"Authorization": "Basic " + credentials})
	if err != nil {
		return "", 0, err
	}
	if !resp.IsSuccess() {
		return "", 0, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	body := decodeJSON(resp.Body)
	token := stringField(body, "access_token")
	if token == "" {
		return "", 0, errors.New("failed to obtain access token")
	}
	expiresIn := int64(floatField(body, "expires_in"))
	if expiresIn == 0 {
		expiresIn = 3600
	}
	return token, expiresIn, nil
}

func (g *OrangeMoneyGateway) bearerHeaders(ctx context.Context) (map[string]string, error) {
	token, err := g.tokens.token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

func (g *OrangeMoneyGateway) Pay(ctx context.Context, phoneNumber string, amount float64, description string, metadata map[string]interface{}) *PaymentResult {
	phoneNumber = g.formatPhoneNumber(phoneNumber)
	reference := g.newReference()

	payload := map[string]interface{}{
		"merchant_key": g.cfg.MerchantKey,
		"currency":     g.cfg.Currency,
		"order_id":     reference,
		"amount":       amount,
		"return_url":   metadataString(metadata, "return_url", g.baseURL+"/payment/return"),
		"cancel_url":   metadataString(metadata, "cancel_url", g.baseURL+"/payment/cancel"),
		"notif_url":    g.baseURL + "/" + g.prefix + "/orange-money",
		"lang":         metadataString(metadata, "lang", "fr"),
		"reference":    phoneNumber,
	}

	headers, err := g.bearerHeaders(ctx)
	if err != nil {
		g.logger.Error("token retrieval failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}

	resp, err := g.client.Post(ctx, g.endpoint("/webpayment/v3/pay"), payload, headers)
	if err != nil {
		g.logger.Error("payment initiation failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Failed to initiate payment", resp)
	}

	body := decodeJSON(resp.Body)
	paymentURL := stringField(body, "payment_url")
	if paymentURL == "" {
		return g.failure("Failed to initiate payment", body)
	}

	return g.success(StatusPending, reference, stringField(body, "payment_token"), amount,
		"Payment initiated successfully. Customer should complete payment.",
		map[string]interface{}{
			"payment_url":   paymentURL,
			"payment_token": body["payment_token"],
		})
}

func (g *OrangeMoneyGateway) CheckStatus(ctx context.Context, externalID string) *PaymentResult {
	headers, err := g.bearerHeaders(ctx)
	if err != nil {
		g.logger.Error("token retrieval failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}

	resp, err := g.client.Get(ctx, g.endpoint("/webpayment/v3/transaction/"+externalID), headers)
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
	return g.success(status, externalID, stringField(body, "payment_token"), floatField(body, "amount"),
		message, body)
}

func (g *OrangeMoneyGateway) Refund(ctx context.Context, externalID string, amount *float64) *PaymentResult {
	payload := map[string]interface{}{
		"order_id": externalID,
	}
	if amount != nil {
		payload["amount"] = *amount
	}

	headers, err := g.bearerHeaders(ctx)
	if err != nil {
		g.logger.Error("token retrieval failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}

	resp, err := g.client.Post(ctx, g.endpoint("/webpayment/v3/refund"), payload, headers)
	if err != nil {
		g.logger.Error("refund failed", zap.Error(err))
		return g.failure("Gateway request failed: "+err.Error(), nil)
	}
	if !resp.IsSuccess() {
		return g.failureFromResponse("Refund failed", resp)
	}

	body := decodeJSON(resp.Body)
	if stringField(body, "status") != "SUCCESS" {
		return g.failure("Refund failed", body)
	}

	var refunded float64
	if amount != nil {
		refunded = *amount
	}
	return g.success(StatusRefunded, externalID, stringField(body, "refund_id"), refunded,
		"Refund processed successfully", body)
}

// VerifyWebhook checks the HMAC-SHA256 signature over the raw JSON body,
// signed with the shared webhook secret.
func (g *OrangeMoneyGateway) VerifyWebhook(payload []byte, signature string) bool {
	return secureCompare(hmacHex(g.webhookSecret, payload), signature)
}

func (g *OrangeMoneyGateway) mapStatus(status string) Status {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS", "SUCCESSFUL", "COMPLETED":
		return StatusSuccess
	case "PENDING", "INITIATED":
		return StatusPending
	case "FAILED", "EXPIRED":
		return StatusFailed
	case "CANCELLED":
		return StatusCancelled
	default:
		return StatusFailed
	}
}

func metadataString(metadata map[string]interface{}, key, fallback string) string {
	if metadata != nil {
		if v, ok := metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}
