package handler

import (
	"testing"

	"aidapay/internal/config"
	"aidapay/internal/gateway"
)

func TestNormalizeWebhookFieldAliases(t *testing.T) {
	cfg := config.GatewayConfig{Currency: "XOF"}

	// Orange Money style payload.
	upd := normalizeWebhook("orange_money", cfg, map[string]interface{}{
		"order_id":  "ORANGE_MONEY_1",
		"status":    "SUCCESS",
		"amount":    float64(1500),
		"reference": "+221771234567",
	})
	if upd.Reference != "ORANGE_MONEY_1" {
		t.Errorf("reference = %q", upd.Reference)
	}
	if upd.Status != gateway.StatusSuccess {
		t.Errorf("status = %q", upd.Status)
	}
	if upd.Currency != "XOF" {
		t.Errorf("currency fallback missing: %q", upd.Currency)
	}

	// E-money style payload.
	upd = normalizeWebhook("emoney", cfg, map[string]interface{}{
		"reference":      "EMONEY_2",
		"payment_id":     "em-55",
		"status":         "FAILED",
		"customer_phone": "+221771234567",
		"currency":       "GNF",
	})
	if upd.Reference != "EMONEY_2" || upd.ExternalID != "em-55" {
		t.Errorf("ids: %q, %q", upd.Reference, upd.ExternalID)
	}
	if upd.Status != gateway.StatusFailed {
		t.Errorf("status = %q", upd.Status)
	}
	if upd.Currency != "GNF" {
		t.Errorf("explicit currency overridden: %q", upd.Currency)
	}
	if upd.PhoneNumber != "+221771234567" {
		t.Errorf("phone = %q", upd.PhoneNumber)
	}
}

func TestNormalizeWebhookPrefersTransactionID(t *testing.T) {
	upd := normalizeWebhook("wave", config.GatewayConfig{}, map[string]interface{}{
		"transaction_id": "WAVE_1",
		"reference":      "ignored",
		"id":             "cos-1",
	})
	if upd.Reference != "WAVE_1" {
		t.Errorf("reference = %q", upd.Reference)
	}
	if upd.ExternalID != "cos-1" {
		t.Errorf("external id = %q", upd.ExternalID)
	}
}

func TestNormalizeWebhookWithoutStatus(t *testing.T) {
	upd := normalizeWebhook("wave", config.GatewayConfig{}, map[string]interface{}{
		"transaction_id": "WAVE_1",
	})
	if upd.Status != "" {
		t.Errorf("status = %q, payloads without a status must not transition", upd.Status)
	}
}

func TestNormalizeWebhookNumericReference(t *testing.T) {
	upd := normalizeWebhook("wave", config.GatewayConfig{}, map[string]interface{}{
		"transaction_id": float64(42),
	})
	if upd.Reference != "42" {
		t.Errorf("reference = %q", upd.Reference)
	}
}

func TestNormalizeWebhookMetadata(t *testing.T) {
	upd := normalizeWebhook("wave", config.GatewayConfig{}, map[string]interface{}{
		"transaction_id": "WAVE_1",
		"metadata":       map[string]interface{}{"order": "o-1"},
	})
	if upd.Metadata["order"] != "o-1" {
		t.Errorf("metadata = %v", upd.Metadata)
	}
}
