package handler

import (
	"strconv"

	"aidapay/internal/config"
	"aidapay/internal/gateway"
	"aidapay/internal/repository"
)

// normalizeWebhook flattens a provider callback payload into a
// TransactionUpdate. Providers disagree on field names, so each field is
// resolved from the known aliases in preference order. A payload without a
// status field yields an empty Status, which the store treats as
// "no transition".
func normalizeWebhook(gatewayName string, cfg config.GatewayConfig, payload map[string]interface{}) repository.TransactionUpdate {
	upd := repository.TransactionUpdate{
		Gateway:     gatewayName,
		Reference:   firstString(payload, "transaction_id", "order_id", "reference", "client_reference"),
		ExternalID:  firstString(payload, "external_id", "payment_id", "session_id", "id"),
		Amount:      floatValue(payload, "amount"),
		Currency:    firstString(payload, "currency"),
		PhoneNumber: firstString(payload, "phone_number", "customer_phone"),
		RawResponse: payload,
	}

	if status := firstString(payload, "status"); status != "" {
		upd.Status = gateway.NormalizeStatus(status)
	}
	if upd.Currency == "" {
		upd.Currency = cfg.Currency
	}
	if meta, ok := payload["metadata"].(map[string]interface{}); ok {
		upd.Metadata = meta
	}
	return upd
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func floatValue(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}
