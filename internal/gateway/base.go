package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"aidapay/internal/config"
	"aidapay/internal/pkg/httpclient"
	"aidapay/internal/pkg/utils"
)

// base carries the plumbing shared by every adapter: configuration, the
// provider-scoped HTTP client, phone normalization, reference generation
// and result construction.
type base struct {
	name   string
	cfg    config.GatewayConfig
	client *httpclient.Client
	logger *zap.Logger

	// webhookSecret is the shared fallback signing key; adapters prefer
	// their own APISecret when configured.
	webhookSecret string
}

func newBase(name string, cfg config.GatewayConfig, webhookSecret string, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		name:          name,
		cfg:           cfg,
		client:        httpclient.New(name),
		logger:        logger.With(zap.String("gateway", name)),
		webhookSecret: webhookSecret,
	}
}

// signingSecret picks the adapter's own secret, falling back to the shared
// webhook secret.
func (b *base) signingSecret() string {
	if b.cfg.APISecret != "" {
		return b.cfg.APISecret
	}
	return b.webhookSecret
}

func (b *base) Name() string {
	return b.name
}

// endpoint joins the configured base URL with an API path.
func (b *base) endpoint(path string) string {
	return strings.TrimRight(b.cfg.APIURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// formatPhoneNumber normalizes a subscriber number to international form:
// strip everything but digits and '+', then prepend the configured country
// code (dropping a leading trunk zero) when no '+' prefix is present.
func (b *base) formatPhoneNumber(phoneNumber string) string {
	var sb strings.Builder
	for _, r := range phoneNumber {
		if (r >= '0' && r <= '9') || r == '+' {
			sb.WriteRune(r)
		}
	}
	cleaned := sb.String()

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	countryCode := b.cfg.CountryCode
	if countryCode == "" {
		countryCode = "221"
	}
	return "+" + strings.TrimLeft(countryCode, "+") + strings.TrimLeft(cleaned, "0")
}

func (b *base) newReference() string {
	return utils.NewPaymentReference(b.name)
}

func (b *base) success(status Status, reference, externalID string, amount float64, message string, raw map[string]interface{}) *PaymentResult {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return &PaymentResult{
		Success:    true,
		Status:     status,
		Reference:  reference,
		ExternalID: externalID,
		Amount:     amount,
		Currency:   b.cfg.Currency,
		Message:    message,
		Raw:        raw,
	}
}

func (b *base) failure(message string, raw map[string]interface{}) *PaymentResult {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return &PaymentResult{
		Success: false,
		Status:  StatusFailed,
		Message: message,
		Raw:     raw,
	}
}

// failureFromResponse wraps a non-2xx provider response, keeping the error
// detail for audit without letting it escape as a fault.
func (b *base) failureFromResponse(message string, resp *httpclient.Response) *PaymentResult {
	raw := decodeJSON(resp.Body)
	raw["http_status"] = resp.StatusCode
	return b.failure(message, raw)
}

// decodeJSON parses a provider response body, tolerating non-JSON bodies.
func decodeJSON(body []byte) map[string]interface{} {
	out := map[string]interface{}{}
	if len(body) == 0 {
		return out
	}
	if err := json.Unmarshal(body, &out); err != nil {
		out["raw_body"] = string(body)
	}
	return out
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func floatField(m map[string]interface{}, key string) float64 {
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

// hmacHex computes the hex-encoded HMAC-SHA256 of data.
func hmacHex(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// secureCompare is a constant-time string comparison. Timing safety here
// guards against forged payment confirmations.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// canonicalQuery renders a payload as a key-sorted query string, the form
// some providers sign instead of the raw body. Scalars are encoded
// directly; nested values fall back to their JSON encoding.
func canonicalQuery(payload map[string]interface{}) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := payload[k]
		if v == nil {
			continue
		}
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(scalarString(v)))
	}
	return strings.Join(parts, "&")
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		encoded, _ := json.Marshal(t)
		return string(encoded)
	}
}
