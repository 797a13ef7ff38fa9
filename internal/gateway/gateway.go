package gateway

import "context"

// Gateway is the capability set every mobile-money provider adapter
// implements. Pay, CheckStatus and Refund never return a Go error:
// transport and provider failures are absorbed into a failed
// PaymentResult so callers handle exactly one shape.
type Gateway interface {
	// Name returns the gateway identifier, e.g. "wave".
	Name() string

	// Pay initiates a payment to the given phone number. On success the
	// result is pending with provider-specific checkout details in Raw.
	Pay(ctx context.Context, phoneNumber string, amount float64, description string, metadata map[string]interface{}) *PaymentResult

	// CheckStatus reads the provider's view of a transaction and maps it
	// onto the canonical status vocabulary.
	CheckStatus(ctx context.Context, externalID string) *PaymentResult

	// Refund reverses a transaction. A nil amount requests a full refund.
	Refund(ctx context.Context, externalID string, amount *float64) *PaymentResult

	// VerifyWebhook recomputes the provider's HMAC over the webhook
	// payload and compares it against the supplied signature in constant
	// time.
	VerifyWebhook(payload []byte, signature string) bool
}
