package gateway

import "strings"

// Status is the canonical lifecycle state shared by every gateway.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Terminal reports whether the status can no longer change through the
// normal pending lifecycle.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled || s == StatusRefunded
}

func normalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeStatus maps a provider status token onto the canonical
// vocabulary. Unrecognized tokens fail closed.
func NormalizeStatus(raw string) Status {
	switch normalizeToken(raw) {
	case "success", "successful", "completed", "complete", "paid", "validated":
		return StatusSuccess
	case "pending", "processing", "initiated", "open":
		return StatusPending
	case "failed", "declined", "error", "expired":
		return StatusFailed
	case "cancelled", "canceled":
		return StatusCancelled
	case "refunded":
		return StatusRefunded
	default:
		return StatusFailed
	}
}
