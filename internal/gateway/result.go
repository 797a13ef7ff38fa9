package gateway

// PaymentResult is the outcome of any gateway operation. It is built once
// and never mutated; a false Success always carries StatusFailed.
type PaymentResult struct {
	Success    bool                   `json:"success"`
	Status     Status                 `json:"status"`
	Reference  string                 `json:"transaction_id,omitempty"`
	ExternalID string                 `json:"external_id,omitempty"`
	Amount     float64                `json:"amount,omitempty"`
	Currency   string                 `json:"currency,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Raw        map[string]interface{} `json:"data,omitempty"`
}

// IsPending reports whether the operation left the payment awaiting
// confirmation.
func (r *PaymentResult) IsPending() bool {
	return r.Status == StatusPending
}

// IsFailed reports whether the operation resolved to a failure.
func (r *PaymentResult) IsFailed() bool {
	return r.Status == StatusFailed
}
