package models

import (
	"encoding/json"
	"time"

	"aidapay/internal/gateway"
)

// Transaction is the durable record of one payment attempt. A row is
// unique on (reference, gateway) and that pair never changes once
// created; status only moves forward out of pending.
type Transaction struct {
	ID          uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Reference   string         `gorm:"column:reference;size:191;uniqueIndex;index:idx_reference_gateway,priority:1" json:"transaction_id"`
	ExternalID  string         `gorm:"column:external_id;size:191;index" json:"external_id,omitempty"`
	Gateway     string         `gorm:"column:gateway;size:64;index;index:idx_reference_gateway,priority:2;index:idx_gateway_status,priority:1" json:"gateway"`
	Status      gateway.Status `gorm:"column:status;type:varchar(20);default:pending;index;index:idx_gateway_status,priority:2" json:"status"`
	PhoneNumber string         `gorm:"column:phone_number;size:32" json:"phone_number,omitempty"`
	Amount      float64        `gorm:"column:amount;type:decimal(15,2)" json:"amount"`
	Currency    string         `gorm:"column:currency;size:3;default:XOF" json:"currency"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Metadata    string         `gorm:"column:metadata;type:json" json:"-"`
	RawResponse string         `gorm:"column:raw_response;type:json" json:"-"`
	IPAddress   string         `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
	UserAgent   string         `gorm:"column:user_agent;size:512" json:"user_agent,omitempty"`
	UserID      string         `gorm:"column:user_id;size:64;index" json:"user_id,omitempty"`
	CompletedAt *time.Time     `gorm:"column:completed_at;index" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "aida_transactions"
}

// IsSuccessful reports whether the payment completed.
func (t *Transaction) IsSuccessful() bool {
	return t.Status == gateway.StatusSuccess
}

// IsPending reports whether the payment is still awaiting confirmation.
func (t *Transaction) IsPending() bool {
	return t.Status == gateway.StatusPending
}

// SetMetadata stores the metadata map as JSON.
func (t *Transaction) SetMetadata(metadata map[string]interface{}) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	encoded, _ := json.Marshal(metadata)
	t.Metadata = string(encoded)
}

// MetadataMap decodes the stored metadata JSON.
func (t *Transaction) MetadataMap() map[string]interface{} {
	out := map[string]interface{}{}
	if t.Metadata != "" {
		_ = json.Unmarshal([]byte(t.Metadata), &out)
	}
	return out
}

// SetRawResponse stores the last-seen provider payload verbatim.
func (t *Transaction) SetRawResponse(raw map[string]interface{}) {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	encoded, _ := json.Marshal(raw)
	t.RawResponse = string(encoded)
}

// RawResponseMap decodes the stored provider payload.
func (t *Transaction) RawResponseMap() map[string]interface{} {
	out := map[string]interface{}{}
	if t.RawResponse != "" {
		_ = json.Unmarshal([]byte(t.RawResponse), &out)
	}
	return out
}
