// internal/model/delivery_log.go
package model

import (
	"encoding/json"
	"time"
)

const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

// DeliveryLog is one recipient's terminal outcome within a campaign.
// Rows are write-once: they are accumulated in memory during the dispatch
// loop and batch-inserted after the last recipient resolves.
type DeliveryLog struct {
	ID               string          `db:"id" json:"id"`
	CampaignID       string          `db:"campaign_id" json:"campaign_id"`
	LeadID           string          `db:"lead_id" json:"lead_id"`
	RecipientContact string          `db:"recipient_contact" json:"recipient_contact"` // email address or phone number
	RecipientName    string          `db:"recipient_name" json:"recipient_name"`
	SenderName       string          `db:"sender_name" json:"sender_name,omitempty"`
	Status           string          `db:"status" json:"status"`
	ErrorMessage     string          `db:"error_message" json:"error_message,omitempty"`
	ProviderResponse json.RawMessage `db:"provider_response" json:"provider_response,omitempty"`
	SentAt           *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}
