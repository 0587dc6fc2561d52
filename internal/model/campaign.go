// internal/model/campaign.go
package model

import "time"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

const (
	CampaignStatusPending = "pending"
	CampaignStatusSent    = "sent"
	CampaignStatusFailed  = "failed"
)

// Campaign is one dispatch invocation. Counts and final status are the only
// mutation after insert, applied exactly once when every recipient has a
// terminal outcome.
type Campaign struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	Name            string     `db:"name" json:"name"`
	Channel         string     `db:"channel" json:"channel"`
	Subject         string     `db:"subject" json:"subject,omitempty"` // email only
	MessageTemplate string     `db:"message_template" json:"message_template"`
	SenderName      string     `db:"sender_name" json:"sender_name,omitempty"`
	SenderEmail     string     `db:"sender_email" json:"sender_email,omitempty"`
	Status          string     `db:"status" json:"status"`
	TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
	SentCount       int        `db:"sent_count" json:"sent_count"`
	FailedCount     int        `db:"failed_count" json:"failed_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
