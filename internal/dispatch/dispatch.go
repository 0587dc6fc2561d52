// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leadvault/leadvault-backend/internal/events"
	"github.com/leadvault/leadvault-backend/internal/model"
	"github.com/leadvault/leadvault-backend/internal/template"
)

// Recipient is one target of a bulk send. Extra carries any additional lead
// fields used for templating (company, title, ...).
type Recipient struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Extra     map[string]string
}

func (r Recipient) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

func (r Recipient) TemplateFields() template.Fields {
	fields := template.Fields{}
	for k, v := range r.Extra {
		fields[k] = v
	}
	fields["first_name"] = r.FirstName
	fields["last_name"] = r.LastName
	fields["email"] = r.Email
	fields["phone"] = r.Phone
	return fields
}

// RecipientFailure and RecipientSuccess are the per-recipient rows returned
// to the caller for operator display.
type RecipientFailure struct {
	LeadID           string          `json:"lead_id"`
	Contact          string          `json:"contact"`
	Name             string          `json:"name"`
	SenderName       string          `json:"sender_name,omitempty"`
	Error            string          `json:"error"`
	ProviderResponse json.RawMessage `json:"provider_response,omitempty"`
}

type RecipientSuccess struct {
	LeadID  string    `json:"lead_id"`
	Contact string    `json:"contact"`
	Name    string    `json:"name"`
	SentAt  time.Time `json:"sent_at"`
}

// Summary is the dispatch result returned to the caller.
type Summary struct {
	Success    bool               `json:"success"`
	CampaignID string             `json:"campaignId"`
	SenderName string             `json:"senderName,omitempty"`
	Sent       int                `json:"sent"`
	Failed     int                `json:"failed"`
	Total      int                `json:"total"`
	Message    string             `json:"message"`
	Failures   []RecipientFailure `json:"failures"`
	Successes  []RecipientSuccess `json:"successes"`
}

// CampaignStore and DeliveryLogStore are the slices of the record store the
// dispatchers touch.
type CampaignStore interface {
	Create(ctx context.Context, c *model.Campaign) error
	Finalize(ctx context.Context, id string, sentCount, failedCount int, status string) error
}

type DeliveryLogStore interface {
	InsertBatch(ctx context.Context, entries []model.DeliveryLog) error
}

// emailFinalStatus: any failure makes the whole campaign failed.
func emailFinalStatus(sentCount, failedCount int) string {
	if failedCount == 0 {
		return model.CampaignStatusSent
	}
	return model.CampaignStatusFailed
}

// smsFinalStatus: any success makes the whole campaign sent. The asymmetry
// with email is deliberate and kept per channel.
func smsFinalStatus(sentCount, failedCount int) string {
	if failedCount == 0 || sentCount > 0 {
		return model.CampaignStatusSent
	}
	return model.CampaignStatusFailed
}

func summaryMessage(unit string, sentCount, failedCount int) string {
	plural := ""
	if sentCount != 1 {
		plural = "s"
	}
	msg := fmt.Sprintf("%d %s%s sent successfully", sentCount, unit, plural)
	if failedCount > 0 {
		msg += fmt.Sprintf(", %d failed", failedCount)
	}
	return msg
}

// buildSummary folds the log entries, in recipient input order, into the
// caller-facing result.
func buildSummary(campaignID, senderName, unit string, entries []model.DeliveryLog, sentCount, failedCount, total int) *Summary {
	s := &Summary{
		Success:    true,
		CampaignID: campaignID,
		SenderName: senderName,
		Sent:       sentCount,
		Failed:     failedCount,
		Total:      total,
		Message:    summaryMessage(unit, sentCount, failedCount),
		Failures:   []RecipientFailure{},
		Successes:  []RecipientSuccess{},
	}
	for _, e := range entries {
		if e.Status == model.DeliveryStatusSent {
			sentAt := time.Time{}
			if e.SentAt != nil {
				sentAt = *e.SentAt
			}
			s.Successes = append(s.Successes, RecipientSuccess{
				LeadID:  e.LeadID,
				Contact: e.RecipientContact,
				Name:    e.RecipientName,
				SentAt:  sentAt,
			})
		} else {
			s.Failures = append(s.Failures, RecipientFailure{
				LeadID:           e.LeadID,
				Contact:          e.RecipientContact,
				Name:             e.RecipientName,
				SenderName:       e.SenderName,
				Error:            e.ErrorMessage,
				ProviderResponse: e.ProviderResponse,
			})
		}
	}
	return s
}

// persistOutcome runs the write-behind steps after every recipient has a
// terminal outcome: one batch log insert, one campaign finalize, one event.
// Failures here are operator-visible only. The messages already went out and
// cannot be undone, so the caller still gets the true sent/failed split.
func persistOutcome(
	ctx context.Context,
	log *zap.Logger,
	campaigns CampaignStore,
	logs DeliveryLogStore,
	publisher events.Publisher,
	c *model.Campaign,
	entries []model.DeliveryLog,
	sentCount, failedCount int,
	status string,
) {
	if err := logs.InsertBatch(ctx, entries); err != nil {
		log.Error("failed to insert delivery logs",
			zap.String("campaign_id", c.ID),
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
	}
	if err := campaigns.Finalize(ctx, c.ID, sentCount, failedCount, status); err != nil {
		log.Error("failed to finalize campaign",
			zap.String("campaign_id", c.ID),
			zap.Error(err),
		)
	}
	if publisher != nil {
		evt := events.CampaignCompleted{
			CampaignID:  c.ID,
			UserID:      c.UserID,
			Channel:     c.Channel,
			Status:      status,
			Total:       c.TotalRecipients,
			Sent:        sentCount,
			Failed:      failedCount,
			CompletedAt: time.Now().UTC(),
		}
		if err := publisher.Publish(ctx, evt); err != nil {
			log.Warn("failed to publish campaign event",
				zap.String("campaign_id", c.ID),
				zap.Error(err),
			)
		}
	}
}
