// internal/dispatch/email_dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/leadvault/leadvault-backend/internal/errors"
	"github.com/leadvault/leadvault-backend/internal/events"
	"github.com/leadvault/leadvault-backend/internal/model"
	"github.com/leadvault/leadvault-backend/internal/provider"
	"github.com/leadvault/leadvault-backend/internal/template"
)

// EmailRequest is a bulk email dispatch: one campaign, one message template,
// one sender identity, N recipients.
type EmailRequest struct {
	Recipients  []Recipient
	Subject     string
	Message     string
	SenderEmail string
	SenderName  string
	UserID      string
}

type EmailDispatcher struct {
	Campaigns CampaignStore
	Logs      DeliveryLogStore
	Sender    provider.EmailSender
	Events    events.Publisher

	// Defaults applied when the request carries no sender identity.
	DefaultSenderEmail string
	DefaultSenderName  string

	Log *zap.Logger
}

// Dispatch sends one personalized email per recipient, sequentially, and
// returns the aggregate result. Recipient-level failures never abort the
// batch; validation failures abort before any side effect.
func (d *EmailDispatcher) Dispatch(ctx context.Context, req EmailRequest) (*Summary, error) {
	if len(req.Recipients) == 0 {
		return nil, appErrors.NewValidation("no leads provided")
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, appErrors.NewValidation("subject and message are required")
	}

	senderEmail := strings.TrimSpace(req.SenderEmail)
	if senderEmail == "" {
		senderEmail = d.DefaultSenderEmail
	}
	senderName := strings.TrimSpace(req.SenderName)
	if senderName == "" {
		senderName = d.DefaultSenderName
	}

	now := time.Now().UTC()
	campaign := &model.Campaign{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Name:            fmt.Sprintf("Email Campaign - %s", now.Format("2006-01-02 15:04")),
		Channel:         model.ChannelEmail,
		Subject:         req.Subject,
		MessageTemplate: req.Message,
		SenderName:      senderName,
		SenderEmail:     senderEmail,
		Status:          model.CampaignStatusPending,
		TotalRecipients: len(req.Recipients),
		CreatedAt:       now,
		SentAt:          &now,
	}
	if err := d.Campaigns.Create(ctx, campaign); err != nil {
		return nil, appErrors.NewPersistence("create campaign", err)
	}

	sentCount, failedCount := 0, 0
	entries := make([]model.DeliveryLog, 0, len(req.Recipients))
	for _, rcpt := range req.Recipients {
		entry := d.sendOne(ctx, campaign, rcpt, senderName, senderEmail, req)
		if entry.Status == model.DeliveryStatusSent {
			sentCount++
		} else {
			failedCount++
		}
		entries = append(entries, entry)
	}

	status := emailFinalStatus(sentCount, failedCount)
	persistOutcome(ctx, d.Log, d.Campaigns, d.Logs, d.Events, campaign, entries, sentCount, failedCount, status)

	return buildSummary(campaign.ID, senderName, "email", entries, sentCount, failedCount, len(req.Recipients)), nil
}

func (d *EmailDispatcher) sendOne(ctx context.Context, campaign *model.Campaign, rcpt Recipient, senderName, senderEmail string, req EmailRequest) model.DeliveryLog {
	entry := model.DeliveryLog{
		ID:               uuid.NewString(),
		CampaignID:       campaign.ID,
		LeadID:           rcpt.ID,
		RecipientContact: rcpt.Email,
		RecipientName:    rcpt.DisplayName(),
		SenderName:       senderName,
		CreatedAt:        time.Now().UTC(),
	}

	if rcpt.Email == "" {
		entry.Status = model.DeliveryStatusFailed
		entry.ErrorMessage = "No email address provided"
		return entry
	}

	personalized := template.Render(req.Message, rcpt.TemplateFields())
	html := "<p>" + strings.ReplaceAll(personalized, "\n", "<br>") + "</p>"

	raw, err := d.Sender.Send(ctx, provider.EmailMessage{
		FromName:  senderName,
		FromEmail: senderEmail,
		To:        rcpt.Email,
		Subject:   req.Subject,
		HTML:      html,
	})
	if err != nil {
		d.Log.Error("email send failed",
			zap.String("campaign_id", campaign.ID),
			zap.String("lead_id", rcpt.ID),
			zap.String("to", rcpt.Email),
			zap.Error(err),
		)
		entry.Status = model.DeliveryStatusFailed
		entry.ErrorMessage = err.Error()
		entry.ProviderResponse = raw
		return entry
	}

	if ok, _ := provider.ClassifyEmail(raw); !ok {
		d.Log.Error("email provider returned unexpected response",
			zap.String("campaign_id", campaign.ID),
			zap.String("lead_id", rcpt.ID),
			zap.String("to", rcpt.Email),
			zap.ByteString("response", raw),
		)
		entry.Status = model.DeliveryStatusFailed
		entry.ErrorMessage = "Unexpected response from email provider"
		entry.ProviderResponse = raw
		return entry
	}

	sentAt := time.Now().UTC()
	entry.Status = model.DeliveryStatusSent
	entry.SentAt = &sentAt
	return entry
}
