// internal/dispatch/sms_dispatcher.go
package dispatch

import (
	"context"
	"encoding/json"
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

// SMSGateway is the slice of the gateway client the dispatcher uses.
type SMSGateway interface {
	Send(ctx context.Context, number, senderName, message string) (*provider.SMSResponse, error)
	SendBroadcast(ctx context.Context, numbers []string, senderName, message string) (*provider.SMSResponse, error)
}

type SMSRequest struct {
	Recipients []Recipient
	Message    string
	SenderName string
	UserID     string
}

type SMSDispatcher struct {
	Campaigns CampaignStore
	Logs      DeliveryLogStore
	Gateway   SMSGateway
	Events    events.Publisher

	// FallbackSenderID is the pre-provisioned numeric sender id used for the
	// single invalid-sender retry.
	FallbackSenderID  string
	DefaultSenderName string
	PhonePrefix       string

	Log *zap.Logger
}

// Dispatch sends the message to every recipient. A placeholder-free message
// goes out as one broadcast gateway call; a personalized one goes out
// per-recipient, sequentially. Either way every recipient ends with exactly
// one delivery log entry, in input order.
func (d *SMSDispatcher) Dispatch(ctx context.Context, req SMSRequest) (*Summary, error) {
	if d.Gateway == nil {
		return nil, appErrors.NewConfiguration("SMS service", "SMS_USERNAME", "SMS_API_KEY")
	}
	if len(req.Recipients) == 0 {
		return nil, appErrors.NewValidation("no leads provided")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, appErrors.NewValidation("message is required")
	}

	sender := strings.TrimSpace(req.SenderName)
	if sender == "" {
		sender = d.DefaultSenderName
	}

	broadcast := !template.HasPlaceholders(req.Message)
	if broadcast && !anyPhone(req.Recipients) {
		return nil, appErrors.NewValidation("selected leads do not have phone numbers")
	}

	now := time.Now().UTC()
	campaign := &model.Campaign{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Name:            fmt.Sprintf("SMS Campaign - %s", now.Format("2006-01-02 15:04")),
		Channel:         model.ChannelSMS,
		MessageTemplate: req.Message,
		SenderName:      sender,
		Status:          model.CampaignStatusPending,
		TotalRecipients: len(req.Recipients),
		CreatedAt:       now,
		SentAt:          &now,
	}
	if err := d.Campaigns.Create(ctx, campaign); err != nil {
		return nil, appErrors.NewPersistence("create campaign", err)
	}

	var entries []model.DeliveryLog
	if broadcast {
		entries = d.sendBroadcast(ctx, campaign, req, sender)
	} else {
		entries = make([]model.DeliveryLog, 0, len(req.Recipients))
		for _, rcpt := range req.Recipients {
			entries = append(entries, d.sendOne(ctx, campaign, rcpt, sender, req.Message))
		}
	}

	sentCount, failedCount := 0, 0
	for _, e := range entries {
		if e.Status == model.DeliveryStatusSent {
			sentCount++
		} else {
			failedCount++
		}
	}

	status := smsFinalStatus(sentCount, failedCount)
	persistOutcome(ctx, d.Log, d.Campaigns, d.Logs, d.Events, campaign, entries, sentCount, failedCount, status)

	return buildSummary(campaign.ID, sender, "SMS", entries, sentCount, failedCount, len(req.Recipients)), nil
}

// sendBroadcast issues exactly one gateway call (plus at most one
// invalid-sender retry) for the whole recipient list, then fans the single
// outcome out to one log entry per recipient, preserving input order.
// Recipients without a phone number still get their failed entry; they are
// just absent from the gateway call.
func (d *SMSDispatcher) sendBroadcast(ctx context.Context, campaign *model.Campaign, req SMSRequest, sender string) []model.DeliveryLog {
	numbers := make([]string, 0, len(req.Recipients))
	for _, rcpt := range req.Recipients {
		if rcpt.Phone != "" {
			numbers = append(numbers, provider.NormalizePhone(rcpt.Phone, d.PhonePrefix))
		}
	}

	d.Log.Info("sending broadcast sms",
		zap.String("campaign_id", campaign.ID),
		zap.Int("recipients", len(numbers)),
		zap.String("sender", sender),
	)

	resp, err := d.Gateway.SendBroadcast(ctx, numbers, sender, req.Message)
	usedSender := sender
	if err == nil && d.shouldRetrySender(resp, sender) {
		d.Log.Info("invalid sender id, retrying broadcast with fallback sender",
			zap.String("campaign_id", campaign.ID),
			zap.String("sender", sender),
			zap.String("fallback", d.FallbackSenderID),
		)
		resp, err = d.Gateway.SendBroadcast(ctx, numbers, d.FallbackSenderID, req.Message)
		usedSender = d.FallbackSenderID
	}

	entries := make([]model.DeliveryLog, 0, len(req.Recipients))
	for _, rcpt := range req.Recipients {
		entry := d.newEntry(campaign, rcpt, usedSender)
		switch {
		case rcpt.Phone == "":
			entry.Status = model.DeliveryStatusFailed
			entry.ErrorMessage = "No phone number provided"
			entry.SenderName = sender
		case err != nil:
			entry.Status = model.DeliveryStatusFailed
			entry.ErrorMessage = err.Error()
			entry.ProviderResponse = exceptionPayload(err, provider.NormalizePhone(rcpt.Phone, d.PhonePrefix))
		case resp.BroadcastOK():
			sentAt := time.Now().UTC()
			entry.Status = model.DeliveryStatusSent
			entry.SentAt = &sentAt
			entry.ProviderResponse = resp.AuditPayload(provider.NormalizePhone(rcpt.Phone, d.PhonePrefix))
		default:
			entry.Status = model.DeliveryStatusFailed
			entry.ErrorMessage = resp.FailureMessage()
			entry.ProviderResponse = resp.AuditPayload(provider.NormalizePhone(rcpt.Phone, d.PhonePrefix))
		}
		entries = append(entries, entry)
	}
	return entries
}

// sendOne resolves a single recipient to a terminal outcome, including the
// one allowed invalid-sender retry, before its log entry is produced.
func (d *SMSDispatcher) sendOne(ctx context.Context, campaign *model.Campaign, rcpt Recipient, sender, message string) model.DeliveryLog {
	entry := d.newEntry(campaign, rcpt, sender)

	if rcpt.Phone == "" {
		entry.Status = model.DeliveryStatusFailed
		entry.ErrorMessage = "No phone number provided"
		return entry
	}

	personalized := template.Render(message, rcpt.TemplateFields())
	normalized := provider.NormalizePhone(rcpt.Phone, d.PhonePrefix)

	resp, err := d.Gateway.Send(ctx, normalized, sender, personalized)
	if err == nil && d.shouldRetrySender(resp, sender) {
		d.Log.Info("invalid sender id, retrying with fallback sender",
			zap.String("campaign_id", campaign.ID),
			zap.String("lead_id", rcpt.ID),
			zap.String("sender", sender),
			zap.String("fallback", d.FallbackSenderID),
		)
		resp, err = d.Gateway.Send(ctx, normalized, d.FallbackSenderID, personalized)
		entry.SenderName = d.FallbackSenderID
	}

	switch {
	case err != nil:
		d.Log.Error("sms send failed",
			zap.String("campaign_id", campaign.ID),
			zap.String("lead_id", rcpt.ID),
			zap.String("phone", rcpt.Phone),
			zap.Error(err),
		)
		entry.Status = model.DeliveryStatusFailed
		entry.ErrorMessage = err.Error()
		entry.ProviderResponse = exceptionPayload(err, normalized)
	case resp.SingleOK():
		sentAt := time.Now().UTC()
		entry.Status = model.DeliveryStatusSent
		entry.SentAt = &sentAt
		entry.ProviderResponse = successPayload(resp, normalized)
	default:
		entry.Status = model.DeliveryStatusFailed
		entry.ErrorMessage = resp.FailureMessage()
		entry.ProviderResponse = resp.AuditPayload(normalized)
	}
	return entry
}

func (d *SMSDispatcher) shouldRetrySender(resp *provider.SMSResponse, sender string) bool {
	return resp.InvalidSender() && d.FallbackSenderID != "" && sender != d.FallbackSenderID
}

func (d *SMSDispatcher) newEntry(campaign *model.Campaign, rcpt Recipient, sender string) model.DeliveryLog {
	return model.DeliveryLog{
		ID:               uuid.NewString(),
		CampaignID:       campaign.ID,
		LeadID:           rcpt.ID,
		RecipientContact: rcpt.Phone,
		RecipientName:    rcpt.DisplayName(),
		SenderName:       sender,
		CreatedAt:        time.Now().UTC(),
	}
}

func anyPhone(recipients []Recipient) bool {
	for _, r := range recipients {
		if r.Phone != "" {
			return true
		}
	}
	return false
}

func exceptionPayload(err error, attemptedNumber string) json.RawMessage {
	out, _ := json.Marshal(map[string]string{
		"exception":       err.Error(),
		"attemptedNumber": attemptedNumber,
	})
	return out
}

func successPayload(resp *provider.SMSResponse, attemptedNumber string) json.RawMessage {
	out, _ := json.Marshal(map[string]string{
		"trxnId":          resp.TrxnID,
		"statusCode":      resp.StatusCode,
		"responseResult":  resp.ResponseResult,
		"attemptedNumber": attemptedNumber,
	})
	return out
}
