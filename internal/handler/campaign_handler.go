// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-backend/internal/dispatch"
	"github.com/leadvault/leadvault-backend/internal/model"
	"github.com/leadvault/leadvault-backend/internal/provider"
	"github.com/leadvault/leadvault-backend/internal/repository"
)

type EmailDispatchService interface {
	Dispatch(ctx context.Context, req dispatch.EmailRequest) (*dispatch.Summary, error)
}

type SMSDispatchService interface {
	Dispatch(ctx context.Context, req dispatch.SMSRequest) (*dispatch.Summary, error)
}

type SMSBalanceClient interface {
	Balance(ctx context.Context) (*provider.SMSResponse, error)
}

// CampaignHandler holds the dependencies for campaign-related HTTP handlers.
type CampaignHandler struct {
	Email     EmailDispatchService
	SMS       SMSDispatchService
	Balance   SMSBalanceClient // nil when the gateway is unconfigured
	Campaigns repository.CampaignRepositoryInterface
	Logs      repository.DeliveryLogRepositoryInterface
	Log       *zap.Logger
}

// leadPayload keeps unknown lead fields so they stay available for
// templating.
type leadPayload map[string]any

func (p leadPayload) recipient() dispatch.Recipient {
	r := dispatch.Recipient{Extra: map[string]string{}}
	for key, value := range p {
		if value == nil {
			continue
		}
		s := fmt.Sprintf("%v", value)
		switch key {
		case "id":
			r.ID = s
		case "first_name":
			r.FirstName = s
		case "last_name":
			r.LastName = s
		case "email":
			r.Email = s
		case "phone":
			r.Phone = s
		default:
			r.Extra[key] = s
		}
	}
	return r
}

func recipients(leads []leadPayload) []dispatch.Recipient {
	out := make([]dispatch.Recipient, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.recipient())
	}
	return out
}

// SendBulkEmail handles POST /api/send-bulk-email.
func (h *CampaignHandler) SendBulkEmail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Leads       []leadPayload `json:"leads"`
		Subject     string        `json:"subject"`
		Message     string        `json:"message"`
		SenderEmail string        `json:"senderEmail"`
		SenderName  string        `json:"senderName"`
		UserID      string        `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.Email.Dispatch(r.Context(), dispatch.EmailRequest{
		Recipients:  recipients(payload.Leads),
		Subject:     payload.Subject,
		Message:     payload.Message,
		SenderEmail: payload.SenderEmail,
		SenderName:  payload.SenderName,
		UserID:      payload.UserID,
	})
	if err != nil {
		writeError(w, h.Log, err, "Failed to send bulk emails")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SendBulkSMS handles POST /api/send-bulk-sms.
func (h *CampaignHandler) SendBulkSMS(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Leads      []leadPayload `json:"leads"`
		Message    string        `json:"message"`
		SenderName string        `json:"senderName"`
		UserID     string        `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.SMS.Dispatch(r.Context(), dispatch.SMSRequest{
		Recipients: recipients(payload.Leads),
		Message:    payload.Message,
		SenderName: payload.SenderName,
		UserID:     payload.UserID,
	})
	if err != nil {
		writeError(w, h.Log, err, "Failed to send bulk SMS")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SMSBalance handles GET /api/sms-balance.
func (h *CampaignHandler) SMSBalance(w http.ResponseWriter, r *http.Request) {
	if h.Balance == nil {
		writeErrorMessage(w, http.StatusInternalServerError, "SMS credentials not configured")
		return
	}

	resp, err := h.Balance.Balance(r.Context())
	if err != nil {
		h.Log.Error("sms balance check failed", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to fetch SMS balance")
		return
	}
	if resp.StatusCode != "200" {
		writeErrorMessage(w, http.StatusBadRequest, resp.FailureMessage())
		return
	}

	balance := resp.ResponseResult
	if balance == "" {
		balance = "0.00"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"balance":  balance,
		"currency": "BDT",
	})
}

// ListCampaigns handles GET /api/email-campaigns and GET /api/sms-campaigns.
func (h *CampaignHandler) ListCampaigns(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaigns, err := h.Campaigns.List(r.Context(), r.URL.Query().Get("user_id"), channel)
		if err != nil {
			writeError(w, h.Log, err, "Failed to fetch campaigns")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": campaigns})
	}
}

// CampaignReport handles GET /api/email-report/{id} and
// GET /api/sms-report/{id}: the campaign row plus its delivery logs.
func (h *CampaignHandler) CampaignReport(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		campaign, err := h.Campaigns.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, h.Log, err, "Failed to fetch campaign")
			return
		}
		if campaign.Channel != channel {
			writeErrorMessage(w, http.StatusNotFound, "No campaign found for this id")
			return
		}

		logs, err := h.Logs.ListByCampaign(r.Context(), id)
		if err != nil {
			writeError(w, h.Log, err, "Failed to fetch delivery logs")
			return
		}

		if channel == model.ChannelSMS {
			writeJSON(w, http.StatusOK, smsReport(campaign, logs))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"campaign": campaign,
			"logs":     logs,
		})
	}
}

// smsReport sums per-recipient charges out of the stored provider responses.
func smsReport(campaign *model.Campaign, logs []model.DeliveryLog) map[string]any {
	type reportRow struct {
		Number string  `json:"number"`
		Status string  `json:"status"`
		Charge float64 `json:"charge"`
		Error  string  `json:"error,omitempty"`
	}

	rows := make([]reportRow, 0, len(logs))
	totalCharge := 0.0
	for _, l := range logs {
		row := reportRow{
			Number: l.RecipientContact,
			Status: l.Status,
			Error:  l.ErrorMessage,
		}
		if len(l.ProviderResponse) > 0 {
			var resp struct {
				Charge float64 `json:"charge"`
			}
			if json.Unmarshal(l.ProviderResponse, &resp) == nil {
				row.Charge = resp.Charge
			}
		}
		totalCharge += row.Charge
		rows = append(rows, row)
	}

	return map[string]any{
		"success":    true,
		"campaignId": campaign.ID,
		"status":     campaign.Status,
		"charge":     totalCharge,
		"recipients": rows,
	}
}
