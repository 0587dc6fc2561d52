package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-backend/internal/dispatch"
	appErrors "github.com/leadvault/leadvault-backend/internal/errors"
	"github.com/leadvault/leadvault-backend/internal/model"
	"github.com/leadvault/leadvault-backend/internal/provider"
)

type fakeEmailService struct {
	gotReq  dispatch.EmailRequest
	summary *dispatch.Summary
	err     error
}

func (s *fakeEmailService) Dispatch(_ context.Context, req dispatch.EmailRequest) (*dispatch.Summary, error) {
	s.gotReq = req
	return s.summary, s.err
}

type fakeSMSService struct {
	gotReq  dispatch.SMSRequest
	summary *dispatch.Summary
	err     error
}

func (s *fakeSMSService) Dispatch(_ context.Context, req dispatch.SMSRequest) (*dispatch.Summary, error) {
	s.gotReq = req
	return s.summary, s.err
}

type fakeBalanceClient struct {
	resp *provider.SMSResponse
	err  error
}

func (c *fakeBalanceClient) Balance(context.Context) (*provider.SMSResponse, error) {
	return c.resp, c.err
}

type fakeCampaignRepo struct {
	campaign *model.Campaign
	list     []model.Campaign
	err      error
}

func (r *fakeCampaignRepo) Create(context.Context, *model.Campaign) error { return nil }

func (r *fakeCampaignRepo) Finalize(context.Context, string, int, int, string) error { return nil }

func (r *fakeCampaignRepo) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.campaign, nil
}

func (r *fakeCampaignRepo) List(_ context.Context, userID, channel string) ([]model.Campaign, error) {
	return r.list, r.err
}

type fakeDeliveryLogRepo struct {
	logs []model.DeliveryLog
	err  error
}

func (r *fakeDeliveryLogRepo) InsertBatch(context.Context, []model.DeliveryLog) error { return nil }

func (r *fakeDeliveryLogRepo) ListByCampaign(context.Context, string) ([]model.DeliveryLog, error) {
	return r.logs, r.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSendBulkEmailSuccess(t *testing.T) {
	email := &fakeEmailService{summary: &dispatch.Summary{
		Success:    true,
		CampaignID: "camp-1",
		Sent:       2,
		Failed:     0,
		Total:      2,
		Message:    "2 emails sent successfully",
		Failures:   []dispatch.RecipientFailure{},
		Successes:  []dispatch.RecipientSuccess{},
	}}
	h := &CampaignHandler{Email: email, Log: zap.NewNop()}

	body := `{
		"leads": [
			{"id": "l1", "first_name": "Alice", "email": "alice@x.com", "company": "Acme"},
			{"id": "l2", "first_name": "Bob", "email": "bob@x.com"}
		],
		"subject": "Hello {firstName}",
		"message": "Hi {firstName}",
		"senderName": "LeadVault",
		"userId": "u-1"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/send-bulk-email", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SendBulkEmail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "camp-1", got["campaignId"])
	assert.Equal(t, float64(2), got["sent"])
	assert.Equal(t, "2 emails sent successfully", got["message"])

	// Lead fields map onto recipients, extras preserved for templating.
	require.Len(t, email.gotReq.Recipients, 2)
	assert.Equal(t, "l1", email.gotReq.Recipients[0].ID)
	assert.Equal(t, "alice@x.com", email.gotReq.Recipients[0].Email)
	assert.Equal(t, "Acme", email.gotReq.Recipients[0].Extra["company"])
	assert.Equal(t, "u-1", email.gotReq.UserID)
}

func TestSendBulkEmailValidationIs400(t *testing.T) {
	email := &fakeEmailService{err: appErrors.NewValidation("no leads provided")}
	h := &CampaignHandler{Email: email, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodPost, "/api/send-bulk-email", strings.NewReader(`{"leads":[]}`))
	rec := httptest.NewRecorder()
	h.SendBulkEmail(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no leads provided", decodeBody(t, rec)["error"])
}

func TestSendBulkEmailMalformedBodyIs400(t *testing.T) {
	h := &CampaignHandler{Email: &fakeEmailService{}, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodPost, "/api/send-bulk-email", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.SendBulkEmail(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeBody(t, rec)["error"])
}

func TestSendBulkEmailInternalErrorHidesDetail(t *testing.T) {
	email := &fakeEmailService{err: appErrors.NewPersistence("create campaign", assert.AnError)}
	h := &CampaignHandler{Email: email, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodPost, "/api/send-bulk-email", strings.NewReader(`{"leads":[{"id":"l1"}]}`))
	rec := httptest.NewRecorder()
	h.SendBulkEmail(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to send bulk emails", decodeBody(t, rec)["error"])
}

func TestSendBulkSMSSuccess(t *testing.T) {
	sms := &fakeSMSService{summary: &dispatch.Summary{
		Success:    true,
		CampaignID: "camp-2",
		Sent:       1,
		Failed:     1,
		Total:      2,
		Message:    "1 SMS sent successfully, 1 failed",
		Failures:   []dispatch.RecipientFailure{{LeadID: "l2", Error: "No phone number provided"}},
		Successes:  []dispatch.RecipientSuccess{{LeadID: "l1"}},
	}}
	h := &CampaignHandler{SMS: sms, Log: zap.NewNop()}

	body := `{
		"leads": [{"id": "l1", "phone": "01711000111"}, {"id": "l2"}],
		"message": "Flash sale",
		"senderName": "LeadVault"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/send-bulk-sms", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SendBulkSMS(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, float64(1), got["sent"])
	assert.Equal(t, float64(1), got["failed"])

	assert.Equal(t, "01711000111", sms.gotReq.Recipients[0].Phone)
	assert.Equal(t, "Flash sale", sms.gotReq.Message)
}

func TestSendBulkSMSConfigurationErrorIs500(t *testing.T) {
	sms := &fakeSMSService{err: appErrors.NewConfiguration("SMS service", "SMS_USERNAME", "SMS_API_KEY")}
	h := &CampaignHandler{SMS: sms, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodPost, "/api/send-bulk-sms", strings.NewReader(`{"leads":[{"id":"l1"}],"message":"m"}`))
	rec := httptest.NewRecorder()
	h.SendBulkSMS(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t,
		"SMS service not configured. Please set SMS_USERNAME and SMS_API_KEY in environment variables.",
		decodeBody(t, rec)["error"])
}

func TestSMSBalanceUnconfigured(t *testing.T) {
	h := &CampaignHandler{Balance: nil, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/api/sms-balance", nil)
	rec := httptest.NewRecorder()
	h.SMSBalance(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "SMS credentials not configured", decodeBody(t, rec)["error"])
}

func TestSMSBalanceSuccess(t *testing.T) {
	h := &CampaignHandler{
		Balance: &fakeBalanceClient{resp: &provider.SMSResponse{
			StatusCode: "200", Status: "Success", ResponseResult: "512.50",
		}},
		Log: zap.NewNop(),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sms-balance", nil)
	rec := httptest.NewRecorder()
	h.SMSBalance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "512.50", got["balance"])
	assert.Equal(t, "BDT", got["currency"])
}

func TestSMSBalanceGatewayRejection(t *testing.T) {
	h := &CampaignHandler{
		Balance: &fakeBalanceClient{resp: &provider.SMSResponse{
			StatusCode: "403", Status: "Failed", ResponseResult: "Invalid api key",
		}},
		Log: zap.NewNop(),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sms-balance", nil)
	rec := httptest.NewRecorder()
	h.SMSBalance(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid api key", decodeBody(t, rec)["error"])
}

func TestListCampaigns(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeCampaignRepo{list: []model.Campaign{
		{ID: "camp-1", Channel: model.ChannelEmail, Status: model.CampaignStatusSent, CreatedAt: now},
	}}
	h := &CampaignHandler{Campaigns: repo, Log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/api/email-campaigns?user_id=u-1", nil)
	rec := httptest.NewRecorder()
	h.ListCampaigns(model.ChannelEmail)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	data, ok := got["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func newReportRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/sms-report/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCampaignReportNotFound(t *testing.T) {
	repo := &fakeCampaignRepo{err: appErrors.NewNotFound("campaign", "missing")}
	h := &CampaignHandler{Campaigns: repo, Logs: &fakeDeliveryLogRepo{}, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.CampaignReport(model.ChannelSMS)(rec, newReportRequest("missing"))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCampaignReportWrongChannelIsNotFound(t *testing.T) {
	repo := &fakeCampaignRepo{campaign: &model.Campaign{ID: "camp-1", Channel: model.ChannelEmail}}
	h := &CampaignHandler{Campaigns: repo, Logs: &fakeDeliveryLogRepo{}, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.CampaignReport(model.ChannelSMS)(rec, newReportRequest("camp-1"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No campaign found for this id", decodeBody(t, rec)["error"])
}

func TestCampaignReportSMSChargeTotal(t *testing.T) {
	repo := &fakeCampaignRepo{campaign: &model.Campaign{
		ID: "camp-1", Channel: model.ChannelSMS, Status: model.CampaignStatusSent,
	}}
	logs := &fakeDeliveryLogRepo{logs: []model.DeliveryLog{
		{RecipientContact: "8801711000111", Status: model.DeliveryStatusSent, ProviderResponse: json.RawMessage(`{"charge":0.5}`)},
		{RecipientContact: "8801711000222", Status: model.DeliveryStatusSent, ProviderResponse: json.RawMessage(`{"charge":0.5}`)},
		{RecipientContact: "8801711000333", Status: model.DeliveryStatusFailed, ErrorMessage: "Insufficient balance"},
	}}
	h := &CampaignHandler{Campaigns: repo, Logs: logs, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.CampaignReport(model.ChannelSMS)(rec, newReportRequest("camp-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, float64(1.0), got["charge"])
	recipientsOut, ok := got["recipients"].([]any)
	require.True(t, ok)
	assert.Len(t, recipientsOut, 3)
}

func TestCampaignReportEmail(t *testing.T) {
	repo := &fakeCampaignRepo{campaign: &model.Campaign{
		ID: "camp-9", Channel: model.ChannelEmail, Status: model.CampaignStatusSent,
	}}
	logs := &fakeDeliveryLogRepo{logs: []model.DeliveryLog{
		{RecipientContact: "a@x.com", Status: model.DeliveryStatusSent},
	}}
	h := &CampaignHandler{Campaigns: repo, Logs: logs, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.CampaignReport(model.ChannelEmail)(rec, newReportRequest("camp-9"))

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, true, got["success"])
	campaign, ok := got["campaign"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "camp-9", campaign["id"])
}
