// internal/provider/sms.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StatusCodeInvalidSender is the gateway code for an invalid or unregistered
// sender identity. It is the only retryable condition: one retry with the
// pre-provisioned numeric fallback sender id, nothing else.
const StatusCodeInvalidSender = "208"

// SMSResponse is the parsed gateway reply plus the untouched payload for the
// delivery ledger. Non-JSON replies keep StatusCode/Status empty and are
// therefore classified as failures with the raw body preserved.
type SMSResponse struct {
	StatusCode     string `json:"statusCode"`
	Status         string `json:"status"`
	TrxnID         string `json:"trxnId"`
	ResponseResult string `json:"responseResult"`

	HTTPStatus int             `json:"-"`
	Raw        json.RawMessage `json:"-"`
}

// SingleOK is the strict per-recipient success rule: the gateway must say so
// explicitly, ambiguity is failure.
func (r *SMSResponse) SingleOK() bool {
	return r.StatusCode == "200" && r.Status == "Success"
}

// BroadcastOK mirrors the gateway's looser one-to-many contract.
func (r *SMSResponse) BroadcastOK() bool {
	return r.StatusCode == "200" || r.Status == "Success" || r.HTTPStatus == http.StatusOK
}

func (r *SMSResponse) InvalidSender() bool {
	return r.StatusCode == StatusCodeInvalidSender
}

// FailureMessage builds the human-readable error for the delivery log.
func (r *SMSResponse) FailureMessage() string {
	if r.ResponseResult != "" {
		return r.ResponseResult
	}
	if len(bytes.TrimSpace(r.Raw)) > 0 && r.StatusCode == "" {
		return strings.TrimSpace(string(r.Raw))
	}
	if r.Status != "" {
		return "Status: " + r.Status
	}
	return fmt.Sprintf("Status: %d", r.HTTPStatus)
}

// AuditPayload shapes the provider response for a delivery log row,
// annotated with the number actually attempted.
func (r *SMSResponse) AuditPayload(attemptedNumber string) json.RawMessage {
	m := map[string]any{}
	if len(r.Raw) == 0 || json.Unmarshal(r.Raw, &m) != nil {
		m = map[string]any{
			"raw":        string(r.Raw),
			"httpStatus": r.HTTPStatus,
		}
	}
	if attemptedNumber != "" {
		m["attemptedNumber"] = attemptedNumber
	}
	out, _ := json.Marshal(m)
	return out
}

// SMSClient talks to a mimsms-compatible HTTP gateway.
type SMSClient struct {
	base     string
	username string
	apiKey   string
	client   *http.Client
	log      *zap.Logger
}

func NewSMSClient(base, username, apiKey string, timeout time.Duration, log *zap.Logger) *SMSClient {
	return &SMSClient{
		base:     strings.TrimRight(base, "/"),
		username: username,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Send delivers one personalized message to one number.
func (c *SMSClient) Send(ctx context.Context, number, senderName, message string) (*SMSResponse, error) {
	return c.post(ctx, "/api/SmsSending/SMS", c.sendPayload(number, senderName, message))
}

// SendBroadcast delivers one identical message to every number in a single
// gateway request. It cannot personalize.
func (c *SMSClient) SendBroadcast(ctx context.Context, numbers []string, senderName, message string) (*SMSResponse, error) {
	return c.post(ctx, "/api/SmsSending/OneToMany", c.sendPayload(strings.Join(numbers, ","), senderName, message))
}

// Balance fetches the remaining account credit.
func (c *SMSClient) Balance(ctx context.Context) (*SMSResponse, error) {
	return c.post(ctx, "/api/SmsSending/balanceCheck", map[string]string{
		"UserName": c.username,
		"Apikey":   c.apiKey,
	})
}

func (c *SMSClient) sendPayload(number, senderName, message string) map[string]string {
	return map[string]string{
		"UserName":        c.username,
		"Apikey":          c.apiKey,
		"MobileNumber":    number,
		"SenderName":      senderName,
		"TransactionType": "T",
		"Message":         message,
		"CampaignId":      "",
	}
}

func (c *SMSClient) post(ctx context.Context, path string, payload map[string]string) (*SMSResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	redacted := make(map[string]string, len(payload))
	for k, v := range payload {
		redacted[k] = v
	}
	if _, found := redacted["Apikey"]; found {
		redacted["Apikey"] = "***"
	}
	c.log.Info("sms gateway request",
		zap.String("endpoint", c.base+path),
		zap.Any("payload", redacted),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	out := &SMSResponse{HTTPStatus: resp.StatusCode, Raw: raw}
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "json") {
		// A parse failure keeps the raw body for audit; classification then
		// falls through to failure.
		_ = json.Unmarshal(raw, out)
	}

	c.log.Info("sms gateway response",
		zap.String("endpoint", c.base+path),
		zap.Int("http_status", resp.StatusCode),
		zap.String("status_code", out.StatusCode),
		zap.String("status", out.Status),
	)
	return out, nil
}

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone converts a raw phone value to the gateway's international
// digit format using the configured country prefix.
func NormalizePhone(raw, prefix string) string {
	if raw == "" {
		return ""
	}
	digits := nonDigits.ReplaceAllString(raw, "")
	switch {
	case strings.HasPrefix(digits, prefix):
		return digits
	case strings.HasPrefix(digits, "0"):
		return prefix + digits[1:]
	case (len(digits) == 10 || len(digits) == 11) && !strings.HasPrefix(digits, "00"):
		return prefix + digits
	}
	return digits
}
