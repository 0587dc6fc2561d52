// internal/provider/email.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-backend/internal/config"
)

// EmailMessage is one personalized outbound email.
type EmailMessage struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	HTML      string
}

// EmailSender abstracts one outbound email transport. Send returns the raw
// provider response body; the caller classifies it with ClassifyEmail.
// A non-nil error is a terminal failure for that recipient, with the body
// (if any) preserved for audit.
type EmailSender interface {
	Name() string
	Send(ctx context.Context, msg EmailMessage) (json.RawMessage, error)
}

// ResolveEmailSender picks the first transport with usable credentials, in a
// fixed priority order: Resend, SendGrid, SMTP. With nothing configured it
// returns the log-only mock so development environments keep working.
func ResolveEmailSender(cfg *config.Config, log *zap.Logger) EmailSender {
	if cfg.ResendAPIKey != "" {
		log.Info("using Resend for email delivery")
		return NewResendSender(cfg.ResendAPIKey, cfg.SendTimeout, log)
	}
	if cfg.SendGridAPIKey != "" {
		log.Info("using SendGrid for email delivery")
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.SendTimeout, log)
	}
	if cfg.SMTPConfigured() {
		log.Info("using SMTP for email delivery", zap.String("host", cfg.SMTPHost))
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, log)
	}
	log.Warn("no email provider configured, outbound email runs in mock mode")
	return NewMockEmailSender(log)
}

// ClassifyEmail decides whether a provider response body means the message
// was accepted. Providers are not uniform: an absent body, an identifier
// under any common name, a list-shaped response and a 2xx-like status field
// are all real success shapes observed in the wild.
func ClassifyEmail(raw json.RawMessage) (ok bool, id string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true, ""
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if json.Unmarshal(trimmed, &list) == nil && len(list) > 0 {
			return true, ""
		}
		return false, ""
	}
	var body map[string]any
	if json.Unmarshal(trimmed, &body) != nil {
		return false, ""
	}
	for _, key := range []string{"id", "messageId", "message_id"} {
		if v, found := body[key].(string); found && v != "" {
			return true, v
		}
	}
	if status, found := body["status"]; found {
		if strings.HasPrefix(fmt.Sprint(status), "2") {
			return true, ""
		}
	}
	return false, ""
}

// ---------------- Resend ----------------

type ResendSender struct {
	apiKey string
	base   string
	client *http.Client
	log    *zap.Logger
}

func NewResendSender(apiKey string, timeout time.Duration, log *zap.Logger) *ResendSender {
	return &ResendSender{
		apiKey: apiKey,
		base:   "https://api.resend.com",
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (s *ResendSender) Name() string { return "resend" }

func (s *ResendSender) Send(ctx context.Context, msg EmailMessage) (json.RawMessage, error) {
	payload := map[string]any{
		"from":     fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail),
		"to":       []string{msg.To},
		"subject":  msg.Subject,
		"html":     msg.HTML,
		"reply_to": msg.FromEmail,
	}
	return postJSON(ctx, s.client, s.log, s.Name(), s.base+"/emails", payload, map[string]string{
		"Authorization": "Bearer " + s.apiKey,
	}, msg.To)
}

// ---------------- SendGrid ----------------

type SendGridSender struct {
	apiKey string
	base   string
	client *http.Client
	log    *zap.Logger
}

func NewSendGridSender(apiKey string, timeout time.Duration, log *zap.Logger) *SendGridSender {
	return &SendGridSender{
		apiKey: apiKey,
		base:   "https://api.sendgrid.com",
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (s *SendGridSender) Name() string { return "sendgrid" }

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) (json.RawMessage, error) {
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": msg.To}}},
		},
		"from":    map[string]string{"email": msg.FromEmail, "name": msg.FromName},
		"subject": msg.Subject,
		"content": []map[string]string{{"type": "text/html", "value": msg.HTML}},
	}
	return postJSON(ctx, s.client, s.log, s.Name(), s.base+"/v3/mail/send", payload, map[string]string{
		"Authorization": "Bearer " + s.apiKey,
	}, msg.To)
}

// ---------------- Mock ----------------

// MockEmailSender accepts everything and logs locally. It stands in when no
// provider credentials are configured.
type MockEmailSender struct {
	log *zap.Logger
}

func NewMockEmailSender(log *zap.Logger) *MockEmailSender {
	return &MockEmailSender{log: log}
}

func (s *MockEmailSender) Name() string { return "mock" }

func (s *MockEmailSender) Send(_ context.Context, msg EmailMessage) (json.RawMessage, error) {
	id := "mock_" + uuid.NewString()[:8]
	s.log.Info("[MOCK MODE] email would be sent",
		zap.String("to", msg.To),
		zap.String("from", msg.FromEmail),
		zap.String("subject", msg.Subject),
		zap.String("id", id),
	)
	body, _ := json.Marshal(map[string]string{"id": id})
	return body, nil
}

// ---------------- shared HTTP helper ----------------

func postJSON(ctx context.Context, client *http.Client, log *zap.Logger, provider, url string, payload any, headers map[string]string, recipient string) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	// Credentials travel in headers only; the payload is safe to log.
	log.Info("sending email",
		zap.String("provider", provider),
		zap.String("endpoint", url),
		zap.String("to", recipient),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	log.Info("email provider response",
		zap.String("provider", provider),
		zap.String("to", recipient),
		zap.Int("http_status", resp.StatusCode),
	)

	if resp.StatusCode >= 300 {
		return raw, fmt.Errorf("%s: status %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
