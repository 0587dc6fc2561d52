// internal/provider/smtp.go
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SMTPSender delivers over plain SMTP with STARTTLS auth. It is the last
// real transport in the resolution order, before the mock.
type SMTPSender struct {
	host string
	port int
	user string
	pass string
	log  *zap.Logger
}

func NewSMTPSender(host string, port int, user, pass string, log *zap.Logger) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, pass: pass, log: log}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(_ context.Context, msg EmailMessage) (json.RawMessage, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", msg.FromName, msg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.FromEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)

	s.log.Info("sending email",
		zap.String("provider", s.Name()),
		zap.String("endpoint", addr),
		zap.String("to", msg.To),
	)

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	if err := smtp.SendMail(addr, auth, s.user, []string{msg.To}, []byte(b.String())); err != nil {
		return nil, err
	}
	// SMTP has no response body; the empty body classifies as success.
	return nil, nil
}
