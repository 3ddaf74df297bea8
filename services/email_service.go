package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/kendall-kelly/storefront-api/config"
	"gopkg.in/gomail.v2"
)

// EmailSender delivers a single HTML email
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPEmailSender sends email through an SMTP relay
type SMTPEmailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPEmailSender builds a sender from the SMTP configuration
func NewSMTPEmailSender(cfg *config.Config) *SMTPEmailSender {
	return &SMTPEmailSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

// Send delivers one message. The context is checked before dialing; gomail itself
// has no cancellation support.
func (s *SMTPEmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

var emailSenderInstance EmailSender

// InitEmailSender sets the process-wide sender
func InitEmailSender(sender EmailSender) EmailSender {
	emailSenderInstance = sender
	return sender
}

// GetEmailSender returns the process-wide sender, nil when email is not configured
func GetEmailSender() EmailSender {
	return emailSenderInstance
}

// SentEmail is a message captured by MockEmailSender
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender records messages instead of sending them
type MockEmailSender struct {
	mu   sync.Mutex
	sent []SentEmail
	// FailFor makes Send fail for the listed recipients
	FailFor map[string]bool
}

// NewMockEmailSender creates an empty mock sender
func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{FailFor: make(map[string]bool)}
}

// Send records the message
func (m *MockEmailSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if m.FailFor[to] {
		return fmt.Errorf("mock email: delivery to %s failed", to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// Sent returns a copy of the recorded messages
func (m *MockEmailSender) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.sent...)
}
