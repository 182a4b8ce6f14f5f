package services

import (
	"becky-backend/logger"
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

//go:generate mockgen -destination=mock_services_test.go -package=services -self_package=becky-backend/services becky-backend/services Mailer,ChatModel

type Email struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SendGridMailer delivers email through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridMailer returns a mailer that refuses to send when apiKey is empty.
func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	m := &SendGridMailer{from: mail.NewEmail(fromName, fromEmail)}
	if apiKey != "" {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

func (m *SendGridMailer) Send(ctx context.Context, email Email) error {
	log := logger.FromContext(ctx)
	if m.client == nil {
		log.Warn("SendGrid API key not set, skipping email", "to", email.ToEmail)
		return fmt.Errorf("email delivery not configured: %w", ErrUnavailable)
	}

	to := mail.NewEmail(email.ToName, email.ToEmail)
	msg := mail.NewSingleEmail(m.from, email.Subject, to, "", email.HTML)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	log.Info("email sent", "to", email.ToEmail, "subject", email.Subject)
	return nil
}
