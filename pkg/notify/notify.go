// Package notify delivers email notifications through Resend.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Notifier sends a message to the configured recipients.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Service sends email through Resend. Without an API key or recipients it
// only logs the message.
type Service struct {
	client *resend.Client
	from   string
	to     []string
	logger *slog.Logger
}

// NewService creates a notifier. An empty apiKey disables delivery.
func NewService(apiKey, from string, to []string, logger *slog.Logger) *Service {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	return NewWithClient(client, from, to, logger)
}

// NewWithClient creates a notifier over an existing Resend client.
func NewWithClient(client *resend.Client, from string, to []string, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		from:   from,
		to:     to,
		logger: logger,
	}
}

// Enabled reports whether messages are actually delivered.
func (s *Service) Enabled() bool {
	return s.client != nil && len(s.to) > 0
}

// Send implements Notifier.
func (s *Service) Send(ctx context.Context, msg Message) error {
	if msg.Subject == "" {
		return errors.New("notification subject is required")
	}
	if !s.Enabled() {
		s.logger.Warn("resend client not configured, logging notification instead",
			slog.String("subject", msg.Subject),
			slog.String("body", msg.Text),
		)
		return nil
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      s.to,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	s.logger.Info("notification sent",
		slog.String("id", sent.Id),
		slog.Int("recipients", len(s.to)),
	)
	return nil
}
