package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"survey-go/internal/models"
	"survey-go/internal/repository"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message is one outgoing e-mail.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	// Text is the plain-text fallback part.
	Text string
}

// Mailer delivers messages. Failures are reported as *DeliveryError.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// EmailService sends mail through the SMTP server stored in the settings
// table, read again for every send so admin edits apply immediately.
type EmailService struct {
	settings SettingsStore
	timeout  time.Duration
	log      *zap.Logger
}

func NewEmailService(settings SettingsStore, timeout time.Duration, log *zap.Logger) *EmailService {
	return &EmailService{settings: settings, timeout: timeout, log: log}
}

func (s *EmailService) Send(ctx context.Context, msg Message) error {
	settings, err := s.settings.GetSMTPSettings(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return &DeliveryError{To: msg.To, Err: ErrNoSMTPSettings}
	}
	if err != nil {
		return fmt.Errorf("loading smtp settings: %w", err)
	}
	return s.SendWith(ctx, settings, msg)
}

// SendWith delivers msg through the given server. The admin SMTP page uses it
// to test settings before saving them.
func (s *EmailService) SendWith(ctx context.Context, settings *models.SMTPSettings, msg Message) error {
	m, err := buildMessage(settings, msg)
	if err != nil {
		return &DeliveryError{To: msg.To, Err: err}
	}

	client, err := mail.NewClient(settings.Host, s.clientOptions(settings)...)
	if err != nil {
		return &DeliveryError{To: msg.To, Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.log.Warn("Failed to send email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.String("host", settings.Host),
			zap.Error(err),
		)
		return &DeliveryError{To: msg.To, Err: err}
	}

	s.log.Info("Email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (s *EmailService) clientOptions(settings *models.SMTPSettings) []mail.Option {
	opts := []mail.Option{mail.WithPort(settings.Port)}
	if s.timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.timeout))
	}
	if settings.UseTLS {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(settings.Username),
			mail.WithPassword(settings.Password),
		)
	}
	return opts
}

func buildMessage(settings *models.SMTPSettings, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(settings.FromName, settings.FromEmail); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	var err error
	if msg.ToName != "" {
		err = m.AddToFormat(msg.ToName, msg.To)
	} else {
		err = m.To(msg.To)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)

	text := msg.Text
	if text == "" {
		text = "This email requires an HTML capable client."
	}
	m.SetBodyString(mail.TypeTextPlain, text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}
