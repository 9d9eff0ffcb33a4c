package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// DefaultFromName is used when no sender display name is configured.
const DefaultFromName = "Telehealth Assistant"

// NoticeKind labels a patient e-mail for provider-side reporting.
type NoticeKind string

const (
	KindMedicationReminder NoticeKind = "medication_reminder"
	KindAppointmentUpdate  NoticeKind = "appointment_update"
)

// EmailSender delivers a single e-mail.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one patient notice. HTML is optional.
type EmailMessage struct {
	Kind    NoticeKind
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("notify: %s has no recipient", m.kindLabel())
	}
	if m.Body == "" && m.HTML == "" {
		return fmt.Errorf("notify: %s to %s has no content", m.kindLabel(), m.To)
	}
	return nil
}

func (m EmailMessage) kindLabel() string {
	if m.Kind == "" {
		return "notice"
	}
	return string(m.Kind)
}

// SendGridSender delivers notices through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

// buildMessage tags the mail with its notice kind and turns link and open
// tracking off so dashboard links reach the patient unrewritten.
func (s *SendGridSender) buildMessage(msg EmailMessage) *mail.SGMailV3 {
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, msg.To))

	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = msg.Subject
	m.AddPersonalizations(p)
	if msg.Body != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Body))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	m.AddCategories(msg.kindLabel())
	m.SetTrackingSettings(mail.NewTrackingSettings().
		SetClickTracking(mail.NewClickTrackingSetting().SetEnable(false).SetEnableText(false)).
		SetOpenTracking(mail.NewOpenTrackingSetting().SetEnable(false)))
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}
	response, err := s.client.SendWithContext(ctx, s.buildMessage(msg))
	if err != nil {
		return fmt.Errorf("notify: sendgrid %s: %w", msg.kindLabel(), err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected notice", "kind", msg.kindLabel(), "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("notify: sendgrid %s rejected with status %d", msg.kindLabel(), response.StatusCode)
	}
	s.logger.Debug("notice delivered", "provider", "sendgrid", "kind", msg.kindLabel(), "status", response.StatusCode)
	return nil
}

// StubEmailSender logs notices instead of delivering them. Development only.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("notice not delivered, email provider disabled", "kind", msg.kindLabel(), "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
