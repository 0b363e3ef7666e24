package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/m3rciful/schoolbot/internal/leads"
)

// MailConfig configures the SMTP sink. An empty Host disables it.
type MailConfig struct {
	Host     string `yaml:"host" envconfig:"SMTP_HOST"`
	Port     int    `yaml:"port" envconfig:"SMTP_PORT"`
	User     string `yaml:"user" envconfig:"SMTP_USER"`
	Password string `yaml:"password" envconfig:"SMTP_PASSWORD"`
	From     string `yaml:"from" envconfig:"SMTP_FROM"`
	To       string `yaml:"to" envconfig:"LEADS_EMAIL_TO"`
}

// Enabled reports whether enough is set to send mail.
func (c MailConfig) Enabled() bool {
	return c.Host != "" && c.To != ""
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailSink emails each lead to the school inbox.
type MailSink struct {
	dialer mailDialer
	from   string
	to     string
	school string
}

// NewMailSink returns nil when cfg is not enabled.
func NewMailSink(cfg MailConfig, school string) *MailSink {
	if !cfg.Enabled() {
		return nil
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &MailSink{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Password),
		from:   from,
		to:     cfg.To,
		school: school,
	}
}

func (s *MailSink) Name() string { return "mail" }

// Notify sends synchronously; gomail has no context support.
func (s *MailSink) Notify(_ context.Context, l leads.Lead) error {
	if err := s.dialer.DialAndSend(s.message(l)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *MailSink) message(l leads.Lead) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", fmt.Sprintf("[%s] Новая заявка: %s", s.school, l.Name))
	m.SetBody("text/plain", FormatLead(l))
	return m
}
