// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned when SMTP credentials are absent.
var ErrNotConfigured = errors.New("smtp not configured")

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTP sends mail through a gomail dialer.
type SMTP struct {
	dialer dialer
	from   string
}

// NewSMTP builds an SMTP sender. The sender is still usable when credentials
// are missing; Send then reports ErrNotConfigured.
func NewSMTP(cfg config.SMTPConfig) *SMTP {
	if !cfg.Configured() {
		return &SMTP{}
	}
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   cfg.Sender(),
	}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if s == nil || s.dialer == nil {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mail recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.build(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTP) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return m
}
