// Package services provides external service integrations and technical concerns like mail delivery and tokens
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avolkov/robocontest/config"
	"github.com/avolkov/robocontest/utils"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// ErrMailerNotConfigured is returned when SMTP credentials are missing.
// Delivery records created for such sends carry it as the failure reason.
var ErrMailerNotConfigured = errors.New("SMTP transport is not configured")

// Mailer delivers a single email message. One call, one recipient,
// success or failure; retries are the caller's decision.
type Mailer interface {
	Send(ctx context.Context, mail *OutgoingMail) error
}

// OutgoingMail is one message handed to the transport
type OutgoingMail struct {
	To      string
	ToName  string
	Subject string
	Body    string // text/plain part
	HTML    string // optional text/html alternative; rendered from Body when empty
}

// SMTPMailer implements Mailer on top of gomail
type SMTPMailer struct {
	config *config.EmailConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer creates the production transport. An instance built from an
// unconfigured EmailConfig is still valid; its Send calls fail with
// ErrMailerNotConfigured so the delivery log captures the misconfiguration.
func NewSMTPMailer(cfg *config.EmailConfig) Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	// Implicit TLS (typically port 465) unless the server expects a STARTTLS upgrade
	d.SSL = cfg.UseTLS && !cfg.UseSTARTTLS
	return &SMTPMailer{
		config: cfg,
		dialer: d,
	}
}

// Send dials the SMTP server and delivers a single message
func (s *SMTPMailer) Send(ctx context.Context, mail *OutgoingMail) error {
	if s.config.Username == "" || s.config.Password == "" {
		return ErrMailerNotConfigured
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	if mail.ToName != "" {
		m.SetAddressHeader("To", mail.To, mail.ToName)
	} else {
		m.SetHeader("To", mail.To)
	}
	m.SetHeader("Subject", mail.Subject)
	m.SetHeader("Message-ID", s.messageID())
	m.SetHeader("X-Mailer", mailerName)
	m.SetBody("text/plain", mail.Body)

	htmlBody := mail.HTML
	if htmlBody == "" {
		htmlBody = BuildMailHTML(mail.Subject, mail.Body)
	}
	m.AddAlternative("text/html", htmlBody)

	// gomail has no context support, so run the blocking dial on the side
	// and give up when the context (or the configured timeout) expires
	sendCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to deliver mail to %s: %w", mail.To, err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("mail delivery to %s aborted: %w", mail.To, sendCtx.Err())
	}
}

// messageID builds an RFC 5322 Message-ID scoped to the sender domain
func (s *SMTPMailer) messageID() string {
	domain := "localhost"
	if parts := strings.SplitN(s.config.FromEmail, "@", 2); len(parts) == 2 && parts[1] != "" {
		domain = parts[1]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

// MockMailer implements Mailer for testing
type MockMailer struct {
	mu        sync.Mutex
	SentMails []MockSentMail
	failures  map[string]error
}

// MockSentMail represents a mail recorded by the mock transport
type MockSentMail struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
	SentAt  time.Time
}

// NewMockMailer creates a new mock mail transport
func NewMockMailer() *MockMailer {
	return &MockMailer{
		SentMails: make([]MockSentMail, 0),
		failures:  make(map[string]error),
	}
}

// FailFor makes Send return the given error for one recipient address
func (m *MockMailer) FailFor(address string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[address] = err
}

// Send records the mail, or returns the injected failure for the recipient
func (m *MockMailer) Send(ctx context.Context, mail *OutgoingMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failures[mail.To]; ok {
		return err
	}

	m.SentMails = append(m.SentMails, MockSentMail{
		To:      mail.To,
		ToName:  mail.ToName,
		Subject: mail.Subject,
		Body:    mail.Body,
		HTML:    mail.HTML,
		SentAt:  utils.UTCNow(),
	})
	return nil
}

// GetSentMails returns a snapshot of all recorded mails
func (m *MockMailer) GetSentMails() []MockSentMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MockSentMail, len(m.SentMails))
	copy(out, m.SentMails)
	return out
}

// ClearSentMails clears the recorded mails and failure injections
func (m *MockMailer) ClearSentMails() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentMails = make([]MockSentMail, 0)
	m.failures = make(map[string]error)
}
