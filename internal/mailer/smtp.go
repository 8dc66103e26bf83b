package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPOptions configures the primary transport.
type SMTPOptions struct {
	Host        string
	Port        int
	FromName    string
	Credentials Credentials
	Timeout     time.Duration
}

// SMTPSender sends the generated acknowledgement over authenticated SMTP.
type SMTPSender struct {
	host     string
	port     int
	fromName string
	creds    Credentials
	timeout  time.Duration

	// dial is swapped in tests.
	dial func(ctx context.Context, s *SMTPSender, msg *mail.Msg) error
}

// NewSMTPSender validates opts. Missing credentials are an error so callers
// can skip the primary transport entirely.
func NewSMTPSender(opts SMTPOptions) (*SMTPSender, error) {
	if !opts.Credentials.Configured() {
		return nil, errors.New("mailer: smtp credentials are required")
	}
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := opts.Port
	if port <= 0 {
		port = 587
	}
	fromName := strings.TrimSpace(opts.FromName)
	if fromName == "" {
		fromName = "Social Good Fund"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		fromName: fromName,
		creds:    opts.Credentials,
		timeout:  timeout,
		dial:     dialAndSend,
	}, nil
}

func (s *SMTPSender) Name() string { return "smtp" }

// Send builds the multipart message and delivers it.
func (s *SMTPSender) Send(ctx context.Context, d Delivery) error {
	msg, err := s.buildMessage(d)
	if err != nil {
		return err
	}
	if err := s.dial(ctx, s, msg); err != nil {
		return fmt.Errorf("mailer: smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(d Delivery) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.creds.User); err != nil {
		return nil, fmt.Errorf("mailer: from address: %w", err)
	}
	if err := msg.To(d.To); err != nil {
		return nil, fmt.Errorf("mailer: recipient address: %w", err)
	}
	msg.Subject(ThankYouSubject)
	html, err := RenderHTML(d.To, d.Body)
	if err != nil {
		return nil, fmt.Errorf("mailer: render html: %w", err)
	}
	msg.SetBodyString(mail.TypeTextPlain, d.Body)
	msg.AddAlternativeString(mail.TypeTextHTML, html)
	return msg, nil
}

func dialAndSend(ctx context.Context, s *SMTPSender, msg *mail.Msg) error {
	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.creds.User),
		mail.WithPassword(s.creds.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.timeout),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

var _ Sender = (*SMTPSender)(nil)
