package teletext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/alnah/go-teletext/internal/dateutil"
	"github.com/alnah/go-teletext/internal/pipeline"
)

// Mail defaults, matching the seznam.cz account the tool was written for.
const (
	DefaultSMTPHost = "smtp.seznam.cz"
	DefaultSMTPPort = 465
	DefaultSubject  = "Teletext PDF"
	DefaultBody     = "Please find the attached PDF."
)

// pdfContentType is the attachment media type.
const pdfContentType = mail.ContentType("application/pdf")

// Mailer delivers a rendered document to one recipient.
type Mailer interface {
	Send(ctx context.Context, doc *Document, recipient string) error
}

// SMTPSettings describes the outgoing mail server and the sender account.
type SMTPSettings struct {
	Host     string
	Port     int
	TLS      TLSMode
	Username string // sender address, also used as the From header
	Password string
	Timeout  time.Duration
}

// DefaultSMTPSettings returns the server defaults without credentials.
func DefaultSMTPSettings() SMTPSettings {
	return SMTPSettings{
		Host:    DefaultSMTPHost,
		Port:    DefaultSMTPPort,
		TLS:     TLSImplicit,
		Timeout: DefaultTimeout,
	}
}

// mailSender is the part of *mail.Client the mailer uses.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// senderFactory builds a sender for the given settings.
type senderFactory func(SMTPSettings) (mailSender, error)

// MailerOption configures an SMTPMailer.
type MailerOption func(*SMTPMailer)

// WithSubject sets the subject line. {date} placeholders are expanded at send time.
func WithSubject(subject string) MailerOption {
	return func(m *SMTPMailer) {
		if subject != "" {
			m.subject = subject
		}
	}
}

// WithBody sets the plain text body, read as Markdown for the HTML part.
// {date} placeholders are expanded at send time.
func WithBody(body string) MailerOption {
	return func(m *SMTPMailer) {
		if body != "" {
			m.body = body
		}
	}
}

// WithHTMLConverter replaces the Markdown converter used for the HTML part.
// A nil converter disables the HTML alternative.
func WithHTMLConverter(c pipeline.HTMLConverter) MailerOption {
	return func(m *SMTPMailer) {
		m.html = c
	}
}

// WithMailerLogger sets the logger.
func WithMailerLogger(l *zap.Logger) MailerOption {
	return func(m *SMTPMailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMailerClock sets the time source for date placeholders.
func WithMailerClock(now func() time.Time) MailerOption {
	return func(m *SMTPMailer) {
		if now != nil {
			m.now = now
		}
	}
}

// withSenderFactory replaces the SMTP client (tests).
func withSenderFactory(f senderFactory) MailerOption {
	return func(m *SMTPMailer) {
		m.newSender = f
	}
}

// SMTPMailer sends one message per Send call over a fresh SMTP session.
type SMTPMailer struct {
	settings  SMTPSettings
	subject   string
	body      string
	html      pipeline.HTMLConverter
	now       func() time.Time
	logger    *zap.Logger
	newSender senderFactory
}

// Compile-time interface check.
var _ Mailer = (*SMTPMailer)(nil)

// NewMailer creates a mailer for the given server and account.
func NewMailer(settings SMTPSettings, opts ...MailerOption) *SMTPMailer {
	m := &SMTPMailer{
		settings:  settings,
		subject:   DefaultSubject,
		body:      DefaultBody,
		html:      pipeline.NewGoldmarkConverter(),
		now:       time.Now,
		logger:    zap.NewNop(),
		newSender: newSMTPClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.settings.Timeout <= 0 {
		m.settings.Timeout = DefaultTimeout
	}
	return m
}

// Send attaches doc to a message for recipient and delivers it.
// Credentials are checked before any connection is made.
func (m *SMTPMailer) Send(ctx context.Context, doc *Document, recipient string) error {
	msg, err := m.BuildMessage(ctx, doc, recipient)
	if err != nil {
		return err
	}

	client, err := m.newSender(m.settings)
	if err != nil {
		return &SendError{Recipient: recipient, Err: fmt.Errorf("%w: %w", ErrSMTP, err)}
	}

	start := time.Now()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &SendError{Recipient: recipient, Err: ctxErr}
		}
		return &SendError{Recipient: recipient, Err: fmt.Errorf("%w: %v", ErrSMTP, err)}
	}

	m.logger.Debug("message delivered",
		zap.String("host", m.settings.Host),
		zap.Int("port", m.settings.Port),
		zap.String("attachment", doc.Filename),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// BuildMessage assembles the message without sending it.
func (m *SMTPMailer) BuildMessage(ctx context.Context, doc *Document, recipient string) (*mail.Msg, error) {
	recipient = strings.TrimSpace(recipient)
	if err := m.checkCredentials(recipient); err != nil {
		return nil, &SendError{Recipient: recipient, Err: err}
	}
	if doc == nil || len(doc.PDF) == 0 {
		return nil, &SendError{Recipient: recipient, Err: ErrEmptyDocument}
	}

	now := m.now()
	subject, err := dateutil.Expand(m.subject, now)
	if err != nil {
		return nil, &SendError{Recipient: recipient, Err: fmt.Errorf("subject: %w", err)}
	}
	body, err := dateutil.Expand(m.body, now)
	if err != nil {
		return nil, &SendError{Recipient: recipient, Err: fmt.Errorf("body: %w", err)}
	}

	msg, err := m.addressedMessage(recipient)
	if err != nil {
		return nil, &SendError{Recipient: recipient, Err: err}
	}
	msg.Subject(subject)
	msg.SetDateWithValue(now)
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, body)

	if m.html != nil {
		htmlBody, err := m.html.ToHTML(ctx, body)
		if err != nil {
			return nil, &SendError{Recipient: recipient, Err: err}
		}
		msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	}

	name := doc.Filename
	if name == "" {
		name = "teletext.pdf"
	}
	if err := msg.AttachReader(name, bytes.NewReader(doc.PDF), mail.WithFileContentType(pdfContentType)); err != nil {
		return nil, &SendError{Recipient: recipient, Err: fmt.Errorf("attaching %s: %w", name, err)}
	}
	return msg, nil
}

// Preflight runs the credential and address checks of Send without a
// document, so a run that cannot send fails before fetching.
func (m *SMTPMailer) Preflight(recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if err := m.checkCredentials(recipient); err != nil {
		return &SendError{Recipient: recipient, Err: err}
	}
	if _, err := m.addressedMessage(recipient); err != nil {
		return &SendError{Recipient: recipient, Err: err}
	}
	return nil
}

// addressedMessage starts a message with the sender and recipient parsed.
func (m *SMTPMailer) addressedMessage(recipient string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.settings.Username); err != nil {
		return nil, fmt.Errorf("%w: sender: %v", ErrInvalidAddress, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("%w: recipient: %v", ErrInvalidAddress, err)
	}
	return msg, nil
}

func (m *SMTPMailer) checkCredentials(recipient string) error {
	var missing []string
	if m.settings.Username == "" {
		missing = append(missing, "sender")
	}
	if m.settings.Password == "" {
		missing = append(missing, "password")
	}
	if recipient == "" {
		missing = append(missing, "recipient")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// newSMTPClient builds a go-mail client for the settings.
func newSMTPClient(s SMTPSettings) (mailSender, error) {
	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithUsername(s.Username),
		mail.WithPassword(s.Password),
		mail.WithTimeout(s.Timeout),
	}

	switch s.TLS {
	case TLSImplicit, "":
		opts = append(opts, mail.WithSSL(), mail.WithSMTPAuth(mail.SMTPAuthPlain))
	case TLSStartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory), mail.WithSMTPAuth(mail.SMTPAuthPlain))
	case TLSNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS), mail.WithSMTPAuth(mail.SMTPAuthPlainNoEnc))
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTLSMode, s.TLS)
	}

	client, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
