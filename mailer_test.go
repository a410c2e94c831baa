package teletext

// Notes:
// - No SMTP server is contacted: a fakeSender replaces the go-mail client.
//   newSMTPClient is only checked for option validation; dialling is left
//   to manual testing against a real relay.

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
)

func testDocument() *Document {
	return &Document{
		PDF:       []byte("%PDF-1.7 teletext"),
		Filename:  "20261015_073005_teletext.pdf",
		Sections:  1,
	}
}

func newTestMailer(sender *fakeSender, settings SMTPSettings, opts ...MailerOption) *SMTPMailer {
	opts = append([]MailerOption{withSenderFactory(sender.factory()), WithMailerClock(fixedNow)}, opts...)
	return NewMailer(settings, opts...)
}

func renderMessage(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("writing message: %v", err)
	}
	return buf.String()
}

// ---------------------------------------------------------------------------
// TestSMTPMailer_Send - Success
// ---------------------------------------------------------------------------

func TestSMTPMailer_Send(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	m := newTestMailer(sender, testSMTPSettings())

	if err := m.Send(context.Background(), testDocument(), "reader@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.Messages) != 1 {
		t.Fatalf("messages sent = %d, want 1", len(sender.Messages))
	}
	msg := sender.Messages[0]

	rcpts, err := msg.GetRecipients()
	if err != nil || len(rcpts) != 1 || rcpts[0] != "reader@example.com" {
		t.Errorf("recipients = %v, %v", rcpts, err)
	}
	if from := msg.GetFromString(); len(from) != 1 || !strings.Contains(from[0], "sender@seznam.cz") {
		t.Errorf("from = %v", from)
	}
	if subj := msg.GetGenHeader(mail.HeaderSubject); len(subj) != 1 || subj[0] != DefaultSubject {
		t.Errorf("subject = %v, want %q", subj, DefaultSubject)
	}

	attachments := msg.GetAttachments()
	if len(attachments) != 1 || attachments[0].Name != "20261015_073005_teletext.pdf" {
		t.Fatalf("attachments = %+v", attachments)
	}

	raw := renderMessage(t, msg)
	for _, want := range []string{
		"application/pdf",
		base64.StdEncoding.EncodeToString(testDocument().PDF),
		DefaultBody,
		"text/html",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSMTPMailer_Send_CustomSubjectAndBody(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	m := newTestMailer(sender, testSMTPSettings(),
		WithSubject("Teletext {date:czech}"),
		WithBody("Pages from **{date}**"),
		WithHTMLConverter(nil),
		WithMailerLogger(nil),
	)

	if err := m.Send(context.Background(), testDocument(), "reader@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := sender.Messages[0]
	if subj := msg.GetGenHeader(mail.HeaderSubject); len(subj) != 1 || subj[0] != "Teletext 15. 10. 2026" {
		t.Errorf("subject = %v", subj)
	}
	raw := renderMessage(t, msg)
	if !strings.Contains(raw, "Pages from **2026-10-15**") {
		t.Error("body placeholders not expanded")
	}
	if strings.Contains(raw, "text/html") {
		t.Error("HTML alternative should be disabled")
	}
}

func TestSMTPMailer_Send_DefaultAttachmentName(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	doc := testDocument()
	doc.Filename = ""

	if err := newTestMailer(sender, testSMTPSettings()).Send(context.Background(), doc, "reader@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a := sender.Messages[0].GetAttachments(); len(a) != 1 || a[0].Name != "teletext.pdf" {
		t.Errorf("attachments = %+v", a)
	}
}

// ---------------------------------------------------------------------------
// TestSMTPMailer_Send - Errors
// ---------------------------------------------------------------------------

func TestSMTPMailer_Send_Errors(t *testing.T) {
	t.Parallel()

	noPassword := testSMTPSettings()
	noPassword.Password = ""
	noSender := testSMTPSettings()
	noSender.Username = ""
	badSender := testSMTPSettings()
	badSender.Username = "not an address"

	tests := []struct {
		name      string
		settings  SMTPSettings
		doc       *Document
		recipient string
		sendErr   error
		wantErr   error
		wantText  string
	}{
		{"missing password", noPassword, testDocument(), "r@example.com", nil, ErrMissingCredentials, "password"},
		{"missing sender", noSender, testDocument(), "r@example.com", nil, ErrMissingCredentials, "sender"},
		{"missing recipient", testSMTPSettings(), testDocument(), "  ", nil, ErrMissingCredentials, "recipient"},
		{"invalid sender", badSender, testDocument(), "r@example.com", nil, ErrInvalidAddress, "sender"},
		{"invalid recipient", testSMTPSettings(), testDocument(), "nobody", nil, ErrInvalidAddress, "recipient"},
		{"nil document", testSMTPSettings(), nil, "r@example.com", nil, ErrEmptyDocument, ""},
		{"empty pdf", testSMTPSettings(), &Document{Filename: "x.pdf"}, "r@example.com", nil, ErrEmptyDocument, ""},
		{"auth rejected", testSMTPSettings(), testDocument(), "r@example.com", errors.New("535 authentication failed"), ErrSMTP, "535"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeSender{Err: tt.sendErr}
			err := newTestMailer(sender, tt.settings).Send(context.Background(), tt.doc, tt.recipient)

			var se *SendError
			if !errors.As(err, &se) {
				t.Fatalf("error = %T %v, want *SendError", err, err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q should mention %q", err, tt.wantText)
			}
			if tt.sendErr == nil && len(sender.Messages) != 0 {
				t.Error("nothing should be sent")
			}
		})
	}
}

func TestSMTPMailer_Send_InvalidSubjectPlaceholder(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	err := newTestMailer(sender, testSMTPSettings(), WithSubject("Teletext {date")).
		Send(context.Background(), testDocument(), "r@example.com")

	var se *SendError
	if !errors.As(err, &se) || !strings.Contains(err.Error(), "subject") {
		t.Errorf("error = %v, want subject SendError", err)
	}
}

func TestSMTPMailer_Send_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &fakeSender{Err: errors.New("dial aborted")}
	err := newTestMailer(sender, testSMTPSettings()).Send(ctx, testDocument(), "r@example.com")

	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestSMTPMailer_Send_SenderFactoryError(t *testing.T) {
	t.Parallel()

	settings := testSMTPSettings()
	settings.TLS = "carrier-pigeon"
	m := NewMailer(settings)

	err := m.Send(context.Background(), testDocument(), "r@example.com")
	if !errors.Is(err, ErrSMTP) || !errors.Is(err, ErrInvalidTLSMode) {
		t.Errorf("error = %v, want ErrSMTP wrapping ErrInvalidTLSMode", err)
	}
}

// ---------------------------------------------------------------------------
// TestNewSMTPClient
// ---------------------------------------------------------------------------

func TestNewSMTPClient(t *testing.T) {
	t.Parallel()

	for _, mode := range []TLSMode{TLSImplicit, TLSStartTLS, TLSNone, ""} {
		s := testSMTPSettings()
		s.TLS = mode
		if _, err := newSMTPClient(s); err != nil {
			t.Errorf("newSMTPClient(%q) = %v", mode, err)
		}
	}

	s := testSMTPSettings()
	s.Host = ""
	if _, err := newSMTPClient(s); err == nil {
		t.Error("expected error for empty host")
	}
}

func TestNewMailer_Defaults(t *testing.T) {
	t.Parallel()

	m := NewMailer(SMTPSettings{Host: "localhost", Port: 2525})
	if m.settings.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want default", m.settings.Timeout)
	}
	if m.subject != DefaultSubject || m.body != DefaultBody {
		t.Errorf("subject/body = %q/%q", m.subject, m.body)
	}

	m = NewMailer(SMTPSettings{Timeout: time.Second}, WithSubject(""), WithBody(""))
	if m.settings.Timeout != time.Second || m.subject != DefaultSubject {
		t.Error("empty options should keep defaults")
	}
}

// ---------------------------------------------------------------------------
// TestSMTPMailer_Preflight
// ---------------------------------------------------------------------------

func TestSMTPMailer_Preflight(t *testing.T) {
	t.Parallel()

	noSender := testSMTPSettings()
	noSender.Username = ""
	badSender := testSMTPSettings()
	badSender.Username = "sender-at-seznam"

	tests := []struct {
		name      string
		settings  SMTPSettings
		recipient string
		wantErr   error
	}{
		{"complete", testSMTPSettings(), "reader@example.com", nil},
		{"blank recipient", testSMTPSettings(), "   ", ErrMissingCredentials},
		{"no sender", noSender, "reader@example.com", ErrMissingCredentials},
		{"malformed recipient", testSMTPSettings(), "not-an-address", ErrInvalidAddress},
		{"malformed sender", badSender, "reader@example.com", ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeSender{}
			err := newTestMailer(sender, tt.settings).Preflight(tt.recipient)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Preflight() error = %v, want %v", err, tt.wantErr)
			}
			var sendErr *SendError
			if !errors.As(err, &sendErr) {
				t.Errorf("error type = %T, want *SendError", err)
			}
			if len(sender.Messages) != 0 {
				t.Errorf("preflight sent %d message(s)", len(sender.Messages))
			}
		})
	}
}
