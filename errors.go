package teletext

import (
	"errors"
	"fmt"
)

// Sentinel errors for fetch failures.
var (
	ErrHTTPStatus  = errors.New("unexpected HTTP status")
	ErrUndecodable = errors.New("response cannot be decoded as text or image")
	ErrNoPages     = errors.New("no teletext pages retrieved")
	ErrPageTooBig  = errors.New("response body exceeds size limit")
	ErrInvalidURL  = errors.New("invalid source URL")
	ErrInvalidPage = errors.New("invalid page range")
)

// Sentinel errors for render failures.
var (
	ErrEmptyContent    = errors.New("page content cannot be empty")
	ErrInvalidEncoding = errors.New("page text is not valid UTF-8")
	ErrBrowserConnect  = errors.New("failed to connect to browser")
	ErrPageCreate      = errors.New("failed to create browser page")
	ErrPageLoad        = errors.New("failed to load page")
	ErrPDFGeneration   = errors.New("PDF generation failed")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)

// Sentinel errors for send failures.
var (
	ErrMissingCredentials = errors.New("sender email, password and recipient are required")
	ErrInvalidAddress     = errors.New("invalid email address")
	ErrEmptyDocument      = errors.New("document has no PDF content")
	ErrInvalidTLSMode     = errors.New("invalid TLS mode")
	ErrSMTP               = errors.New("SMTP delivery failed")
)

// FetchError reports a failure to retrieve teletext content.
type FetchError struct {
	URL    string
	Page   int
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.URL == "":
		return fmt.Sprintf("fetch: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// RenderError reports a failure to lay pages out as a PDF.
type RenderError struct {
	Page int // teletext page number, 0 when not page specific
	Err  error
}

func (e *RenderError) Error() string {
	if e.Page != 0 {
		return fmt.Sprintf("render page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("render: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// SendError reports a failure to deliver the PDF by email.
type SendError struct {
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	if e.Recipient != "" {
		return fmt.Sprintf("send to %s: %v", e.Recipient, e.Err)
	}
	return fmt.Sprintf("send: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
