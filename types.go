package teletext

import (
	"fmt"
	"strings"
	"time"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.4
)

// DefaultTimeout bounds each stage when nothing else is configured.
const DefaultTimeout = 30 * time.Second

// paperDimensions holds portrait width and height in inches.
var paperDimensions = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "a4", "letter", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns A4 portrait with a narrow margin.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	if _, ok := paperDimensions[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// Dimensions returns paper width and height in inches, honouring orientation.
// Settings must be valid.
func (p *PageSettings) Dimensions() (width, height float64) {
	d := paperDimensions[strings.ToLower(p.Size)]
	width, height = d[0], d[1]
	if strings.EqualFold(p.Orientation, OrientationLandscape) {
		width, height = height, width
	}
	return width, height
}

// TLSMode selects how the SMTP connection is secured.
type TLSMode string

// TLS modes.
const (
	TLSImplicit TLSMode = "ssl"      // TLS from the first byte, usually port 465
	TLSStartTLS TLSMode = "starttls" // mandatory STARTTLS upgrade, usually port 587
	TLSNone     TLSMode = "none"     // plain connection, local relays only
)

// ParseTLSMode parses a TLS mode name (case-insensitive). "tls" is accepted
// as an alias of "ssl".
func ParseTLSMode(s string) (TLSMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ssl", "tls":
		return TLSImplicit, nil
	case "starttls":
		return TLSStartTLS, nil
	case "none", "plain":
		return TLSNone, nil
	}
	return "", fmt.Errorf("%w: %q (must be ssl, starttls, or none)", ErrInvalidTLSMode, s)
}
