package teletext

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"time"
	"unicode/utf8"

	// Decoders registered for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Kind tells how a page's content is laid out.
type Kind string

// Page kinds.
const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Page is the content of one teletext page as retrieved from the source.
type Page struct {
	Number      int    // teletext page number (100-899), 0 for a fixed URL
	URL         string // URL the content was fetched from
	Kind        Kind
	ContentType string // media type reported by the source
	Text        string // set when Kind == KindText
	Image       []byte // set when Kind == KindImage
}

// Validate checks that the page carries something to render.
func (p Page) Validate() error {
	switch p.Kind {
	case KindText:
		if strings.TrimSpace(p.Text) == "" {
			return ErrEmptyContent
		}
		if !utf8.ValidString(p.Text) {
			return ErrInvalidEncoding
		}
	case KindImage:
		if len(p.Image) == 0 {
			return ErrEmptyContent
		}
	default:
		return fmt.Errorf("%w: unknown page kind %q", ErrEmptyContent, p.Kind)
	}
	return nil
}

// Label returns the caption shown above the page in the PDF.
func (p Page) Label() string {
	if p.Number == 0 {
		return "Teletext"
	}
	return fmt.Sprintf("Page %d", p.Number)
}

// Document is a rendered PDF ready to be mailed.
type Document struct {
	PDF       []byte
	HTML      []byte // intermediate layout, kept for debugging
	Filename  string
	CreatedAt time.Time

	// Sections counts the teletext pages laid out, one section each. A text
	// page taller than the paper continues on the next PDF page, so the PDF
	// may hold more pages than Sections.
	Sections int
}

// isUniformImage reports whether every pixel of the image has the same colour.
// The teletext picture API answers missing pages with a blank frame.
func isUniformImage(data []byte) (bool, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	if b.Empty() {
		return true, nil
	}

	r0, g0, b0, a0 := img.At(b.Min.X, b.Min.Y).RGBA()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if r != r0 || g != g0 || bl != b0 || a != a0 {
				return false, nil
			}
		}
	}
	return true, nil
}
