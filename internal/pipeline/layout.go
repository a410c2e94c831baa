package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
)

// ErrLayoutRender indicates the document template failed to execute.
var ErrLayoutRender = errors.New("document layout rendering failed")

// PageData is one teletext page as seen by the document template.
type PageData struct {
	Number int
	Label  string
	Text   string
	Image  []byte
	// ImageType is the media type of Image, e.g. "image/png".
	ImageType string
}

// ImageSrc returns the image as a data URI, or "" for text pages.
func (p PageData) ImageSrc() template.URL {
	if len(p.Image) == 0 {
		return ""
	}
	mediaType := p.ImageType
	if mediaType == "" {
		mediaType = "image/png"
	}
	// #nosec G203 -- media type comes from the fetcher, payload is base64
	return template.URL("data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Image))
}

// DocumentData holds everything the document template renders.
type DocumentData struct {
	Title     string
	Generated string // human readable timestamp, empty to omit
	Pages     []PageData
}

// DocumentLayout defines the contract for laying pages out as HTML.
type DocumentLayout interface {
	Layout(ctx context.Context, data *DocumentData) (string, error)
}

// TemplateLayout lays pages out with an html/template.
type TemplateLayout struct {
	tmpl *template.Template
}

// NewTemplateLayout parses the document template.
func NewTemplateLayout(tmplContent string) (*TemplateLayout, error) {
	tmpl, err := template.New("document").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing document template: %w", err)
	}
	return &TemplateLayout{tmpl: tmpl}, nil
}

// Layout executes the template. Text is HTML-escaped by html/template.
func (l *TemplateLayout) Layout(ctx context.Context, data *DocumentData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if data == nil {
		return "", fmt.Errorf("%w: nil document data", ErrLayoutRender)
	}

	var buf bytes.Buffer
	if err := l.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLayoutRender, err)
	}
	return buf.String(), nil
}
