package teletext

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-teletext/internal/assets"
	"github.com/alnah/go-teletext/internal/dateutil"
	"github.com/alnah/go-teletext/internal/pipeline"
)

// DefaultTitle heads the generated document.
const DefaultTitle = "Teletext"

// documentSuffix completes the <timestamp>_teletext.pdf file name.
const documentSuffix = "_teletext.pdf"

// Renderer lays pages out into a PDF document.
type Renderer interface {
	Render(ctx context.Context, pages []Page) (*Document, error)
	Close() error
}

// RendererOption configures a PDFRenderer.
type RendererOption func(*PDFRenderer)

// WithPageSettings sets the paper size, orientation and margin.
func WithPageSettings(ps *PageSettings) RendererOption {
	return func(r *PDFRenderer) {
		if ps != nil {
			r.settings = ps
		}
	}
}

// WithRenderTimeout bounds a single Render call.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRenderTimeout(d time.Duration) RendererOption {
	if d <= 0 {
		panic("teletext: WithRenderTimeout duration must be positive")
	}
	return func(r *PDFRenderer) {
		r.timeout = d
	}
}

// WithAssetLoader loads the style and document template from l.
func WithAssetLoader(l assets.AssetLoader) RendererOption {
	return func(r *PDFRenderer) {
		if l != nil {
			r.assets = l
		}
	}
}

// WithStyle selects a stylesheet by name.
func WithStyle(name string) RendererOption {
	return func(r *PDFRenderer) {
		if name != "" {
			r.style = name
		}
	}
}

// WithTitle sets the document title.
func WithTitle(title string) RendererOption {
	return func(r *PDFRenderer) {
		if title != "" {
			r.title = title
		}
	}
}

// WithClock sets the time source used for file names and the page footer.
func WithClock(now func() time.Time) RendererOption {
	return func(r *PDFRenderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRendererLogger sets the logger.
func WithRendererLogger(l *zap.Logger) RendererOption {
	return func(r *PDFRenderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// withPDFConverter replaces the browser backend (tests).
func withPDFConverter(c pdfConverter) RendererOption {
	return func(r *PDFRenderer) {
		r.pdf = c
	}
}

// PDFRenderer lays pages out as HTML and prints them with headless Chrome.
// It is not safe for concurrent use.
type PDFRenderer struct {
	settings *PageSettings
	timeout  time.Duration
	assets   assets.AssetLoader
	style    string
	title    string
	now      func() time.Time
	logger   *zap.Logger

	css pipeline.CSSInjector
	pdf pdfConverter

	// layout is built on first use from the configured template.
	layout pipeline.DocumentLayout
}

// Compile-time interface check.
var _ Renderer = (*PDFRenderer)(nil)

// NewRenderer creates a PDFRenderer. The browser starts on the first Render.
func NewRenderer(opts ...RendererOption) *PDFRenderer {
	r := &PDFRenderer{
		settings: DefaultPageSettings(),
		timeout:  DefaultTimeout,
		assets:   assets.NewEmbeddedLoader(),
		style:    assets.DefaultStyleName,
		title:    DefaultTitle,
		now:      time.Now,
		logger:   zap.NewNop(),
		css:      &pipeline.CSSInjection{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pdf == nil {
		r.pdf = newRodConverter(r.timeout)
	}
	return r
}

// Render produces one PDF page per teletext page, in the given order.
func (r *PDFRenderer) Render(ctx context.Context, pages []Page) (*Document, error) {
	if len(pages) == 0 {
		return nil, &RenderError{Err: fmt.Errorf("%w: no pages", ErrEmptyContent)}
	}
	for _, p := range pages {
		if err := p.Validate(); err != nil {
			return nil, &RenderError{Page: p.Number, Err: err}
		}
	}
	if err := r.settings.Validate(); err != nil {
		return nil, &RenderError{Err: err}
	}
	if r.pdf == nil {
		return nil, &RenderError{Err: fmt.Errorf("%w: renderer closed", ErrBrowserConnect)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	createdAt := r.now()
	htmlContent, err := r.buildHTML(ctx, pages, createdAt)
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	start := time.Now()
	pdf, err := r.pdf.ToPDF(ctx, htmlContent, r.settings)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	if len(pdf) == 0 {
		return nil, &RenderError{Err: fmt.Errorf("%w: empty output", ErrPDFGeneration)}
	}

	stamp, err := dateutil.Format(dateutil.StampFormat, createdAt)
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	r.logger.Debug("rendered PDF",
		zap.Int("pages", len(pages)),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Document{
		PDF:       pdf,
		HTML:      []byte(htmlContent),
		Filename:  stamp + documentSuffix,
		Sections:  len(pages),
		CreatedAt: createdAt,
	}, nil
}

// buildHTML runs the layout template and injects the stylesheet.
func (r *PDFRenderer) buildHTML(ctx context.Context, pages []Page, createdAt time.Time) (string, error) {
	layout, err := r.documentLayout()
	if err != nil {
		return "", err
	}

	css, err := r.assets.LoadStyle(r.style)
	if err != nil {
		return "", fmt.Errorf("loading style %q: %w", r.style, err)
	}

	generated, err := dateutil.Format("YYYY-MM-DD HH:mm", createdAt)
	if err != nil {
		return "", err
	}

	data := &pipeline.DocumentData{
		Title:     r.title,
		Generated: generated,
		Pages:     make([]pipeline.PageData, 0, len(pages)),
	}
	for _, p := range pages {
		data.Pages = append(data.Pages, toPageData(p))
	}

	htmlContent, err := layout.Layout(ctx, data)
	if err != nil {
		return "", err
	}
	htmlContent = r.css.InjectCSS(ctx, htmlContent, css)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return htmlContent, nil
}

func (r *PDFRenderer) documentLayout() (pipeline.DocumentLayout, error) {
	if r.layout != nil {
		return r.layout, nil
	}
	tmpl, err := r.assets.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}
	layout, err := pipeline.NewTemplateLayout(tmpl)
	if err != nil {
		return nil, err
	}
	r.layout = layout
	return layout, nil
}

// toPageData converts a fetched page into template data.
func toPageData(p Page) pipeline.PageData {
	data := pipeline.PageData{Number: p.Number, Label: p.Label()}
	if p.Kind == KindImage {
		data.Image = p.Image
		data.ImageType = p.ContentType
		if data.ImageType == "" {
			data.ImageType = http.DetectContentType(p.Image)
		}
		return data
	}
	data.Text = p.Text
	return data
}

// Close shuts the browser down. Safe to call more than once.
func (r *PDFRenderer) Close() error {
	if r.pdf == nil {
		return nil
	}
	err := r.pdf.Close()
	r.pdf = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("closing renderer: %w", err)
	}
	return nil
}
