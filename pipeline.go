package teletext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/alnah/go-teletext/internal/fileutil"
)

// Report summarizes one pipeline run.
type Report struct {
	RunID       string
	Pages       int // pages kept after fetching
	PDFBytes    int
	Sections    int // teletext pages laid out in the PDF
	Recipient   string
	Sent        bool
	ArchivePath string // empty when no archive copy was written
	Document    *Document
	Duration    time.Duration
}

// preflighter is implemented by mailers that can reject a run before any
// page is fetched.
type preflighter interface {
	Preflight(recipient string) error
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithArchiveDir keeps a copy of every PDF under dir/<timestamp>_teletext/.
func WithArchiveDir(dir string) PipelineOption {
	return func(p *Pipeline) {
		p.archiveDir = dir
	}
}

// WithPipelineLogger sets the logger; every run adds a run_id field.
func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithDryRun renders without sending.
func WithDryRun(dryRun bool) PipelineOption {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// withRunID fixes the run identifier (tests).
func withRunID(id string) PipelineOption {
	return func(p *Pipeline) {
		p.newRunID = func() string { return id }
	}
}

// Pipeline runs fetch, render and send once, in that order.
type Pipeline struct {
	fetcher    Fetcher
	renderer   Renderer
	mailer     Mailer
	recipient  string
	archiveDir string
	dryRun     bool
	logger     *zap.Logger
	newRunID   func() string
}

// NewPipeline wires the three stages. mailer may be nil for dry runs.
func NewPipeline(fetcher Fetcher, renderer Renderer, mailer Mailer, recipient string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetcher:   fetcher,
		renderer:  renderer,
		mailer:    mailer,
		recipient: recipient,
		logger:    zap.NewNop(),
		newRunID:  func() string { return xid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline. The first stage error is returned unchanged,
// so callers can match *FetchError, *RenderError and *SendError. On error
// the report holds whatever was completed.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: p.newRunID(), Recipient: p.recipient}
	log := p.logger.With(zap.String("run_id", report.RunID))

	if !p.dryRun && p.mailer == nil {
		return report, &SendError{Recipient: p.recipient, Err: fmt.Errorf("%w: no mailer configured", ErrMissingCredentials)}
	}
	if pf, ok := p.mailer.(preflighter); ok && !p.dryRun {
		if err := pf.Preflight(p.recipient); err != nil {
			log.Error("send preflight failed", zap.Error(err))
			return report, err
		}
	}

	stageStart := time.Now()
	pages, err := p.fetcher.Fetch(ctx)
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		return report, err
	}
	report.Pages = len(pages)
	log.Info("fetched pages", zap.Int("pages", len(pages)), zap.Duration("duration", time.Since(stageStart)))

	stageStart = time.Now()
	doc, err := p.renderer.Render(ctx, pages)
	if err != nil {
		log.Error("render failed", zap.Error(err))
		return report, err
	}
	report.Document = doc
	report.PDFBytes = len(doc.PDF)
	report.Sections = doc.Sections
	log.Info("rendered PDF",
		zap.String("file", doc.Filename),
		zap.Int("bytes", len(doc.PDF)),
		zap.Duration("duration", time.Since(stageStart)),
	)

	if p.archiveDir != "" {
		path, err := archiveDocument(p.archiveDir, doc)
		if err != nil {
			// Archive errors are logged, not returned.
			log.Warn("archive failed", zap.String("dir", p.archiveDir), zap.Error(err))
		} else {
			report.ArchivePath = path
			log.Info("archived PDF", zap.String("path", path))
		}
	}

	if p.dryRun {
		report.Duration = time.Since(start)
		log.Info("dry run, skipping send", zap.Duration("duration", report.Duration))
		return report, nil
	}

	stageStart = time.Now()
	if err := p.mailer.Send(ctx, doc, p.recipient); err != nil {
		log.Error("send failed", zap.Error(err))
		return report, err
	}
	report.Sent = true
	report.Duration = time.Since(start)
	log.Info("sent PDF",
		zap.String("recipient", p.recipient),
		zap.Duration("duration", time.Since(stageStart)),
		zap.Duration("total", report.Duration),
	)
	return report, nil
}

// archiveDocument writes doc to dir/<timestamp>_teletext/<filename>.
func archiveDocument(dir string, doc *Document) (string, error) {
	sub := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	return fileutil.WriteInDir(filepath.Join(dir, sub), doc.Filename, doc.PDF)
}
