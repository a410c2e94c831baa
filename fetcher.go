package teletext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Source defaults: the Czech Television teletext picture service.
const (
	DefaultSourceURL = "https://api-teletext.ceskatelevize.cz/services-old/teletext/picture.php?channel={channel}&page={page}"
	DefaultChannel   = "CT2"
	DefaultStartPage = 100
	DefaultEndPage   = 170 // exclusive
)

// Page range bounds.
const (
	MinPageNumber = 100
	MaxPageNumber = 900 // exclusive
)

// MaxPageBytes caps a single response body.
const MaxPageBytes = 5 << 20

// HTTP client defaults.
const (
	defaultHTTPTimeout           = 30 * time.Second
	defaultResponseHeaderTimeout = 30 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
)

// URL template placeholders.
const (
	placeholderChannel = "{channel}"
	placeholderPage    = "{page}"
)

// UserAgent is sent with every request.
var UserAgent = "go-teletext/dev"

// Fetcher retrieves teletext pages.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Page, error)
}

// Source describes where pages come from.
// When URL contains {page}, every page in [StartPage, EndPage) is requested;
// otherwise URL is fetched once.
type Source struct {
	URL       string
	Channel   string
	StartPage int
	EndPage   int
}

// DefaultSource returns the source used when nothing is configured.
func DefaultSource() Source {
	return Source{
		URL:       DefaultSourceURL,
		Channel:   DefaultChannel,
		StartPage: DefaultStartPage,
		EndPage:   DefaultEndPage,
	}
}

// Templated reports whether the URL iterates over page numbers.
func (s Source) Templated() bool {
	return strings.Contains(s.URL, placeholderPage)
}

// Validate checks the URL and, for templated sources, the page range.
func (s Source) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	probe := strings.NewReplacer(placeholderChannel, "x", placeholderPage, "100").Replace(s.URL)
	u, err := url.Parse(probe)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if strings.Contains(s.URL, placeholderChannel) && s.Channel == "" {
		return fmt.Errorf("%w: URL needs a channel", ErrInvalidURL)
	}

	if !s.Templated() {
		return nil
	}
	if s.StartPage < MinPageNumber || s.EndPage > MaxPageNumber || s.StartPage >= s.EndPage {
		return fmt.Errorf("%w: [%d, %d) (pages must lie within [%d, %d))",
			ErrInvalidPage, s.StartPage, s.EndPage, MinPageNumber, MaxPageNumber)
	}
	return nil
}

// target is one request to issue.
type target struct {
	page int
	url  string
}

// targets expands the source into concrete requests, in page order.
func (s Source) targets() []target {
	base := strings.ReplaceAll(s.URL, placeholderChannel, url.QueryEscape(s.Channel))
	if !s.Templated() {
		return []target{{url: base}}
	}

	out := make([]target, 0, s.EndPage-s.StartPage)
	for n := s.StartPage; n < s.EndPage; n++ {
		out = append(out, target{
			page: n,
			url:  strings.ReplaceAll(base, placeholderPage, strconv.Itoa(n)),
		})
	}
	return out
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithFetchTimeout sets the per-request timeout of the default client.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithFetchTimeout(d time.Duration) FetcherOption {
	if d <= 0 {
		panic("teletext: WithFetchTimeout duration must be positive")
	}
	return func(f *HTTPFetcher) {
		f.client = newHTTPClient(d)
	}
}

// WithFetcherLogger sets the logger used to report skipped pages.
func WithFetcherLogger(l *zap.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// HTTPFetcher fetches pages with a single GET per page and no retries.
type HTTPFetcher struct {
	source Source
	client *http.Client
	logger *zap.Logger
}

// Compile-time interface check.
var _ Fetcher = (*HTTPFetcher)(nil)

// NewFetcher creates a fetcher for the given source.
func NewFetcher(source Source, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		source: source,
		client: newHTTPClient(defaultHTTPTimeout),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// newHTTPClient builds a client with bounded transport timeouts.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ResponseHeaderTimeout: defaultResponseHeaderTimeout,
			TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		},
	}
}

// Fetch requests every page of the source in order.
//
// A transport failure aborts the run. A page answered with a non-success
// status, an undecodable body, or a blank image is skipped. If nothing
// survives, the first page-level failure is returned (or ErrNoPages when
// every page was blank).
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Page, error) {
	if err := f.source.Validate(); err != nil {
		return nil, &FetchError{URL: f.source.URL, Err: err}
	}

	targets := f.source.targets()
	pages := make([]Page, 0, len(targets))
	var firstErr error

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{URL: t.url, Page: t.page, Err: err}
		}

		page, keep, err := f.fetchPage(ctx, t)
		if err != nil {
			if !isPageLevel(err) {
				return nil, err
			}
			f.logger.Warn("skipping page", zap.Int("page", t.page), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !keep {
			f.logger.Debug("skipping blank page", zap.Int("page", t.page))
			continue
		}

		f.logger.Debug("fetched page",
			zap.Int("page", page.Number),
			zap.String("kind", string(page.Kind)),
			zap.String("content_type", page.ContentType),
		)
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, &FetchError{URL: f.source.URL, Err: ErrNoPages}
	}
	return pages, nil
}

// isPageLevel reports whether err concerns one page only.
func isPageLevel(err error) bool {
	return errors.Is(err, ErrHTTPStatus) ||
		errors.Is(err, ErrUndecodable) ||
		errors.Is(err, ErrPageTooBig)
}

// fetchPage issues one GET. keep is false for blank images.
func (f *HTTPFetcher) fetchPage(ctx context.Context, t target) (page Page, keep bool, err error) {
	fail := func(status int, err error) (Page, bool, error) {
		return Page{}, false, &FetchError{URL: t.url, Page: t.page, Status: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return fail(0, fmt.Errorf("%w: %v", ErrInvalidURL, err))
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxPageBytes))
		return fail(resp.StatusCode, ErrHTTPStatus)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes+1))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("reading body: %w", err))
	}
	if len(body) > MaxPageBytes {
		return fail(resp.StatusCode, ErrPageTooBig)
	}

	header := resp.Header.Get("Content-Type")
	mediaType, _, perr := mime.ParseMediaType(header)
	if perr != nil || mediaType == "" {
		header = http.DetectContentType(body)
		mediaType, _, _ = mime.ParseMediaType(header)
	}

	page = Page{Number: t.page, URL: t.url, ContentType: mediaType}

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		uniform, err := isUniformImage(body)
		if err != nil {
			return fail(resp.StatusCode, fmt.Errorf("%w: %v", ErrUndecodable, err))
		}
		if uniform {
			return Page{}, false, nil
		}
		page.Kind = KindImage
		page.Image = body

	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text, err := decodeText(body, header)
		if err != nil {
			return fail(resp.StatusCode, err)
		}
		text, err = extractHTMLText(text)
		if err != nil {
			return fail(resp.StatusCode, fmt.Errorf("%w: %v", ErrUndecodable, err))
		}
		page.Kind = KindText
		page.Text = text

	case strings.HasPrefix(mediaType, "text/"):
		text, err := decodeText(body, header)
		if err != nil {
			return fail(resp.StatusCode, err)
		}
		page.Kind = KindText
		page.Text = text

	default:
		return fail(resp.StatusCode, fmt.Errorf("%w: content type %q", ErrUndecodable, mediaType))
	}

	if page.Kind == KindText && strings.TrimSpace(page.Text) == "" {
		return Page{}, false, nil
	}
	return page, true, nil
}

// decodeText converts the body to UTF-8. Without a declared charset the body
// must already be UTF-8.
func decodeText(body []byte, contentType string) (string, error) {
	var label string
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = strings.ToLower(params["charset"])
	}

	decoded := body
	if label != "" && label != "utf-8" && label != "utf8" {
		enc, _ := charset.Lookup(label)
		if enc == nil {
			return "", fmt.Errorf("%w: unsupported charset %q", ErrUndecodable, label)
		}
		var err error
		decoded, err = enc.NewDecoder().Bytes(body)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
	}

	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrUndecodable)
	}
	return strings.ReplaceAll(string(decoded), "\r\n", "\n"), nil
}

// extractHTMLText keeps the first <pre> block, where teletext mirrors put the
// 40-column page, falling back to the body text.
func extractHTMLText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	if pre := doc.Find("pre").First(); pre.Length() > 0 {
		return strings.Trim(pre.Text(), "\n"), nil
	}

	body := doc.Find("body")
	body.Find("script, style, noscript").Remove()
	return strings.TrimSpace(body.Text()), nil
}
