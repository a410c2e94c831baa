package teletext

// Notes:
// - Every test runs against an httptest.Server; nothing reaches the network.
// - The transport failure case uses a server that is closed before the fetch.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestSource_Validate
// ---------------------------------------------------------------------------

func TestSource_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  Source
		wantErr error
	}{
		{"default", DefaultSource(), nil},
		{"fixed url", Source{URL: "https://example.com/news.txt"}, nil},
		{"empty url", Source{}, ErrInvalidURL},
		{"ftp scheme", Source{URL: "ftp://example.com/x"}, ErrInvalidURL},
		{"missing host", Source{URL: "http:///x"}, ErrInvalidURL},
		{"channel placeholder without channel", Source{URL: "https://x.cz/?c={channel}"}, ErrInvalidURL},
		{"start below 100", Source{URL: "https://x.cz/{page}", StartPage: 99, EndPage: 120}, ErrInvalidPage},
		{"end above 900", Source{URL: "https://x.cz/{page}", StartPage: 100, EndPage: 901}, ErrInvalidPage},
		{"empty range", Source{URL: "https://x.cz/{page}", StartPage: 120, EndPage: 120}, ErrInvalidPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.source.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSource_Targets(t *testing.T) {
	t.Parallel()

	s := Source{URL: "https://x.cz/p.php?channel={channel}&page={page}", Channel: "CT 2", StartPage: 100, EndPage: 103}
	got := s.targets()

	if len(got) != 3 {
		t.Fatalf("targets = %d, want 3", len(got))
	}
	if got[0].page != 100 || got[2].page != 102 {
		t.Errorf("pages = %d..%d, want 100..102", got[0].page, got[2].page)
	}
	if got[1].url != "https://x.cz/p.php?channel=CT+2&page=101" {
		t.Errorf("url = %q", got[1].url)
	}

	fixed := Source{URL: "https://x.cz/news"}.targets()
	if len(fixed) != 1 || fixed[0].page != 0 {
		t.Errorf("fixed source targets = %+v, want one unnumbered target", fixed)
	}
}

// ---------------------------------------------------------------------------
// TestHTTPFetcher_Fetch - Single URL
// ---------------------------------------------------------------------------

func TestHTTPFetcher_Fetch_PlainText(t *testing.T) {
	t.Parallel()

	var (
		mu        sync.Mutex
		userAgent string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		userAgent = r.Header.Get("User-Agent")
		mu.Unlock()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "BBC NEWS: headline 1\r\n")
	}))
	defer srv.Close()

	pages, err := NewFetcher(Source{URL: srv.URL}).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	p := pages[0]
	if p.Kind != KindText || p.Number != 0 {
		t.Errorf("page = %+v, want unnumbered text page", p)
	}
	if p.Text != "BBC NEWS: headline 1\n" {
		t.Errorf("Text = %q", p.Text)
	}
	if p.ContentType != "text/plain" {
		t.Errorf("ContentType = %q, want text/plain", p.ContentType)
	}
	mu.Lock()
	defer mu.Unlock()
	if userAgent != UserAgent {
		t.Errorf("User-Agent = %q, want %q", userAgent, UserAgent)
	}
}

func TestHTTPFetcher_Fetch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    error
		wantStatus int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr:    ErrHTTPStatus,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
			wantErr:    ErrHTTPStatus,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "invalid utf-8",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte{'o', 'k', 0xff, 0xfe})
			},
			wantErr:    ErrUndecodable,
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown charset",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain; charset=x-klingon")
				fmt.Fprint(w, "qapla")
			},
			wantErr:    ErrUndecodable,
			wantStatus: http.StatusOK,
		},
		{
			name: "binary content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = w.Write([]byte{0, 1, 2})
			},
			wantErr:    ErrUndecodable,
			wantStatus: http.StatusOK,
		},
		{
			name: "corrupt image",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				fmt.Fprint(w, "not a png")
			},
			wantErr:    ErrUndecodable,
			wantStatus: http.StatusOK,
		},
		{
			name: "whitespace only",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, " \n\t ")
			},
			wantErr: ErrNoPages,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			pages, err := NewFetcher(Source{URL: srv.URL}).Fetch(context.Background())
			if pages != nil {
				t.Errorf("pages = %v, want nil", pages)
			}

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %T %v, want *FetchError", err, err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if fe.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", fe.Status, tt.wantStatus)
			}
		})
	}
}

func TestHTTPFetcher_Fetch_TooLarge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", MaxPageBytes+1)))
	}))
	defer srv.Close()

	_, err := NewFetcher(Source{URL: srv.URL}).Fetch(context.Background())
	if !errors.Is(err, ErrPageTooBig) {
		t.Errorf("error = %v, want ErrPageTooBig", err)
	}
}

func TestHTTPFetcher_Fetch_Charset(t *testing.T) {
	t.Parallel()

	// "ČT zprávy" in windows-1250
	body := []byte{0xC8, 'T', ' ', 'z', 'p', 'r', 0xE1, 'v', 'y'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=windows-1250")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	pages, err := NewFetcher(Source{URL: srv.URL}).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pages[0].Text != "ČT zprávy" {
		t.Errorf("Text = %q, want %q", pages[0].Text, "ČT zprávy")
	}
}

func TestHTTPFetcher_Fetch_HTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "pre block wins",
			markup: "<html><body><h1>CT</h1><pre>\n 101  ZPRAVY\n 102  SPORT\n</pre></body></html>",
			want:   " 101  ZPRAVY\n 102  SPORT",
		},
		{
			name:   "body text without scripts",
			markup: "<html><head><style>p{}</style></head><body><script>x()</script><p>Headline</p></body></html>",
			want:   "Headline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				fmt.Fprint(w, tt.markup)
			}))
			defer srv.Close()

			pages, err := NewFetcher(Source{URL: srv.URL}).Fetch(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pages[0].Kind != KindText || pages[0].Text != tt.want {
				t.Errorf("page = %q (%s), want %q", pages[0].Text, pages[0].Kind, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHTTPFetcher_Fetch - Page Ranges
// ---------------------------------------------------------------------------

func TestHTTPFetcher_Fetch_PageRange(t *testing.T) {
	t.Parallel()

	mixed := pngImage(t, 8, 8, true)
	blank := pngImage(t, 8, 8, false)

	var (
		mu        sync.Mutex
		requested []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Query().Get("channel")+"/"+r.URL.Query().Get("page"))
		mu.Unlock()
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 100:
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(mixed)
		case 101:
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(blank)
		case 102:
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "page %d", page)
		}
	}))
	defer srv.Close()

	source := Source{
		URL:       srv.URL + "/picture.php?channel={channel}&page={page}",
		Channel:   "CT2",
		StartPage: 100,
		EndPage:   104,
	}
	pages, err := NewFetcher(source).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(requested) != 4 || requested[0] != "CT2/100" || requested[3] != "CT2/103" {
		t.Errorf("requested = %v, want CT2/100..CT2/103", requested)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2 (blank and missing pages skipped)", len(pages))
	}
	if pages[0].Number != 100 || pages[0].Kind != KindImage || len(pages[0].Image) != len(mixed) {
		t.Errorf("first page = %d %s, want image page 100", pages[0].Number, pages[0].Kind)
	}
	if pages[1].Number != 103 || pages[1].Text != "page 103" {
		t.Errorf("second page = %d %q, want text page 103", pages[1].Number, pages[1].Text)
	}
}

func TestHTTPFetcher_Fetch_AllMissingReturnsFirstFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "100" {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	source := Source{URL: srv.URL + "/?page={page}", StartPage: 100, EndPage: 103}
	_, err := NewFetcher(source).Fetch(context.Background())

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Page != 100 || fe.Status != http.StatusGone {
		t.Errorf("first failure = page %d status %d, want page 100 status 410", fe.Page, fe.Status)
	}
}

func TestHTTPFetcher_Fetch_TransportErrorAborts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	source := Source{URL: url + "/?page={page}", StartPage: 100, EndPage: 110}
	_, err := NewFetcher(source, WithFetchTimeout(2*time.Second)).Fetch(context.Background())

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Page != 100 {
		t.Errorf("aborted at page %d, want 100", fe.Page)
	}
	if isPageLevel(err) {
		t.Error("transport error should not be page level")
	}
}

func TestHTTPFetcher_Fetch_InvalidSource(t *testing.T) {
	t.Parallel()

	_, err := NewFetcher(Source{URL: "https://x.cz/{page}", StartPage: 1, EndPage: 2}).Fetch(context.Background())
	if !errors.Is(err, ErrInvalidPage) {
		t.Errorf("error = %v, want ErrInvalidPage", err)
	}
}

func TestHTTPFetcher_Fetch_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "never used")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(Source{URL: srv.URL}).Fetch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestFetcherOptions
// ---------------------------------------------------------------------------

func TestWithFetchTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero timeout")
		}
	}()
	WithFetchTimeout(0)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	client := &http.Client{Timeout: time.Second}
	f := NewFetcher(DefaultSource(), WithHTTPClient(client), WithFetcherLogger(nil))

	if f.client != client {
		t.Error("custom client not installed")
	}
	if f.logger == nil {
		t.Error("nil logger option should keep the default")
	}

	f = NewFetcher(DefaultSource(), WithHTTPClient(nil))
	if f.client == nil {
		t.Error("nil client option should keep the default")
	}
}
