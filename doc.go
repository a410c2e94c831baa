// Package teletext fetches teletext pages, lays them out as a PDF with
// headless Chrome and emails the PDF to one recipient.
//
// # Quick Start
//
// Wire the three stages into a Pipeline and run it once:
//
//	fetcher := teletext.NewFetcher(teletext.DefaultSource())
//
//	renderer := teletext.NewRenderer()
//	defer renderer.Close()
//
//	mailer := teletext.NewMailer(teletext.SMTPSettings{
//	    Host:     teletext.DefaultSMTPHost,
//	    Port:     teletext.DefaultSMTPPort,
//	    TLS:      teletext.TLSImplicit,
//	    Username: os.Getenv("SENDER_EMAIL"),
//	    Password: os.Getenv("SENDER_PASSWORD"),
//	})
//
//	p := teletext.NewPipeline(fetcher, renderer, mailer, os.Getenv("RECIPIENT_EMAIL"))
//	report, err := p.Run(ctx)
//
// # Pipeline
//
// Stages run strictly in order and the first failure stops the run:
//
//  1. Fetch: one GET per page, no retries. Non-2xx pages, undecodable
//     bodies and blank images are skipped. A transport failure aborts.
//  2. Render: one PDF page per teletext page. Text keeps its line layout
//     in a monospace block, images are embedded as-is.
//  3. Send: a go-mail message with a plain text body, a Markdown-rendered
//     HTML alternative and the PDF attached.
//
// # Sources
//
// A Source URL may contain {channel} and {page}. When {page} is present,
// every page in [StartPage, EndPage) is requested; otherwise the URL is
// fetched once. The default source is the Czech Television picture API.
//
// # Errors
//
// Each stage reports its own type: *FetchError, *RenderError or *SendError.
// Use errors.As to tell the stage apart and errors.Is with the sentinels
// (ErrHTTPStatus, ErrEmptyContent, ErrBrowserConnect, ErrSMTP, ...) for
// the cause.
//
// # Browser
//
// Rendering uses go-rod. Set ROD_BROWSER_BIN to pick a Chrome binary and
// ROD_NO_SANDBOX=1 inside containers. Always Close the renderer to stop
// the browser process.
package teletext
