package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// sourceFlags select the teletext pages to fetch.
type sourceFlags struct {
	url       string
	channel   string
	startPage int
	endPage   int
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
	style       string
	assetPath   string
	title       string
}

// mailFlags holds message and server flags. Credentials come from the
// environment only.
type mailFlags struct {
	to      string
	subject string
	body    string
	host    string
	port    int
	tls     string
}

// logFlags holds logging output flags.
type logFlags struct {
	format string
	file   string
}

// runFlags holds all flags for the run command.
type runFlags struct {
	common     commonFlags
	source     sourceFlags
	page       pageFlags
	mail       mailFlags
	log        logFlags
	timeout    string
	archiveDir string
	output     string
	dryRun     bool
	showConfig bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addSourceFlags adds source flags to a FlagSet.
func addSourceFlags(fs *flag.FlagSet, f *sourceFlags) {
	fs.StringVar(&f.url, "source", "", "source URL, may contain {channel} and {page}")
	fs.StringVar(&f.channel, "channel", "", "teletext channel, e.g. CT1, CT2")
	fs.IntVar(&f.startPage, "start-page", 0, "first page (inclusive)")
	fs.IntVar(&f.endPage, "end-page", 0, "last page (exclusive)")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0.25-3.0)")
	fs.StringVar(&f.style, "style", "", "CSS style name")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.title, "title", "", "document title")
}

// addMailFlags adds mail flags to a FlagSet.
func addMailFlags(fs *flag.FlagSet, f *mailFlags) {
	fs.StringVar(&f.to, "to", "", "recipient address (overrides RECIPIENT_EMAIL)")
	fs.StringVar(&f.subject, "subject", "", "subject line, may contain {date} or {date:FORMAT}")
	fs.StringVar(&f.body, "body", "", "message body (Markdown)")
	fs.StringVar(&f.host, "smtp-host", "", "SMTP server host")
	fs.IntVar(&f.port, "smtp-port", 0, "SMTP server port")
	fs.StringVar(&f.tls, "smtp-tls", "", "SMTP TLS mode: ssl, starttls, none")
}

// addLogFlags adds logging flags to a FlagSet.
func addLogFlags(fs *flag.FlagSet, f *logFlags) {
	fs.StringVar(&f.format, "log-format", "", "log format: console, json")
	fs.StringVar(&f.file, "log-file", "", "write logs to a rotated file instead of stderr")
}

// parseRunFlags parses run command flags and returns positional args.
func parseRunFlags(args []string, usage io.Writer) (*runFlags, []string, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &runFlags{}

	fs.StringVarP(&f.timeout, "timeout", "t", "", "timeout per stage (e.g., 30s, 2m)")
	fs.StringVar(&f.archiveDir, "archive-dir", "", "also keep the PDF under this directory")
	fs.StringVarP(&f.output, "output", "o", "", "with --dry-run, write the PDF to this file or directory")
	fs.BoolVar(&f.dryRun, "dry-run", false, "fetch and render, but do not send")
	fs.BoolVar(&f.showConfig, "show-config", false, "print the resolved configuration and exit")

	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)
	addPageFlags(fs, &f.page)
	addMailFlags(fs, &f.mail)
	addLogFlags(fs, &f.log)

	fs.Usage = func() { printRunUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
