package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	teletext "github.com/alnah/go-teletext"
	"github.com/alnah/go-teletext/internal/assets"
	"github.com/alnah/go-teletext/internal/fileutil"
	"github.com/alnah/go-teletext/internal/logging"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage    = errors.New("invalid usage")
	ErrWritePDF = errors.New("failed to write PDF file")
)

// runPipeline executes the run command: fetch, render, send.
func runPipeline(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRunFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, positional[0])
	}
	if flags.output != "" && !flags.dryRun {
		return fmt.Errorf("%w: --output requires --dry-run", ErrUsage)
	}

	warnUnknownEnvVars(env.Stderr, env.environ())
	envCfg, err := loadEnvConfig(env.getenv)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(flags, envCfg)
	if err != nil {
		return withHint(err, nil, configName(flags, envCfg))
	}
	if flags.showConfig {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(out)
		return err
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Writer = env.Stderr
	logger, closeLog, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	defer func() { _ = closeLog() }()

	loader, err := assets.NewAssetResolver(cfg.Render.AssetPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if loader.HasCustomLoader() {
		logger.Debug("using custom assets", zap.String("path", cfg.Render.AssetPath))
	}

	fetcher := teletext.NewFetcher(cfg.SourceSpec(),
		teletext.WithFetchTimeout(cfg.SourceTimeout()),
		teletext.WithFetcherLogger(logger),
	)

	renderer := teletext.NewRenderer(
		teletext.WithPageSettings(cfg.PageSettings()),
		teletext.WithRenderTimeout(cfg.RenderTimeout()),
		teletext.WithAssetLoader(loader),
		teletext.WithStyle(cfg.Render.Style),
		teletext.WithTitle(cfg.Render.Title),
		teletext.WithClock(env.now),
		teletext.WithRendererLogger(logger),
	)
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Warn("closing renderer", zap.Error(err))
		}
	}()

	smtp := cfg.SMTPSettings()
	var mailer teletext.Mailer
	if !flags.dryRun {
		mailer = teletext.NewMailer(smtp,
			teletext.WithSubject(cfg.Mail.Subject),
			teletext.WithBody(cfg.Mail.Body),
			teletext.WithMailerClock(env.now),
			teletext.WithMailerLogger(logger),
		)
	}

	pipeline := teletext.NewPipeline(fetcher, renderer, mailer, cfg.Mail.To,
		teletext.WithArchiveDir(cfg.Output.ArchiveDir),
		teletext.WithDryRun(flags.dryRun),
		teletext.WithPipelineLogger(logger),
	)

	report, err := pipeline.Run(ctx)
	if err != nil {
		return withHint(err, &smtp, "")
	}

	if flags.dryRun && flags.output != "" {
		path, err := writeOutput(flags.output, report.Document)
		if err != nil {
			return withHint(err, nil, "")
		}
		report.ArchivePath = path
	}

	if !flags.common.quiet {
		printReport(env, report, flags.dryRun)
	}
	return nil
}

// configName returns the config name the run tried to load.
func configName(flags *runFlags, env *envConfig) string {
	if flags.common.config != "" {
		return flags.common.config
	}
	return env.ConfigPath
}

// writeOutput writes the PDF to output. An existing directory, or a path
// ending in a separator, receives the document under its generated name.
func writeOutput(output string, doc *teletext.Document) (string, error) {
	dir, name := filepath.Split(output)
	if info, err := os.Stat(output); (err == nil && info.IsDir()) || name == "" {
		dir, name = output, doc.Filename
	}
	if dir == "" {
		dir = "."
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}

	path, err := fileutil.WriteInDir(dir, name, doc.PDF)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWritePDF, err)
	}
	return path, nil
}

// printReport prints a one-line summary of the run.
func printReport(env *Environment, r *teletext.Report, dryRun bool) {
	size := float64(r.PDFBytes) / 1024
	switch {
	case dryRun && r.ArchivePath != "":
		fmt.Fprintf(env.Stdout, "rendered %d teletext page(s) to %s (%.1f KB)\n", r.Sections, r.ArchivePath, size)
	case dryRun:
		fmt.Fprintf(env.Stdout, "rendered %d teletext page(s) (%.1f KB), not sent\n", r.Sections, size)
	default:
		fmt.Fprintf(env.Stdout, "sent %d teletext page(s) to %s (%.1f KB)\n", r.Sections, r.Recipient, size)
	}
}
