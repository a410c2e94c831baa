package main

import (
	"context"
	"errors"
	"fmt"

	teletext "github.com/alnah/go-teletext"
	"github.com/alnah/go-teletext/internal/assets"
	"github.com/alnah/go-teletext/internal/config"
	"github.com/alnah/go-teletext/internal/hints"
)

// Exit codes for the teletext2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and one code per
// pipeline stage.
const (
	ExitSuccess = 0 // Run completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, environment or config
	ExitFetch   = 3 // Teletext source failed
	ExitRender  = 4 // PDF rendering failed
	ExitSend    = 5 // Email delivery failed
)

// exitCodeFor returns the appropriate exit code for an error.
// Stage errors are matched with errors.As, so wrapping must use %w.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var fetchErr *teletext.FetchError
	var renderErr *teletext.RenderError
	var sendErr *teletext.SendError
	switch {
	case errors.As(err, &fetchErr):
		return ExitFetch
	case errors.As(err, &renderErr):
		return ExitRender
	case errors.As(err, &sendErr):
		return ExitSend
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidEnv) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, teletext.ErrInvalidURL) ||
		errors.Is(err, teletext.ErrInvalidPage) ||
		errors.Is(err, teletext.ErrInvalidPageSize) ||
		errors.Is(err, teletext.ErrInvalidOrientation) ||
		errors.Is(err, teletext.ErrInvalidMargin) ||
		errors.Is(err, teletext.ErrInvalidTLSMode) {
		return ExitUsage
	}

	return ExitGeneral
}

// withHint appends an actionable hint to err when one applies.
// smtp may be nil when no mail settings were resolved yet.
func withHint(err error, smtp *teletext.SMTPSettings, configName string) error {
	if hint := hintFor(err, smtp, configName); hint != "" {
		return fmt.Errorf("%w%s", err, hint)
	}
	return err
}

func hintFor(err error, smtp *teletext.SMTPSettings, configName string) string {
	var fetchErr *teletext.FetchError

	switch {
	case errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound) && configName != "":
		return hints.ForConfigNotFound(config.SearchedPaths(configName))
	case errors.Is(err, teletext.ErrMissingCredentials):
		return hints.ForMissingCredentials()
	case errors.Is(err, teletext.ErrSMTP) && smtp != nil:
		return hints.ForSMTP(smtp.Host, smtp.Port)
	case errors.Is(err, teletext.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.Styles())
	case errors.Is(err, ErrWritePDF):
		return hints.ForOutputDirectory()
	case errors.As(err, &fetchErr) && fetchErr.Status == 0 && !isSourceRejection(err):
		return hints.ForSourceUnreachable()
	}
	return ""
}

// isSourceRejection reports fetch errors raised after a response arrived
// or before any request was made.
func isSourceRejection(err error) bool {
	return errors.Is(err, teletext.ErrInvalidURL) ||
		errors.Is(err, teletext.ErrInvalidPage) ||
		errors.Is(err, teletext.ErrNoPages) ||
		errors.Is(err, teletext.ErrUndecodable) ||
		errors.Is(err, teletext.ErrPageTooBig)
}
