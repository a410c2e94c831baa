package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-teletext/internal/config"
)

// ErrInvalidEnv reports an environment variable that cannot be parsed.
var ErrInvalidEnv = errors.New("invalid environment variable")

// Credential variables, named as in the original .env files.
const (
	envSenderEmail    = "SENDER_EMAIL"
	envSenderPassword = "SENDER_PASSWORD"
	envRecipientEmail = "RECIPIENT_EMAIL"
)

// envPrefix marks variables owned by this tool.
const envPrefix = "TELETEXT_"

// envConfig holds configuration from environment variables.
type envConfig struct {
	ConfigPath string // TELETEXT_CONFIG

	// Source
	SourceURL string // TELETEXT_SOURCE_URL
	Channel   string // TELETEXT_CHANNEL
	StartPage int    // TELETEXT_START_PAGE
	EndPage   int    // TELETEXT_END_PAGE
	Timeout   string // TELETEXT_TIMEOUT: applies to every stage

	// Mail
	SMTPHost  string // TELETEXT_SMTP_HOST
	SMTPPort  int    // TELETEXT_SMTP_PORT
	SMTPTLS   string // TELETEXT_SMTP_TLS
	Subject   string // TELETEXT_SUBJECT
	Sender    string // SENDER_EMAIL
	Password  string // SENDER_PASSWORD
	Recipient string // RECIPIENT_EMAIL

	// Output
	ArchiveDir string // TELETEXT_ARCHIVE_DIR
	LogLevel   string // TELETEXT_LOG_LEVEL
	LogFormat  string // TELETEXT_LOG_FORMAT
	LogFile    string // TELETEXT_LOG_FILE
}

// knownEnvVars lists valid TELETEXT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"TELETEXT_CONFIG":      true,
	"TELETEXT_SOURCE_URL":  true,
	"TELETEXT_CHANNEL":     true,
	"TELETEXT_START_PAGE":  true,
	"TELETEXT_END_PAGE":    true,
	"TELETEXT_TIMEOUT":     true,
	"TELETEXT_SMTP_HOST":   true,
	"TELETEXT_SMTP_PORT":   true,
	"TELETEXT_SMTP_TLS":    true,
	"TELETEXT_SUBJECT":     true,
	"TELETEXT_ARCHIVE_DIR": true,
	"TELETEXT_LOG_LEVEL":   true,
	"TELETEXT_LOG_FORMAT":  true,
	"TELETEXT_LOG_FILE":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Integer variables that do not parse are reported as ErrInvalidEnv.
func loadEnvConfig(getenv func(string) string) (*envConfig, error) {
	cfg := &envConfig{
		ConfigPath: getenv("TELETEXT_CONFIG"),
		SourceURL:  getenv("TELETEXT_SOURCE_URL"),
		Channel:    getenv("TELETEXT_CHANNEL"),
		Timeout:    getenv("TELETEXT_TIMEOUT"),
		SMTPHost:   getenv("TELETEXT_SMTP_HOST"),
		SMTPTLS:    getenv("TELETEXT_SMTP_TLS"),
		Subject:    getenv("TELETEXT_SUBJECT"),
		Sender:     strings.TrimSpace(getenv(envSenderEmail)),
		Password:   getenv(envSenderPassword),
		Recipient:  strings.TrimSpace(getenv(envRecipientEmail)),
		ArchiveDir: getenv("TELETEXT_ARCHIVE_DIR"),
		LogLevel:   getenv("TELETEXT_LOG_LEVEL"),
		LogFormat:  getenv("TELETEXT_LOG_FORMAT"),
		LogFile:    getenv("TELETEXT_LOG_FILE"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"TELETEXT_START_PAGE", &cfg.StartPage},
		{"TELETEXT_END_PAGE", &cfg.EndPage},
		{"TELETEXT_SMTP_PORT", &cfg.SMTPPort},
	}
	for _, v := range ints {
		raw := strings.TrimSpace(getenv(v.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %s=%q must be a positive integer", ErrInvalidEnv, v.name, raw)
		}
		*v.dst = n
	}

	return cfg, nil
}

// warnUnknownEnvVars logs warnings for unrecognized TELETEXT_* variables.
// Helps catch typos like TELETEXT_CHANEL instead of TELETEXT_CHANNEL.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	var unknown []string
	for _, env := range environ {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name := strings.SplitN(env, "=", 2)[0]
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// toConfig returns the environment as a sparse config for Config.Merge.
func (e *envConfig) toConfig() *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			URL:       e.SourceURL,
			Channel:   e.Channel,
			StartPage: e.StartPage,
			EndPage:   e.EndPage,
			Timeout:   e.Timeout,
		},
		Render: config.RenderConfig{
			Timeout: e.Timeout,
		},
		Mail: config.MailConfig{
			Host:     e.SMTPHost,
			Port:     e.SMTPPort,
			TLS:      e.SMTPTLS,
			From:     e.Sender,
			Password: e.Password,
			To:       e.Recipient,
			Subject:  e.Subject,
			Timeout:  e.Timeout,
		},
		Output: config.OutputConfig{
			ArchiveDir: e.ArchiveDir,
		},
		Log: config.LogConfig{
			Level:  e.LogLevel,
			Format: e.LogFormat,
			File:   e.LogFile,
		},
	}
}

// toConfig returns the flags as a sparse config for Config.Merge.
func (f *runFlags) toConfig() *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			URL:       f.source.url,
			Channel:   f.source.channel,
			StartPage: f.source.startPage,
			EndPage:   f.source.endPage,
			Timeout:   f.timeout,
		},
		Render: config.RenderConfig{
			PageSize:    f.page.size,
			Orientation: f.page.orientation,
			Margin:      f.page.margin,
			Style:       f.page.style,
			AssetPath:   f.page.assetPath,
			Title:       f.page.title,
			Timeout:     f.timeout,
		},
		Mail: config.MailConfig{
			Host:    f.mail.host,
			Port:    f.mail.port,
			TLS:     f.mail.tls,
			To:      f.mail.to,
			Subject: f.mail.subject,
			Body:    f.mail.body,
			Timeout: f.timeout,
		},
		Output: config.OutputConfig{
			ArchiveDir: f.archiveDir,
		},
		Log: config.LogConfig{
			Format: f.log.format,
			File:   f.log.file,
		},
	}
}

// resolveConfig builds the effective configuration:
// CLI flags > environment > config file > defaults.
func resolveConfig(flags *runFlags, env *envConfig) (*config.Config, error) {
	name := flags.common.config
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	cfg.Merge(env.toConfig())
	cfg.Merge(flags.toConfig())

	switch {
	case flags.common.verbose:
		cfg.Log.Level = "debug"
	case flags.common.quiet:
		cfg.Log.Level = "error"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
