// Package config loads and validates the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	teletext "github.com/alnah/go-teletext"
	"github.com/alnah/go-teletext/internal/fileutil"
	"github.com/alnah/go-teletext/internal/logging"
	"github.com/alnah/go-teletext/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDirName is the directory searched under the user config dir.
const AppDirName = "go-teletext"

// Field length limits.
const (
	MaxURLLength         = 2048 // Browser limit
	MaxChannelLength     = 20   // "CT1", "CT2", "CT24"
	MaxHostLength        = 253  // DNS name
	MaxEmailLength       = 254  // RFC 5321
	MaxPasswordLength    = 256
	MaxSubjectLength     = 200
	MaxBodyLength        = 5000
	MaxPathLength        = 4096
	MaxPageSizeLength    = 10 // "letter", "a4", "legal"
	MaxOrientationLength = 10 // "portrait", "landscape"
	MaxStyleLength       = 64
	MaxTitleLength       = 100
)

// MaxPageSpan caps how many pages one run may request.
const MaxPageSpan = teletext.MaxPageNumber

// Config holds all configuration for a run.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Render RenderConfig `yaml:"render"`
	Mail   MailConfig   `yaml:"mail"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// SourceConfig defines where teletext pages are fetched from.
type SourceConfig struct {
	URL       string `yaml:"url"`       // template with {channel} and {page}, or a fixed URL
	Channel   string `yaml:"channel"`   // substituted for {channel}
	StartPage int    `yaml:"startPage"` // first page, inclusive
	EndPage   int    `yaml:"endPage"`   // last page, exclusive
	Timeout   string `yaml:"timeout"`   // per request, e.g. "30s"
}

// RenderConfig defines PDF layout options.
type RenderConfig struct {
	PageSize    string  `yaml:"pageSize"`    // "a4", "letter", "legal"
	Orientation string  `yaml:"orientation"` // "portrait", "landscape"
	Margin      float64 `yaml:"margin"`      // inches
	Style       string  `yaml:"style"`       // stylesheet name
	AssetPath   string  `yaml:"assetPath"`   // directory overriding embedded assets
	Title       string  `yaml:"title"`
	Timeout     string  `yaml:"timeout"`
}

// MailConfig defines the SMTP server and message. Credentials are usually
// supplied through the environment instead.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      string `yaml:"tls"` // "ssl", "starttls", "none"
	From     string `yaml:"from"`
	Password string `yaml:"password"`
	To       string `yaml:"to"`
	Subject  string `yaml:"subject"` // may contain {date} placeholders
	Body     string `yaml:"body"`
	Timeout  string `yaml:"timeout"`
}

// OutputConfig defines local copies of the PDF.
type OutputConfig struct {
	ArchiveDir string `yaml:"archiveDir"` // empty = no archive
}

// LogConfig defines logging options.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "console", "json"
	File       string `yaml:"file"`   // empty = stderr
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	ps := teletext.DefaultPageSettings()
	return &Config{
		Source: SourceConfig{
			URL:       teletext.DefaultSourceURL,
			Channel:   teletext.DefaultChannel,
			StartPage: teletext.DefaultStartPage,
			EndPage:   teletext.DefaultEndPage,
			Timeout:   teletext.DefaultTimeout.String(),
		},
		Render: RenderConfig{
			PageSize:    ps.Size,
			Orientation: ps.Orientation,
			Margin:      ps.Margin,
			Title:       teletext.DefaultTitle,
			Timeout:     teletext.DefaultTimeout.String(),
		},
		Mail: MailConfig{
			Host:    teletext.DefaultSMTPHost,
			Port:    teletext.DefaultSMTPPort,
			TLS:     string(teletext.TLSImplicit),
			Subject: teletext.DefaultSubject,
			Body:    teletext.DefaultBody,
			Timeout: teletext.DefaultTimeout.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// Merge overlays the non-zero fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	setString(&c.Source.URL, other.Source.URL)
	setString(&c.Source.Channel, other.Source.Channel)
	setInt(&c.Source.StartPage, other.Source.StartPage)
	setInt(&c.Source.EndPage, other.Source.EndPage)
	setString(&c.Source.Timeout, other.Source.Timeout)

	setString(&c.Render.PageSize, other.Render.PageSize)
	setString(&c.Render.Orientation, other.Render.Orientation)
	if other.Render.Margin != 0 {
		c.Render.Margin = other.Render.Margin
	}
	setString(&c.Render.Style, other.Render.Style)
	setString(&c.Render.AssetPath, other.Render.AssetPath)
	setString(&c.Render.Title, other.Render.Title)
	setString(&c.Render.Timeout, other.Render.Timeout)

	setString(&c.Mail.Host, other.Mail.Host)
	setInt(&c.Mail.Port, other.Mail.Port)
	setString(&c.Mail.TLS, other.Mail.TLS)
	setString(&c.Mail.From, other.Mail.From)
	setString(&c.Mail.Password, other.Mail.Password)
	setString(&c.Mail.To, other.Mail.To)
	setString(&c.Mail.Subject, other.Mail.Subject)
	setString(&c.Mail.Body, other.Mail.Body)
	setString(&c.Mail.Timeout, other.Mail.Timeout)

	setString(&c.Output.ArchiveDir, other.Output.ArchiveDir)

	setString(&c.Log.Level, other.Log.Level)
	setString(&c.Log.Format, other.Log.Format)
	setString(&c.Log.File, other.Log.File)
	setInt(&c.Log.MaxSizeMB, other.Log.MaxSizeMB)
	setInt(&c.Log.MaxBackups, other.Log.MaxBackups)
	setInt(&c.Log.MaxAgeDays, other.Log.MaxAgeDays)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate checks lengths, ranges and enumerations.
// Called automatically by LoadConfig, and by the CLI after flags and
// environment have been applied.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"source.url", c.Source.URL, MaxURLLength},
		{"source.channel", c.Source.Channel, MaxChannelLength},
		{"render.pageSize", c.Render.PageSize, MaxPageSizeLength},
		{"render.orientation", c.Render.Orientation, MaxOrientationLength},
		{"render.style", c.Render.Style, MaxStyleLength},
		{"render.assetPath", c.Render.AssetPath, MaxPathLength},
		{"render.title", c.Render.Title, MaxTitleLength},
		{"mail.host", c.Mail.Host, MaxHostLength},
		{"mail.from", c.Mail.From, MaxEmailLength},
		{"mail.password", c.Mail.Password, MaxPasswordLength},
		{"mail.to", c.Mail.To, MaxEmailLength},
		{"mail.subject", c.Mail.Subject, MaxSubjectLength},
		{"mail.body", c.Mail.Body, MaxBodyLength},
		{"output.archiveDir", c.Output.ArchiveDir, MaxPathLength},
		{"log.file", c.Log.File, MaxPathLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	if err := c.validateSource(); err != nil {
		return err
	}

	if c.Render.PageSize != "" || c.Render.Orientation != "" || c.Render.Margin != 0 {
		if err := c.PageSettings().Validate(); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	if c.Mail.Port != 0 && (c.Mail.Port < 1 || c.Mail.Port > 65535) {
		return fmt.Errorf("%w: mail.port must be between 1 and 65535, got %d", ErrInvalidValue, c.Mail.Port)
	}
	if c.Mail.TLS != "" {
		if _, err := teletext.ParseTLSMode(c.Mail.TLS); err != nil {
			return fmt.Errorf("mail.tls: %w", err)
		}
	}

	for field, value := range map[string]string{
		"source.timeout": c.Source.Timeout,
		"render.timeout": c.Render.Timeout,
		"mail.timeout":   c.Mail.Timeout,
	} {
		if _, err := parseTimeout(field, value); err != nil {
			return err
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidValue, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalidValue, c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("%w: log rotation values cannot be negative", ErrInvalidValue)
	}

	return nil
}

func (c *Config) validateSource() error {
	s := c.Source
	if s.StartPage != 0 || s.EndPage != 0 {
		if s.StartPage <= 0 || s.EndPage <= s.StartPage {
			return fmt.Errorf("%w: source page range [%d, %d) must satisfy 0 < startPage < endPage",
				ErrInvalidValue, s.StartPage, s.EndPage)
		}
		if s.EndPage-s.StartPage > MaxPageSpan {
			return fmt.Errorf("%w: source page range spans %d pages (max %d)",
				ErrInvalidValue, s.EndPage-s.StartPage, MaxPageSpan)
		}
	}
	if s.URL == "" {
		return nil
	}
	if err := c.SourceSpec().Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// parseTimeout parses a duration field. Empty means "use the default" and
// returns zero.
func parseTimeout(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, field, value)
	}
	return d, nil
}

// SourceSpec returns the fetcher source described by the config.
func (c *Config) SourceSpec() teletext.Source {
	return teletext.Source{
		URL:       c.Source.URL,
		Channel:   c.Source.Channel,
		StartPage: c.Source.StartPage,
		EndPage:   c.Source.EndPage,
	}
}

// PageSettings returns the render page settings, filling unset fields with defaults.
func (c *Config) PageSettings() *teletext.PageSettings {
	ps := teletext.DefaultPageSettings()
	if c.Render.PageSize != "" {
		ps.Size = strings.ToLower(c.Render.PageSize)
	}
	if c.Render.Orientation != "" {
		ps.Orientation = strings.ToLower(c.Render.Orientation)
	}
	if c.Render.Margin != 0 {
		ps.Margin = c.Render.Margin
	}
	return ps
}

// SMTPSettings returns the mail server settings. Invalid values have
// already been rejected by Validate.
func (c *Config) SMTPSettings() teletext.SMTPSettings {
	s := teletext.DefaultSMTPSettings()
	if c.Mail.Host != "" {
		s.Host = c.Mail.Host
	}
	if c.Mail.Port != 0 {
		s.Port = c.Mail.Port
	}
	if mode, err := teletext.ParseTLSMode(c.Mail.TLS); err == nil {
		s.TLS = mode
	}
	s.Username = c.Mail.From
	s.Password = c.Mail.Password
	if d, _ := parseTimeout("mail.timeout", c.Mail.Timeout); d > 0 {
		s.Timeout = d
	}
	return s
}

// SourceTimeout returns the per-request fetch timeout.
func (c *Config) SourceTimeout() time.Duration {
	return durationOrDefault(c.Source.Timeout)
}

// RenderTimeout returns the render timeout.
func (c *Config) RenderTimeout() time.Duration {
	return durationOrDefault(c.Render.Timeout)
}

func durationOrDefault(value string) time.Duration {
	if d, _ := parseTimeout("", value); d > 0 {
		return d
	}
	return teletext.DefaultTimeout
}

// LoggingConfig returns the logging settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// The file is merged over DefaultConfig but not validated: callers merge
// environment and flags first, then call Validate. Returns error if the
// file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fromFile Config
	if err := yamlutil.UnmarshalStrict(data, &fromFile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	cfg := DefaultConfig()
	cfg.Merge(&fromFile)
	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-teletext/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, AppDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// SearchedPaths lists the locations resolveConfigPath would try for name.
func SearchedPaths(name string) []string {
	paths := []string{name + ".yaml", name + ".yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, AppDirName, name+".yaml"),
			filepath.Join(dir, AppDirName, name+".yml"))
	}
	return paths
}

// redactedPassword replaces the mail password in printed configuration.
const redactedPassword = "********"

// YAML renders the configuration with the mail password redacted.
func (c *Config) YAML() ([]byte, error) {
	printable := *c
	if printable.Mail.Password != "" {
		printable.Mail.Password = redactedPassword
	}
	return yamlutil.Marshal(&printable)
}
