// Package dateutil provides date format parsing and date placeholder expansion.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength caps user-supplied formats.
const MaxDateFormatLength = 50

// DefaultDateFormat is used by a bare {date} placeholder.
const DefaultDateFormat = "YYYY-MM-DD"

// StampFormat names archived files, e.g. 20261015_073000.
const StampFormat = "YYYYMMDD_HHmmss"

// dateTokens is ordered longest first. Matching is case-sensitive: MM is the
// month, mm the minute.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"czech":    "D. M. YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
	"stamp":    StampFormat,
}

// ParseDateFormat converts a format such as "DD/MM/YYYY HH:mm" to a Go layout.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, HH, mm, ss. Text inside
// brackets is copied literally, so "[Page] D" keeps "Page".
func ParseDateFormat(format string) (string, error) {
	switch {
	case format == "":
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	case len(format) > MaxDateFormatLength:
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var layout strings.Builder
	for rest := format; rest != ""; {
		if rest[0] == '[' {
			literal, after, found := strings.Cut(rest[1:], "]")
			if !found {
				pos := len(format) - len(rest)
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, pos)
			}
			layout.WriteString(literal)
			rest = after
			continue
		}

		token, goFmt := matchToken(rest)
		if token == "" {
			layout.WriteByte(rest[0])
			rest = rest[1:]
			continue
		}
		layout.WriteString(goFmt)
		rest = rest[len(token):]
	}
	return layout.String(), nil
}

// matchToken returns the longest token prefixing s and its Go layout.
func matchToken(s string) (token, goFmt string) {
	for _, t := range dateTokens {
		if strings.HasPrefix(s, t.token) {
			return t.token, t.goFmt
		}
	}
	return "", ""
}

// Format renders t with a user-friendly format or preset name.
func Format(format string, t time.Time) (string, error) {
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}
	goFmt, err := ParseDateFormat(format)
	if err != nil {
		return "", err
	}
	return t.Format(goFmt), nil
}

// Expand replaces {date} and {date:FORMAT} placeholders in s.
//   - "{date}" → t in YYYY-MM-DD
//   - "{date:european}" → t using a named preset
//   - "{date:HH:mm}" → t using a custom format
//
// Text outside placeholders is returned unchanged.
func Expand(s string, t time.Time) (string, error) {
	const open = "{date"

	var out strings.Builder
	rest := s
	for {
		idx := strings.Index(rest, open)
		if idx == -1 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:idx])
		rest = rest[idx+len(open):]

		end := strings.Index(rest, "}")
		if end == -1 {
			return "", fmt.Errorf("%w: unclosed {date placeholder", ErrInvalidDateFormat)
		}
		spec := rest[:end]
		rest = rest[end+1:]

		format := DefaultDateFormat
		switch {
		case spec == "":
		case strings.HasPrefix(spec, ":") && len(spec) > 1:
			format = spec[1:]
		default:
			return "", fmt.Errorf("%w: invalid placeholder {date%s}", ErrInvalidDateFormat, spec)
		}

		formatted, err := Format(format, t)
		if err != nil {
			return "", err
		}
		out.WriteString(formatted)
	}
}
