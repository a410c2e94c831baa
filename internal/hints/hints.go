// Package hints turns common failures into short, actionable suggestions.
// Every hint renders as "\n  hint: <text>" so it can be appended to an error.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-teletext/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ciVariables are set by the CI systems we know about.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

func inCI(getenv func(string) string) bool {
	for _, name := range ciVariables {
		if getenv(name) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect suggests rod environment variables when Chrome fails to start.
func ForBrowserConnect() string {
	return browserConnect(os.Getenv, IsInContainer())
}

func browserConnect(getenv func(string) string, container bool) string {
	var hints []string
	if (container || inCI(getenv)) && getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	return join(hints)
}

// ForTimeout suggests a longer stage timeout.
func ForTimeout() string {
	return line("for slow sources or many pages, use --timeout flag")
}

// ForConfigNotFound points at --config and, when searched, the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "/go-teletext/") {
			return line(hint + " or create " + p)
		}
	}
	return line(hint)
}

// ForMissingCredentials lists the environment variables a send needs.
func ForMissingCredentials() string {
	return line("set SENDER_EMAIL, SENDER_PASSWORD and RECIPIENT_EMAIL (a .env file works), or use --dry-run")
}

// ForSMTP returns hints for SMTP dial or authentication failures.
func ForSMTP(host string, port int) string {
	var hints []string
	if strings.HasSuffix(host, "seznam.cz") {
		hints = append(hints, "seznam.cz requires SMTP access enabled for the mailbox")
	}
	switch port {
	case 465:
		hints = append(hints, "port 465 expects --smtp-tls ssl")
	case 587:
		hints = append(hints, "port 587 expects --smtp-tls starttls")
	}
	if len(hints) == 0 {
		hints = append(hints, "check host, port and TLS mode")
	}
	return join(hints)
}

// ForSourceUnreachable returns hints for transport failures against the source.
func ForSourceUnreachable() string {
	return line("check network access or point --source at a reachable URL")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return line("check parent directory exists and is writable")
}

// ForStyleNotFound lists the built-in styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return line("available: " + strings.Join(available, ", "))
}

func line(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func join(hints []string) string {
	return line(strings.Join(hints, "; "))
}
