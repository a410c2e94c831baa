package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-teletext/internal/fileutil"
)

// Doctor statuses, worst last.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult is what doctor found, printed as text or JSON.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Mail     mailInfo   `json:"mail"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// mailInfo reports which credential variables are set. Values are never shown.
type mailInfo struct {
	Sender    bool `json:"sender_email"`
	Password  bool `json:"sender_password"`
	Recipient bool `json:"recipient_email"`
}

func (r *doctorResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorResult) failf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// runDoctorCmd prints the diagnosis. Warnings exit 0, errors exit 1.
func runDoctorCmd(args []string, env *Environment) int {
	result := runDoctor(env)

	if hasFlag(args, "--json") {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}

// doctorChecks run in order; later checks may read what earlier ones set.
var doctorChecks = []func(*doctorResult, *Environment){
	checkEnvironment,
	checkChrome,
	checkTempDir,
	checkMail,
}

func runDoctor(env *Environment) *doctorResult {
	r := &doctorResult{
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.getenv("ROD_BROWSER_BIN"),
		},
	}
	for _, check := range doctorChecks {
		check(r, env)
	}

	switch {
	case len(r.Errors) > 0:
		r.Status = statusErrors
	case len(r.Warnings) > 0:
		r.Status = statusWarnings
	default:
		r.Status = statusReady
	}
	return r
}

// checkChrome locates the browser rod will launch and asks for its version.
func checkChrome(r *doctorResult, _ *Environment) {
	bin := r.Env.BrowserBin
	if bin == "" {
		path, ok := launcher.LookPath()
		if !ok {
			r.failf("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
		bin = path
	}
	if !fileutil.FileExists(bin) {
		r.failf("Chrome not found at %s", bin)
		return
	}

	r.Chrome = chromeInfo{Found: true, Path: bin, Sandbox: r.Env.NoSandbox != "1"}

	// #nosec G204 -- bin comes from ROD_BROWSER_BIN or rod's lookup
	out, err := exec.Command(bin, "--version").Output()
	if err != nil {
		r.warnf("Could not get Chrome version: %v", err)
		return
	}
	r.Chrome.Version = strings.TrimSpace(string(out))
}

var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// checkEnvironment flags container and CI runs, where Chrome's sandbox
// usually cannot start.
func checkEnvironment(r *doctorResult, env *Environment) {
	r.Env.Container, r.Env.ContainerHint = detectContainer(env)
	for _, name := range ciVariables {
		if env.getenv(name) != "" {
			r.Env.CI = true
			break
		}
	}

	if (r.Env.Container || r.Env.CI) && r.Env.NoSandbox != "1" {
		r.warnf("Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// detectContainer returns whether a container signal is present and which one.
func detectContainer(env *Environment) (bool, string) {
	switch {
	case env.getenv("TELETEXT_CONTAINER") == "1":
		return true, "TELETEXT_CONTAINER=1"
	case fileutil.FileExists("/.dockerenv"):
		return true, "/.dockerenv"
	case env.getenv("container") != "":
		return true, "container=" + env.getenv("container")
	case env.getenv("KUBERNETES_SERVICE_HOST") != "":
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkTempDir writes a probe where the renderer puts its intermediate HTML.
func checkTempDir(r *doctorResult, _ *Environment) {
	dir := os.TempDir()
	probe := filepath.Join(dir, fileutil.TempPrefix+"doctor-test")
	if err := os.WriteFile(probe, []byte("probe"), 0o600); err != nil {
		r.failf("Temp directory not writable: %s", dir)
		return
	}
	_ = os.Remove(probe)
	r.System.TempWritable = true
}

// checkMail warns about missing credentials; --dry-run works without them.
func checkMail(r *doctorResult, env *Environment) {
	vars := []struct {
		name string
		set  *bool
	}{
		{envSenderEmail, &r.Mail.Sender},
		{envSenderPassword, &r.Mail.Password},
		{envRecipientEmail, &r.Mail.Recipient},
	}

	var missing []string
	for _, v := range vars {
		*v.set = env.getenv(v.name) != ""
		if !*v.set {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		r.warnf("%s not set. Sending will fail; --dry-run still works", strings.Join(missing, ", "))
	}
}

// reportLine is one "[TAG] text" row of the human output.
type reportLine struct {
	tag  string
	text string
}

func okLine(format string, args ...any) reportLine {
	return reportLine{"OK", fmt.Sprintf(format, args...)}
}

func printSection(w io.Writer, title string, lines []reportLine) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, l := range lines {
		fmt.Fprintf(w, "  [%s] %s\n", l.tag, l.text)
	}
	fmt.Fprintln(w)
}

func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "teletext2pdf doctor")
	fmt.Fprintln(w)

	var chrome []reportLine
	if r.Chrome.Found {
		chrome = append(chrome, okLine("Found at %s", r.Chrome.Path))
		if r.Chrome.Version != "" {
			chrome = append(chrome, okLine("Version: %s", r.Chrome.Version))
		}
		if r.Chrome.Sandbox {
			chrome = append(chrome, okLine("Sandbox: enabled"))
		} else {
			chrome = append(chrome, okLine("Sandbox: disabled (ROD_NO_SANDBOX=1)"))
		}
	} else {
		chrome = append(chrome, reportLine{"ERROR", "Not found"})
	}
	printSection(w, "Chrome/Chromium", chrome)

	environment := []reportLine{okLine("Platform: %s/%s", r.Env.OS, r.Env.Arch)}
	if r.Env.Container {
		environment = append(environment, okLine("Container: detected (%s)", r.Env.ContainerHint))
	}
	if r.Env.CI {
		environment = append(environment, okLine("CI: detected"))
	}
	printSection(w, "Environment", environment)

	temp := reportLine{"ERROR", "Temp directory: not writable"}
	if r.System.TempWritable {
		temp = okLine("Temp directory: writable")
	}
	printSection(w, "System", []reportLine{temp})

	printSection(w, "Mail", []reportLine{
		presence(envSenderEmail, r.Mail.Sender),
		presence(envSenderPassword, r.Mail.Password),
		presence(envRecipientEmail, r.Mail.Recipient),
	})

	printSection(w, "Warnings:", tagged("WARN", r.Warnings))
	printSection(w, "Errors:", tagged("ERROR", r.Errors))

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to run")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func presence(name string, set bool) reportLine {
	if set {
		return okLine("%s: set", name)
	}
	return reportLine{"WARN", name + ": not set"}
}

func tagged(tag string, texts []string) []reportLine {
	lines := make([]reportLine, 0, len(texts))
	for _, t := range texts {
		lines = append(lines, reportLine{tag, t})
	}
	return lines
}
