package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	teletext "github.com/alnah/go-teletext"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	teletext.UserAgent = "go-teletext/" + Version

	env := DefaultEnv()
	loadDotEnv(env.Stderr, ".env.local", ".env")

	os.Exit(runMain(os.Args, env))
}

// loadDotEnv loads the given files in order. Variables already set win,
// so earlier files take precedence. Missing files are ignored.
func loadDotEnv(w io.Writer, files ...string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(w, "warning: loading %s: %v\n", f, err)
		}
	}
}

// commands lists the recognized subcommands.
var commands = []string{"run", "doctor", "version", "help"}

// isCommand reports whether arg names a subcommand.
func isCommand(arg string) bool {
	for _, c := range commands {
		if arg == c {
			return true
		}
	}
	return false
}

// runMain dispatches to a command and returns the process exit code.
// Without a command, or when the first argument is a flag, "run" is assumed.
func runMain(args []string, env *Environment) int {
	cmd, rest := "run", args[1:]
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		cmd, rest = rest[0], rest[1:]
	}

	switch cmd {
	case "run":
		ctx, stop := notifyContext(context.Background())
		defer stop()
		return reportError(env, runPipeline(ctx, rest, env))
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version":
		fmt.Fprintf(env.Stdout, "teletext2pdf %s\n", Version)
		return ExitSuccess
	case "help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// reportError prints err to stderr and maps it to an exit code.
func reportError(env *Environment, err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	fmt.Fprintf(env.Stderr, "error: %v\n", err)
	return exitCodeFor(err)
}
