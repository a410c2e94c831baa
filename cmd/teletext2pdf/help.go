package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: teletext2pdf [command] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch teletext pages, render them to one PDF and email it.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run        Fetch, render and send (default)")
	fmt.Fprintln(w, "  doctor     Check Chrome, environment and mail settings")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'teletext2pdf help <command>' for details on a specific command.")
}

// printRunUsage prints usage for the run command.
func printRunUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: teletext2pdf [run] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch teletext pages, render them to one PDF and email it.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Source:")
	fmt.Fprintln(w, "      --source <url>        URL template with {channel} and {page}, or a fixed URL")
	fmt.Fprintln(w, "      --channel <s>         Channel substituted for {channel} (default CT2)")
	fmt.Fprintln(w, "      --start-page <n>      First page, inclusive (default 100)")
	fmt.Fprintln(w, "      --end-page <n>        Last page, exclusive (default 170)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0.25-3.0)")
	fmt.Fprintln(w, "      --style <name>        CSS style name")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w, "      --title <s>           Document title")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Mail:")
	fmt.Fprintln(w, "      --to <addr>           Recipient (default RECIPIENT_EMAIL)")
	fmt.Fprintln(w, "      --subject <s>         Subject; {date} and {date:FORMAT} are expanded")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, HH, mm, ss")
	fmt.Fprintln(w, "                            Presets: iso, european, czech, us, long, stamp")
	fmt.Fprintln(w, "      --body <s>            Body text (Markdown)")
	fmt.Fprintln(w, "      --smtp-host <host>    SMTP host (default smtp.seznam.cz)")
	fmt.Fprintln(w, "      --smtp-port <n>       SMTP port (default 465)")
	fmt.Fprintln(w, "      --smtp-tls <mode>     TLS mode: ssl, starttls, none")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Credentials are read from SENDER_EMAIL, SENDER_PASSWORD and")
	fmt.Fprintln(w, "  RECIPIENT_EMAIL, or from a .env / .env.local file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "      --dry-run             Fetch and render, do not send")
	fmt.Fprintln(w, "  -o, --output <path>       With --dry-run, write the PDF here")
	fmt.Fprintln(w, "      --archive-dir <dir>   Also keep a copy under <dir>/<timestamp>_teletext/")
	fmt.Fprintln(w, "      --show-config         Print the resolved configuration and exit")
	fmt.Fprintln(w, "  -t, --timeout <d>         Timeout per stage (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
	fmt.Fprintln(w, "      --log-format <s>      console or json")
	fmt.Fprintln(w, "      --log-file <path>     Write logs to a rotated file")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: teletext2pdf doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, container/CI detection, temp directory and mail credentials.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "run":
		printRunUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: teletext2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: teletext2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
