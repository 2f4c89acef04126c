package main

// ---------------------------------------------------------------------------
// banner.go — ASCII art banner, version/usage printing, per-command help
// ---------------------------------------------------------------------------

import (
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"runtime/debug"
)

func bannerText() string {
	if !colorEnabled() {
		return `
    ███████╗██╗   ██╗███████╗███╗   ██╗████████╗
    ██╔════╝██║   ██║██╔════╝████╗  ██║╚══██╔══╝
    █████╗  ██║   ██║█████╗  ██╔██╗ ██║   ██║
    ██╔══╝  ╚██╗ ██╔╝██╔══╝  ██║╚██╗██║   ██║
    ███████╗ ╚████╔╝ ███████╗██║ ╚████║   ██║
    ╚══════╝  ╚═══╝  ╚══════╝╚═╝  ╚═══╝   ╚═╝
    ███████╗ ██████╗ ██████╗ ██╗   ██╗████████╗
    ██╔════╝██╔════╝██╔═══██╗██║   ██║╚══██╔══╝
    ███████╗██║     ██║   ██║██║   ██║   ██║
    ╚════██║██║     ██║   ██║██║   ██║   ██║
    ███████║╚██████╗╚██████╔╝╚██████╔╝   ██║
    ╚══════╝ ╚═════╝ ╚═════╝  ╚═════╝    ╚═╝

       EVENT DISCOVERY FOR ASYNC ARCHITECTURES
               code in, AsyncAPI catalogs out
`
	}
	return "\033[97m" + `
    ███████╗██╗   ██╗███████╗███╗   ██╗████████╗
    ██╔════╝██║   ██║██╔════╝████╗  ██║╚══██╔══╝
    █████╗  ██║   ██║█████╗  ██╔██╗ ██║   ██║
    ██╔══╝  ╚██╗ ██╔╝██╔══╝  ██║╚██╗██║   ██║
    ███████╗ ╚████╔╝ ███████╗██║ ╚████║   ██║
    ╚══════╝  ╚═══╝  ╚══════╝╚═╝  ╚═══╝   ╚═╝` + "\033[36m" + `
    ███████╗ ██████╗ ██████╗ ██╗   ██╗████████╗
    ██╔════╝██╔════╝██╔═══██╗██║   ██║╚══██╔══╝
    ███████╗██║     ██║   ██║██║   ██║   ██║
    ╚════██║██║     ██║   ██║██║   ██║   ██║
    ███████║╚██████╗╚██████╔╝╚██████╔╝   ██║
    ╚══════╝ ╚═════╝ ╚═════╝  ╚═════╝    ╚═╝

` + "\033[97m" + `       EVENT DISCOVERY FOR ASYNC ARCHITECTURES` + "\033[90m" + `
               code in, AsyncAPI catalogs out` + "\033[0m" + `
`
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "eventscout v%s", version)
	if commit != "dev" {
		fmt.Fprintf(w, " (%s)", commit[:min(7, len(commit))])
	}
	if buildDate != "unknown" {
		fmt.Fprintf(w, " built %s", buildDate)
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(w, " %s", bi.GoVersion)
	}
	fmt.Fprintf(w, " %s/%s", goruntime.GOOS, goruntime.GOARCH)
	fmt.Fprintln(w)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, bannerText())
	fmt.Fprintf(w, "  %s\n\n", dim("v"+version))
	fmt.Fprintf(w, "%s\n\n", bold("USAGE"))
	fmt.Fprintf(w, "  eventscout <command> [flags]\n\n")
	fmt.Fprintf(w, "%s\n\n", bold("COMMANDS"))
	fmt.Fprintf(w, "  %-13s  %s\n", bold("discover"), "Run one discovery pass against the code-search collaborator")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("scan"), "Discover events in a local source tree")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("serve"), "Run the catalog service: REST API, bus, periodic re-discovery")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("stop"), "Gracefully stop a running instance")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("status"), "Show status of a running instance")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("catalog"), "List services, show a spec, or look up a channel")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("detectors"), "List broker/framework detectors")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("config"), "Initialize, show, validate, or set configuration")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("check"), "Run pre-flight diagnostics")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("demo"), "Run the built-in fixture through the full pipeline")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("completions"), "Generate shell completion scripts")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("version"), "Print version and build info")
	fmt.Fprintf(w, "  %-13s  %s\n", bold("help"), "Show help for a command")
	fmt.Fprintf(w, "\n%s\n\n", bold("GLOBAL FLAGS"))
	fmt.Fprintf(w, "  %-22s  %s\n", "--config <path>", "Config file path (default: eventscout.yaml, env: EVENTSCOUT_CONFIG)")
	fmt.Fprintf(w, "  %-22s  %s\n", "--api-key <key>", "API key (env: EVENTSCOUT_API_KEY)")
	fmt.Fprintf(w, "  %-22s  %s\n", "--format <fmt>", "Output format: table, json, csv, yaml (default: table)")
	fmt.Fprintf(w, "  %-22s  %s\n", "--version, -V", "Print version and exit")
	fmt.Fprintf(w, "  %-22s  %s\n", "--help, -h", "Show help")
	fmt.Fprintf(w, "\n%s\n\n", bold("ENVIRONMENT VARIABLES"))
	fmt.Fprintf(w, "  %-24s  %s\n", "EVENTSCOUT_CONFIG", "Default config file path")
	fmt.Fprintf(w, "  %-24s  %s\n", "EVENTSCOUT_HOST", "API host override")
	fmt.Fprintf(w, "  %-24s  %s\n", "EVENTSCOUT_PORT", "API port override")
	fmt.Fprintf(w, "  %-24s  %s\n", "EVENTSCOUT_API_KEY", "API key for authentication")
	fmt.Fprintf(w, "  %-24s  %s\n", "EVENTSCOUT_SEARCH_TOKEN", "Token for the code-search collaborator")
	fmt.Fprintf(w, "\n%s\n\n", bold("EXAMPLES"))
	fmt.Fprintf(w, "  %s\n", dim("# Try the pipeline on canned evidence, no network needed"))
	fmt.Fprintf(w, "  eventscout demo\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# One discovery pass over two repositories"))
	fmt.Fprintf(w, "  eventscout discover --repos github.com/acme/orders,github.com/acme/billing\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# See what a local checkout publishes, write nothing"))
	fmt.Fprintf(w, "  eventscout scan ./services/payments --discover-only\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Run the catalog service"))
	fmt.Fprintf(w, "  eventscout serve --config eventscout.yaml\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Who publishes order.placed?"))
	fmt.Fprintf(w, "  eventscout catalog channels order.placed\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Machine-readable status of a running instance"))
	fmt.Fprintf(w, "  eventscout status --format json\n\n")
	fmt.Fprintf(w, "Run %s for detailed help on any command.\n\n", bold("eventscout help <command>"))
}

// cmdHelp prints detailed usage for one command.
func cmdHelp(topic string) {
	w := os.Stdout
	section := func(name string) { fmt.Fprintf(w, "%s\n\n", bold(name)) }

	switch topic {
	case "discover":
		section("USAGE")
		fmt.Fprint(w, "  eventscout discover [flags]\n\n")
		fmt.Fprint(w, "  Run one remote discovery pass: fan out detector queries to the\n")
		fmt.Fprint(w, "  code-search collaborator, synthesize AsyncAPI documents, and write\n")
		fmt.Fprint(w, "  the catalog to the output directory.\n\n")
		section("FLAGS")
		fmt.Fprintf(w, "  %-24s  %s\n", "--config <path>", "Config file path")
		fmt.Fprintf(w, "  %-24s  %s\n", "--repos <a,b>", "Limit discovery to these repositories")
		fmt.Fprintf(w, "  %-24s  %s\n", "--langs <a,b>", "Limit discovery to these languages")
		fmt.Fprintf(w, "  %-24s  %s\n", "--output <dir>", "Catalog output directory override")
		fmt.Fprintf(w, "  %-24s  %s\n", "--discover-only", "Report discovered events, write nothing")
		fmt.Fprintf(w, "  %-24s  %s\n", "--incremental", "Merge into the existing catalog instead of replacing it")
		fmt.Fprintf(w, "  %-24s  %s\n", "--workers <n>", "Concurrent query workers")
		fmt.Fprintf(w, "  %-24s  %s\n", "--format <fmt>", "Output format: text, json")
		fmt.Fprintf(w, "  %-24s  %s\n", "-v, --verbose", "Debug logging")
		fmt.Fprintln(w)
	case "scan":
		section("USAGE")
		fmt.Fprint(w, "  eventscout scan <path> [flags]\n\n")
		fmt.Fprint(w, "  Walk a checked-out source tree and discover events without any\n")
		fmt.Fprint(w, "  search collaborator. Schema enrichment reads the scanned files.\n\n")
		section("FLAGS")
		fmt.Fprintf(w, "  %-24s  %s\n", "--repo <name>", "Repository identifier for the records (default: directory name)")
		fmt.Fprintf(w, "  %-24s  %s\n", "--output <dir>", "Catalog output directory override")
		fmt.Fprintf(w, "  %-24s  %s\n", "--discover-only", "Report discovered events, write nothing")
		fmt.Fprintf(w, "  %-24s  %s\n", "--incremental", "Merge into the existing catalog instead of replacing it")
		fmt.Fprintf(w, "  %-24s  %s\n", "--format <fmt>", "Output format: text, json")
		fmt.Fprintf(w, "  %-24s  %s\n", "-v, --verbose", "Debug logging")
		fmt.Fprintln(w)
	case "serve":
		section("USAGE")
		fmt.Fprint(w, "  eventscout serve [flags]\n\n")
		fmt.Fprint(w, "  Long-running mode: REST API, NATS catalog bus, periodic\n")
		fmt.Fprint(w, "  re-discovery, and SIGHUP config reload.\n\n")
		section("FLAGS")
		fmt.Fprintf(w, "  %-24s  %s\n", "--config <path>", "Config file path")
		fmt.Fprintf(w, "  %-24s  %s\n", "--host <host>", "API bind host override")
		fmt.Fprintf(w, "  %-24s  %s\n", "--port <port>", "API bind port override")
		fmt.Fprintf(w, "  %-24s  %s\n", "--detectors <a,b>", "Only enable these detectors")
		fmt.Fprintf(w, "  %-24s  %s\n", "--log-level <level>", "Override logging level: debug, info, warn, error")
		fmt.Fprintf(w, "  %-24s  %s\n", "--dry-run", "Validate configuration and exit")
		fmt.Fprintf(w, "  %-24s  %s\n", "--insecure", "Silence the no-authentication warning")
		fmt.Fprintf(w, "  %-24s  %s\n", "-q, --quiet", "Suppress the startup banner")
		fmt.Fprintf(w, "  %-24s  %s\n", "--no-color", "Disable colored output")
		fmt.Fprintln(w)
	case "stop":
		section("USAGE")
		fmt.Fprint(w, "  eventscout stop [--host <host>] [--port <port>] [--api-key <key>]\n\n")
		fmt.Fprint(w, "  Ask a running instance to shut down. The shutdown endpoint only\n")
		fmt.Fprint(w, "  accepts loopback connections.\n\n")
	case "status":
		section("USAGE")
		fmt.Fprint(w, "  eventscout status [--host <host>] [--port <port>] [--format table|json|csv]\n\n")
		fmt.Fprint(w, "  Fetch engine status from a running instance.\n\n")
	case "catalog":
		section("USAGE")
		fmt.Fprint(w, "  eventscout catalog list [--output <dir>] [--format table|json|csv]\n")
		fmt.Fprint(w, "  eventscout catalog show <service> [--output <dir>] [--format yaml|json|table]\n")
		fmt.Fprint(w, "  eventscout catalog channels <name> [--output <dir>] [--format table|json]\n\n")
		fmt.Fprint(w, "  Inspect the on-disk catalog: the service index, one service's\n")
		fmt.Fprint(w, "  AsyncAPI document, or every producer of a channel.\n\n")
	case "detectors":
		section("USAGE")
		fmt.Fprint(w, "  eventscout detectors [--config <path>] [--format table|json]\n\n")
		fmt.Fprint(w, "  List the broker/framework detectors the configuration enables.\n\n")
	case "config":
		section("USAGE")
		fmt.Fprint(w, "  eventscout config init [--config <path>] [--force]\n")
		fmt.Fprint(w, "  eventscout config show [--config <path>] [--format yaml|json]\n")
		fmt.Fprint(w, "  eventscout config validate [--config <path>]\n")
		fmt.Fprint(w, "  eventscout config set <key> <value> [--config <path>]\n\n")
		section("EXAMPLES")
		fmt.Fprint(w, "  eventscout config set server.port 9000\n")
		fmt.Fprint(w, "  eventscout config set logging.level debug\n")
		fmt.Fprint(w, "  eventscout config set detectors.generic.enabled false\n\n")
	case "check":
		section("USAGE")
		fmt.Fprint(w, "  eventscout check [--config <path>] [--format table|json]\n\n")
		fmt.Fprint(w, "  Pre-flight diagnostics: config, ports, output directory, search token.\n\n")
	case "demo":
		section("USAGE")
		fmt.Fprint(w, "  eventscout demo [--output <dir>] [--discover-only] [--format text|json]\n\n")
		fmt.Fprint(w, "  Run the embedded evidence fixture through the full pipeline. No\n")
		fmt.Fprint(w, "  network access or credentials needed; writes a complete catalog.\n\n")
	case "completions":
		section("USAGE")
		fmt.Fprint(w, "  eventscout completions bash|zsh|fish|powershell\n\n")
		fmt.Fprint(w, "  Print a completion script for the given shell.\n\n")
	default:
		printUsage(w)
	}
}
