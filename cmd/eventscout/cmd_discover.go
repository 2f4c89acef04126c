package main

// ---------------------------------------------------------------------------
// cmd_discover.go — one remote discovery pass
// ---------------------------------------------------------------------------

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/engine"
)

func cmdDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	repos := fs.String("repos", "", "Comma-separated repository filters")
	langs := fs.String("langs", "", "Comma-separated language filters")
	output := fs.String("output", "", "Catalog output directory override")
	discoverOnly := fs.Bool("discover-only", false, "Report discovered events, write nothing")
	incremental := fs.Bool("incremental", false, "Merge into the existing catalog instead of replacing it")
	workers := fs.Int("workers", 0, "Concurrent query workers override")
	format := fs.String("format", "text", "Output format: text, json")
	verbose := fs.Bool("verbose", false, "Debug logging")
	fs.BoolVar(verbose, "v", *verbose, "Debug logging (shorthand)")
	fs.Parse(args)

	cfg, err := core.LoadConfig(envConfig(*configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}
	if *output != "" {
		cfg.Catalog.OutputDir = *output
	}
	outFmt := parseFormat(*format)
	applyRunLogging(cfg, outFmt, *verbose)

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		errorf("%v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outcome, err := eng.RunDiscovery(ctx, engine.Options{
		Repositories: splitList(*repos),
		Languages:    splitList(*langs),
		Workers:      *workers,
		DiscoverOnly: *discoverOnly,
		Incremental:  *incremental,
	})
	if err != nil {
		errorf("%v", err)
	}

	renderOutcome(os.Stdout, outcome, outFmt, *discoverOnly)
	if outcome.Report.Failed() {
		errorf("every query failed — catalog unchanged")
	}
}

// applyRunLogging tunes engine logging for a one-shot run: JSON output
// must stay parseable, so engine logs are pushed down to errors unless the
// user explicitly asked for them.
func applyRunLogging(cfg *core.Config, format OutputFormat, verbose bool) {
	switch {
	case verbose:
		cfg.Logging.Level = "debug"
	case format == FormatJSON:
		cfg.Logging.Level = "error"
	}
}
