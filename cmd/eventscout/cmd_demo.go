package main

// ---------------------------------------------------------------------------
// cmd_demo.go — run the embedded evidence fixture through the pipeline
// ---------------------------------------------------------------------------

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/engine"
)

func cmdDemo(args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	output := fs.String("output", "", "Catalog output directory (default: ./event-catalog)")
	discoverOnly := fs.Bool("discover-only", false, "Report discovered events, write nothing")
	format := fs.String("format", "text", "Output format: text, json")
	verbose := fs.Bool("verbose", false, "Debug logging")
	fs.BoolVar(verbose, "v", *verbose, "Debug logging (shorthand)")
	fs.Parse(args)

	// The demo is self-contained: defaults only, no config file, no token.
	cfg := core.DefaultConfig()
	if *output != "" {
		cfg.Catalog.OutputDir = *output
	}
	outFmt := parseFormat(*format)
	if *verbose {
		cfg.Logging.Level = "debug"
	} else {
		cfg.Logging.Level = "error"
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		errorf("%v", err)
	}
	eng.UseFixture()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outcome, err := eng.RunDiscovery(ctx, engine.Options{DiscoverOnly: *discoverOnly})
	if err != nil {
		errorf("%v", err)
	}

	renderOutcome(os.Stdout, outcome, outFmt, *discoverOnly)
	if outFmt != FormatJSON && !*discoverOnly {
		fmt.Printf("%s Explore it: eventscout catalog list --output %s\n", dim("▸"), eng.Store.Dir())
	}
}
