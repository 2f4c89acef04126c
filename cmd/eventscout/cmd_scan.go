package main

// ---------------------------------------------------------------------------
// cmd_scan.go — discover events in a local source tree
// ---------------------------------------------------------------------------

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/engine"
)

func cmdScan(args []string) {
	// The tree path may come before or after the flags.
	var root string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		root = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	repo := fs.String("repo", "", "Repository identifier for the records (default: directory name)")
	output := fs.String("output", "", "Catalog output directory override")
	discoverOnly := fs.Bool("discover-only", false, "Report discovered events, write nothing")
	incremental := fs.Bool("incremental", false, "Merge into the existing catalog instead of replacing it")
	format := fs.String("format", "text", "Output format: text, json")
	verbose := fs.Bool("verbose", false, "Debug logging")
	fs.BoolVar(verbose, "v", *verbose, "Debug logging (shorthand)")
	fs.Parse(args)

	if root == "" {
		root = fs.Arg(0)
	}
	if root == "" {
		errorf("usage: eventscout scan <path> [flags]")
	}
	info, err := os.Stat(root)
	if err != nil {
		errorf("cannot scan %s: %v", root, err)
	}
	if !info.IsDir() {
		errorf("%s is not a directory", root)
	}

	cfg, err := core.LoadConfig(envConfig(*configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}
	if *output != "" {
		cfg.Catalog.OutputDir = *output
	}
	outFmt := parseFormat(*format)
	applyRunLogging(cfg, outFmt, *verbose)

	repoID := *repo
	if repoID == "" {
		abs, err := filepath.Abs(root)
		if err == nil {
			repoID = filepath.Base(abs)
		}
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		errorf("%v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outcome, err := eng.RunLocalScan(ctx, root, engine.Options{
		Repository:   repoID,
		DiscoverOnly: *discoverOnly,
		Incremental:  *incremental,
	})
	if err != nil {
		errorf("%v", err)
	}

	renderOutcome(os.Stdout, outcome, outFmt, *discoverOnly)
}
