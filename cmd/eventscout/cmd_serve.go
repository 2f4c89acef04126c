package main

// ---------------------------------------------------------------------------
// cmd_serve.go — long-running catalog service
// ---------------------------------------------------------------------------

import (
	"flag"
	"fmt"
	"os"

	"github.com/eventscout-project/eventscout/internal/api"
	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/engine"
)

func cmdServe(args []string) {
	// Honor --no-color before any output, including flag-parse errors.
	if hasFlag(args, "--no-color") {
		os.Setenv("NO_COLOR", "1")
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	host := fs.String("host", "", "API bind host override")
	port := fs.Int("port", 0, "API bind port override")
	logLevel := fs.String("log-level", "", "Override logging level: debug, info, warn, error")
	detectorList := fs.String("detectors", "", "Comma-separated detector allowlist")
	dryRun := fs.Bool("dry-run", false, "Validate configuration and exit")
	insecure := fs.Bool("insecure", false, "Silence the no-authentication warning")
	quiet := fs.Bool("quiet", false, "Suppress the startup banner")
	fs.BoolVar(quiet, "q", *quiet, "Suppress the startup banner (shorthand)")
	fs.Bool("no-color", false, "Disable colored output")
	fs.Parse(args)

	if !*quiet {
		fmt.Fprint(os.Stderr, bannerText())
		fmt.Fprintf(os.Stderr, "  %s\n\n", dim("v"+version))
	}

	path := envConfig(*configPath)
	cfg, err := core.LoadConfig(path)
	if err != nil {
		errorf("loading config: %v", err)
	}
	if h := envHost(*host); h != "" {
		cfg.Server.Host = h
	}
	if p := envPort(*port); p != 0 {
		cfg.Server.Port = p
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *detectorList != "" {
		keep := make(map[string]bool)
		for _, name := range splitList(*detectorList) {
			if !core.KnownDetectorName(name) {
				errorf("unknown detector %q in --detectors", name)
			}
			keep[name] = true
		}
		if cfg.Detectors == nil {
			cfg.Detectors = make(map[string]core.DetectorConfig)
		}
		for _, name := range core.KnownDetectorNames() {
			cfg.Detectors[name] = core.DetectorConfig{Enabled: keep[name]}
		}
	}

	if err := cfg.Validate(); err != nil {
		errorf("invalid configuration: %v", err)
	}
	if !cfg.AuthEnabled() && !*insecure {
		warnf("API authentication is disabled — set server.api_keys or EVENTSCOUT_API_KEY (--insecure silences this)")
	}

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		errorf("%v", err)
	}
	eng.ConfigPath = path

	if *dryRun {
		fmt.Fprintf(os.Stdout, "%s Configuration OK — %d detectors enabled, catalog dir %s\n",
			green("✓"), eng.Registry.Len(), cfg.Catalog.OutputDir)
		os.Exit(0)
	}

	srv := api.NewServer(eng)
	if err := srv.Start(); err != nil {
		errorf("starting API server: %v", err)
	}

	fmt.Fprintf(os.Stderr, "%s API listening on %s:%d\n", green("✓"), cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintf(os.Stderr, "%s %d detectors registered\n", dim("▸"), eng.Registry.Len())
	fmt.Fprintf(os.Stderr, "%s catalog dir %s, re-discovery every %s\n",
		dim("▸"), cfg.Catalog.OutputDir, cfg.DiscoveryInterval())
	fmt.Fprintf(os.Stderr, "%s press Ctrl-C to stop\n\n", dim("▸"))

	// Run blocks until SIGINT/SIGTERM or an API-triggered shutdown.
	runErr := eng.Run()
	srv.Stop()
	if runErr != nil {
		errorf("%v", runErr)
	}
	fmt.Fprintf(os.Stderr, "%s eventscout stopped.\n", green("✓"))
}
