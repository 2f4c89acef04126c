package main

// ---------------------------------------------------------------------------
// cmd_config.go — initialize, show, validate, or set configuration
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eventscout-project/eventscout/internal/core"
)

func cmdConfig(args []string) {
	sub := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub = args[0]
		args = args[1:]
	}
	switch sub {
	case "init":
		cmdConfigInit(args)
	case "show":
		cmdConfigShow(args)
	case "validate":
		cmdConfigValidate(args)
	case "set":
		cmdConfigSet(args)
	default:
		errorf("unknown config subcommand %q — use init, show, validate, or set", sub)
	}
}

func cmdConfigInit(args []string) {
	fs := flag.NewFlagSet("config-init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path to create")
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)

	path := envConfig(*configPath)
	if _, err := os.Stat(path); err == nil && !*force {
		errorf("%s already exists — use --force to overwrite", path)
	}

	if err := core.SaveConfig(core.DefaultConfig(), path); err != nil {
		errorf("writing config: %v", err)
	}
	fmt.Fprintf(os.Stdout, "%s Wrote starter configuration to %s\n", green("✓"), path)
	fmt.Fprintf(os.Stdout, "%s add a search token (search.token or EVENTSCOUT_SEARCH_TOKEN) before discovery\n", dim("▸"))
}

func cmdConfigShow(args []string) {
	fs := flag.NewFlagSet("config-show", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	format := fs.String("format", "yaml", "Output format: yaml, json")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	output := fs.String("output", "", "Write output to file")
	fs.Parse(args)

	if *jsonOut {
		*format = "json"
	}

	cfg, err := core.LoadConfig(envConfig(*configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}

	w, cleanup := outputWriter(*output)
	defer cleanup()

	if parseFormat(*format) == FormatJSON {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			errorf("marshaling config: %v", err)
		}
		fmt.Fprintln(w, string(data))
		return
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		errorf("marshaling config: %v", err)
	}
	fmt.Fprint(w, string(data))
}

func cmdConfigValidate(args []string) {
	fs := flag.NewFlagSet("config-validate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	fs.Parse(args)

	path := envConfig(*configPath)
	cfg, err := core.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s Config invalid: %v\n", red("✗"), err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s Config invalid: %v\n", red("✗"), err)
		os.Exit(1)
	}

	enabled := 0
	known := core.KnownDetectorNames()
	for _, name := range known {
		if cfg.IsDetectorEnabled(name) {
			enabled++
		}
	}
	fmt.Fprintf(os.Stdout, "%s Config valid (%s). %d/%d detectors enabled.\n",
		green("✓"), path, enabled, len(known))
}

func cmdConfigSet(args []string) {
	fs := flag.NewFlagSet("config-set", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	fs.Parse(args)

	path := envConfig(*configPath)
	remaining := fs.Args()
	if len(remaining) < 2 {
		errorf("usage: eventscout config set <key> <value>\n\nExamples:\n  eventscout config set server.port 9000\n  eventscout config set logging.level debug\n  eventscout config set detectors.generic.enabled false")
	}

	key := remaining[0]
	value := remaining[1]

	data, err := os.ReadFile(path)
	if err != nil {
		errorf("reading config: %v", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		errorf("parsing config: %v", err)
	}

	parts := strings.Split(key, ".")
	if err := setNestedValue(raw, parts, value); err != nil {
		errorf("setting %s: %v", key, err)
	}

	out, err := yaml.Marshal(raw)
	if err != nil {
		errorf("marshaling config: %v", err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		errorf("writing config: %v", err)
	}

	fmt.Fprintf(os.Stdout, "%s Set %s = %s in %s\n", green("✓"), bold(key), value, path)
}

func setNestedValue(m map[string]interface{}, path []string, value string) error {
	if len(path) == 0 {
		return fmt.Errorf("empty key path")
	}

	if len(path) == 1 {
		m[path[0]] = parseValue(value)
		return nil
	}

	next, ok := m[path[0]]
	if !ok {
		next = map[string]interface{}{}
		m[path[0]] = next
	}

	nextMap, ok := next.(map[string]interface{})
	if !ok {
		return fmt.Errorf("key %q is not a map", path[0])
	}

	return setNestedValue(nextMap, path[1:], value)
}
