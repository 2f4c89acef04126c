package main

// ---------------------------------------------------------------------------
// cmd_detectors.go — list broker/framework detectors
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"sort"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/engine"
)

func cmdDetectors(args []string) {
	fs := flag.NewFlagSet("detectors", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	format := fs.String("format", "table", "Output format: table, json")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Parse(args)

	if *jsonOut {
		*format = "json"
	}

	cfg, err := core.LoadConfig(envConfig(*configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}
	cfg.Logging.Level = "error" // listing detectors needs no engine chatter

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		errorf("%v", err)
	}

	enabled := eng.Registry.Detectors()
	var disabled []string
	for _, name := range core.KnownDetectorNames() {
		if !cfg.IsDetectorEnabled(name) {
			disabled = append(disabled, name)
		}
	}
	sort.Strings(disabled)

	if parseFormat(*format) == FormatJSON {
		type detectorInfo struct {
			Name        string `json:"name"`
			Broker      string `json:"broker"`
			Description string `json:"description"`
			Enabled     bool   `json:"enabled"`
		}
		infos := make([]detectorInfo, 0, len(enabled)+len(disabled))
		for _, d := range enabled {
			infos = append(infos, detectorInfo{d.Name(), string(d.Broker()), d.Description(), true})
		}
		for _, name := range disabled {
			infos = append(infos, detectorInfo{Name: name})
		}
		data, err := json.MarshalIndent(map[string]interface{}{
			"detectors": infos,
			"total":     len(infos),
		}, "", "  ")
		if err != nil {
			errorf("encoding detectors: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%s Detectors\n\n", bold("●"))
	for _, d := range enabled {
		fmt.Printf("  %s %-16s %-12s %s\n", green("●"), d.Name(), string(d.Broker()), dim(d.Description()))
	}
	for _, name := range disabled {
		fmt.Printf("  %s %-16s %s\n", red("○"), name, dim("disabled by config"))
	}
	fmt.Printf("\n%d enabled, %d disabled\n", len(enabled), len(disabled))
}
