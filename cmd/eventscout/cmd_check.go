package main

// ---------------------------------------------------------------------------
// cmd_check.go — pre-flight diagnostics
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/eventscout-project/eventscout/internal/core"
)

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	format := fs.String("format", "table", "Output format: table, json")
	jsonOut := fs.Bool("json", false, "Output results as JSON")
	fs.Parse(args)

	if *jsonOut {
		*format = "json"
	}
	outFmt := parseFormat(*format)

	type checkResult struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Detail string `json:"detail,omitempty"`
	}

	results := make([]checkResult, 0)
	pass := func(name, detail string) { results = append(results, checkResult{name, "pass", detail}) }
	fail := func(name, detail string) { results = append(results, checkResult{name, "fail", detail}) }
	warn := func(name, detail string) { results = append(results, checkResult{name, "warn", detail}) }

	path := envConfig(*configPath)
	cfg, err := core.LoadConfig(path)
	if err != nil {
		fail("config", fmt.Sprintf("failed to load %s: %v", path, err))
	} else if verr := cfg.Validate(); verr != nil {
		fail("config", verr.Error())
	} else {
		pass("config", fmt.Sprintf("loaded %s", path))
	}

	if cfg != nil {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
		if err != nil {
			fail("api_port", fmt.Sprintf("port %d is already in use", cfg.Server.Port))
		} else {
			ln.Close()
			pass("api_port", fmt.Sprintf("port %d is available", cfg.Server.Port))
		}

		if cfg.Bus.Embedded {
			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Bus.Port))
			if err != nil {
				fail("nats_port", fmt.Sprintf("port %d is already in use", cfg.Bus.Port))
			} else {
				ln.Close()
				pass("nats_port", fmt.Sprintf("port %d is available", cfg.Bus.Port))
			}
		} else {
			pass("nats_port", "external NATS — skipped port check")
		}

		if cfg.Server.Port == cfg.Bus.Port {
			fail("port_conflict", fmt.Sprintf("API port (%d) and NATS port (%d) are the same", cfg.Server.Port, cfg.Bus.Port))
		} else {
			pass("port_conflict", "API and NATS ports are distinct")
		}

		outDir := cfg.Catalog.OutputDir
		if err := os.MkdirAll(outDir, 0755); err != nil {
			fail("output_dir", fmt.Sprintf("cannot create %s: %v", outDir, err))
		} else {
			probe := filepath.Join(outDir, ".eventscout-check")
			if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
				fail("output_dir", fmt.Sprintf("cannot write to %s: %v", outDir, err))
			} else {
				os.Remove(probe)
				pass("output_dir", fmt.Sprintf("%s is writable", outDir))
			}
		}

		token := cfg.Search.Token
		if token == "" {
			token = os.Getenv("EVENTSCOUT_SEARCH_TOKEN")
		}
		if token != "" {
			pass("search_token", "search collaborator token configured")
		} else {
			warn("search_token", "no search token — anonymous queries are heavily rate-limited (set search.token or EVENTSCOUT_SEARCH_TOKEN)")
		}
	}

	// Output
	if outFmt == FormatJSON {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"checks": results,
			"total":  len(results),
		}, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%s Pre-flight Diagnostics\n\n", bold("🔍"))

	tbl := NewTable(os.Stdout, "CHECK", "STATUS", "DETAIL")
	failures := 0
	warnings := 0
	for _, r := range results {
		var statusStr string
		switch r.Status {
		case "pass":
			statusStr = green("PASS")
		case "fail":
			statusStr = red("FAIL")
			failures++
		case "warn":
			statusStr = yellow("WARN")
			warnings++
		}
		tbl.AddRow(r.Name, statusStr, r.Detail)
	}
	tbl.Render()
	fmt.Println()

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%s %d check(s) failed. Fix issues before running 'eventscout serve'.\n", red("✗"), failures)
		os.Exit(1)
	}
	if warnings > 0 {
		fmt.Printf("%s All checks passed with %d warning(s).\n", yellow("!"), warnings)
	} else {
		fmt.Printf("%s All checks passed. Ready to run 'eventscout serve'.\n", green("✓"))
	}
}
