package main

// ---------------------------------------------------------------------------
// cmd_status.go — fetch status from a running instance
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"
)

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	format := fs.String("format", "table", "Output format: table, json, csv")
	jsonOut := fs.Bool("json", false, "Output raw JSON (shorthand for --format json)")
	output := fs.String("output", "", "Write output to file")
	timeoutStr := fs.String("timeout", "5s", "Request timeout")
	fs.Parse(args)

	path := envConfig(*configPath)
	if *jsonOut {
		*format = "json"
	}
	outFmt := parseFormat(*format)

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		errorf("invalid timeout %q: %v", *timeoutStr, err)
	}

	base := apiBase(path, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, path)
	body, err := apiGet(base+"/api/v1/status", apiKey, timeout)
	if err != nil {
		errorf("%v", err)
	}

	w, cleanup := outputWriter(*output)
	defer cleanup()

	if outFmt == FormatJSON {
		fmt.Fprintln(w, string(body))
		return
	}

	var status map[string]interface{}
	if err := json.Unmarshal(body, &status); err != nil {
		errorf("parsing response: %v", err)
	}

	if outFmt == FormatCSV {
		headers := []string{"field", "value"}
		rows := [][]string{
			{"version", fmt.Sprintf("%v", status["version"])},
			{"mode", fmt.Sprintf("%v", status["mode"])},
			{"uptime_seconds", fmt.Sprintf("%v", status["uptime_seconds"])},
			{"detectors", fmt.Sprintf("%v", status["detectors"])},
			{"services", fmt.Sprintf("%v", status["services"])},
			{"channels", fmt.Sprintf("%v", status["channels"])},
			{"output_dir", fmt.Sprintf("%v", status["output_dir"])},
			{"timestamp", fmt.Sprintf("%v", status["timestamp"])},
		}
		if bc, ok := status["bus_connected"].(bool); ok {
			rows = append(rows, []string{"bus_connected", fmt.Sprintf("%v", bc)})
		}
		writeCSV(w, headers, rows)
		return
	}

	// Table (default)
	fmt.Fprintf(w, "%s eventscout status\n\n", bold("●"))
	fmt.Fprintf(w, "  %-14s %s\n", "Version:", green(fmt.Sprintf("%v", status["version"])))
	fmt.Fprintf(w, "  %-14s %v\n", "Mode:", status["mode"])
	fmt.Fprintf(w, "  %-14s %s\n", "Uptime:", formatUptime(status["uptime_seconds"]))
	fmt.Fprintf(w, "  %-14s %v\n", "Detectors:", status["detectors"])
	fmt.Fprintf(w, "  %-14s %v\n", "Services:", status["services"])
	fmt.Fprintf(w, "  %-14s %v\n", "Channels:", status["channels"])
	fmt.Fprintf(w, "  %-14s %v\n", "Output Dir:", status["output_dir"])

	if bc, ok := status["bus_connected"].(bool); ok {
		busDisplay := red("disconnected")
		if bc {
			busDisplay = green("connected")
		}
		fmt.Fprintf(w, "  %-14s %s\n", "Bus:", busDisplay)
	}

	if lastRun, ok := status["last_run"].(map[string]interface{}); ok {
		events := fmt.Sprintf("%v", lastRun["events"])
		warnings := fmt.Sprintf("%v", lastRun["warnings"])
		fmt.Fprintf(w, "  %-14s %s events, %s warnings (%v, finished %v)\n",
			"Last Run:", events, warnings, lastRun["mode"], lastRun["finished_at"])
	} else {
		fmt.Fprintf(w, "  %-14s %s\n", "Last Run:", dim("none yet"))
	}

	fmt.Fprintf(w, "  %-14s %v\n", "Timestamp:", status["timestamp"])
	fmt.Fprintln(w)
}

// formatUptime renders the numeric uptime_seconds field as a duration.
func formatUptime(v interface{}) string {
	secs, ok := v.(float64)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return (time.Duration(secs) * time.Second).String()
}
