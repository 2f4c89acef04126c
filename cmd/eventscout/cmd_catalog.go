package main

// ---------------------------------------------------------------------------
// cmd_catalog.go — inspect the on-disk catalog
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/catalog"
	"github.com/eventscout-project/eventscout/internal/core"
)

func cmdCatalog(args []string) {
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub = args[0]
		args = args[1:]
	}
	switch sub {
	case "list":
		catalogList(args)
	case "show":
		catalogShow(args)
	case "channels":
		catalogChannels(args)
	default:
		errorf("unknown catalog subcommand %q — use list, show, or channels", sub)
	}
}

// openCatalog loads the saved catalog into a fresh index. The CLI reads
// the same files the store writes, so a running instance is not needed.
func openCatalog(configPath, outputDir string) (*catalog.Index, string) {
	cfg, err := core.LoadConfig(envConfig(configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}
	if outputDir != "" {
		cfg.Catalog.OutputDir = outputDir
	}

	logger := zerolog.Nop()
	ix := catalog.NewIndex(logger)
	store := catalog.NewStore(cfg.Catalog, logger)
	if _, err := store.Load(ix); err != nil {
		errorf("loading catalog from %s: %v", store.Dir(), err)
	}
	return ix, store.Dir()
}

func catalogList(args []string) {
	fs := flag.NewFlagSet("catalog-list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	outputDir := fs.String("output", "", "Catalog directory override")
	format := fs.String("format", "table", "Output format: table, json, csv")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Parse(args)

	if *jsonOut {
		*format = "json"
	}
	outFmt := parseFormat(*format)

	ix, dir := openCatalog(*configPath, *outputDir)
	entries := ix.Snapshot()

	if outFmt == FormatJSON {
		data, err := json.MarshalIndent(map[string]interface{}{
			"services": entries,
			"total":    len(entries),
		}, "", "  ")
		if err != nil {
			errorf("encoding services: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	if len(entries) == 0 {
		fmt.Printf("%s Catalog at %s is empty — run 'eventscout discover' or 'eventscout demo' first.\n", dim("▸"), dir)
		return
	}

	if outFmt == FormatCSV {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.ServiceName,
				fmt.Sprintf("%d", e.ChannelCount),
				strings.Join(e.Brokers, " "),
				fmt.Sprintf("%d", e.Revision),
				e.LastUpdated.Format("2006-01-02 15:04:05"),
			})
		}
		writeCSV(os.Stdout, []string{"service", "channels", "brokers", "revision", "updated"}, rows)
		return
	}

	tbl := NewTable(os.Stdout, "SERVICE", "CHANNELS", "BROKERS", "REV", "UPDATED")
	for _, e := range entries {
		tbl.AddRow(e.ServiceName,
			fmt.Sprintf("%d", e.ChannelCount),
			strings.Join(e.Brokers, ", "),
			fmt.Sprintf("%d", e.Revision),
			e.LastUpdated.Format("2006-01-02 15:04"))
	}
	tbl.Render()
	fmt.Printf("\n%d service(s) in %s\n", len(entries), dir)
}

func catalogShow(args []string) {
	var name string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("catalog-show", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	outputDir := fs.String("output", "", "Catalog directory override")
	format := fs.String("format", "yaml", "Output format: yaml, json, table")
	outFile := fs.String("to", "", "Write the document to a file")
	fs.Parse(args)

	if name == "" {
		name = fs.Arg(0)
	}
	if name == "" {
		errorf("usage: eventscout catalog show <service> [flags]")
	}

	ix, dir := openCatalog(*configPath, *outputDir)
	entry, ok := ix.LookupService(name)
	if !ok {
		errorf("service %q not found in catalog at %s", name, dir)
	}

	w, cleanup := outputWriter(*outFile)
	defer cleanup()

	switch parseFormat(*format) {
	case FormatJSON:
		data, err := entry.Document.ToJSON()
		if err != nil {
			errorf("encoding document: %v", err)
		}
		fmt.Fprintln(w, string(data))
	case FormatTable:
		fmt.Fprintf(w, "%s %s\n\n", bold("●"), entry.ServiceName)
		fmt.Fprintf(w, "  %-10s %s\n", "Spec:", entry.SpecFile)
		fmt.Fprintf(w, "  %-10s %s\n", "Brokers:", strings.Join(entry.Brokers, ", "))
		fmt.Fprintf(w, "  %-10s %d\n", "Revision:", entry.Revision)
		fmt.Fprintf(w, "  %-10s %s\n\n", "Updated:", entry.LastUpdated.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  %s\n", bold("Channels:"))
		for _, channel := range entry.Document.ChannelNames() {
			fmt.Fprintf(w, "    %s %s\n", green("●"), channel)
		}
		fmt.Fprintln(w)
	default:
		data, err := entry.Document.ToYAML()
		if err != nil {
			errorf("encoding document: %v", err)
		}
		fmt.Fprint(w, string(data))
	}
}

func catalogChannels(args []string) {
	var name string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("catalog-channels", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	outputDir := fs.String("output", "", "Catalog directory override")
	format := fs.String("format", "table", "Output format: table, json")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Parse(args)

	if name == "" {
		name = fs.Arg(0)
	}
	if name == "" {
		errorf("usage: eventscout catalog channels <name> [flags]")
	}
	if *jsonOut {
		*format = "json"
	}

	ix, dir := openCatalog(*configPath, *outputDir)
	refs := ix.LookupChannel(name)

	if parseFormat(*format) == FormatJSON {
		data, err := json.MarshalIndent(map[string]interface{}{
			"channel":    name,
			"publishers": refs,
			"total":      len(refs),
		}, "", "  ")
		if err != nil {
			errorf("encoding channel refs: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	if len(refs) == 0 {
		errorf("no producers of channel %q in catalog at %s", name, dir)
	}

	fmt.Printf("%s %s\n\n", bold("●"), name)
	tbl := NewTable(os.Stdout, "SERVICE", "BROKER", "CONFIDENCE")
	for _, ref := range refs {
		tbl.AddRow(ref.ServiceName, ref.Broker, fmt.Sprintf("%.2f", ref.Confidence))
	}
	tbl.Render()
	if len(refs) > 1 {
		fmt.Printf("\n%s %d services publish this channel.\n", yellow("!"), len(refs))
	}
	fmt.Println()
}
