package main

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/eventscout-project/eventscout/internal/core"
)

// ─── suggest ──────────────────────────────────────────────────────────────────

func TestSuggest_PrefixMatch(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"dis", "discover"},
		{"sca", "scan"},
		{"ser", "serve"},
		{"sto", "stop"},
		{"sta", "status"},
		{"cat", "catalog"},
		{"det", "detectors"},
		{"con", "config"},
		{"che", "check"},
		{"dem", "demo"},
		{"comp", "completions"},
		{"ver", "version"},
		{"hel", "help"},
	}
	for _, tc := range tests {
		got := suggest(tc.input)
		if got != tc.want {
			t.Errorf("suggest(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSuggest_TypoCorrection(t *testing.T) {
	// Single character difference
	got := suggest("statux")
	if got != "status" {
		t.Errorf("suggest('statux') = %q, want 'status'", got)
	}
}

func TestSuggest_NoMatch(t *testing.T) {
	got := suggest("zzzzzzzzz")
	if got != "" {
		t.Errorf("suggest('zzzzzzzzz') = %q, want empty", got)
	}
}

func TestSuggest_CaseInsensitive(t *testing.T) {
	got := suggest("STATUS")
	if got != "status" {
		t.Errorf("suggest('STATUS') = %q, want 'status'", got)
	}
}

// ─── parseValue ───────────────────────────────────────────────────────────────

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  interface{}
	}{
		{"true", true},
		{"false", false},
		{"True", true},
		{"False", false},
		{"42", 42},
		{"3.14", 3.14},
		{"hello", "hello"},
		{"", ""},
	}
	for _, tc := range tests {
		got := parseValue(tc.input)
		if got != tc.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tc.input, got, got, tc.want, tc.want)
		}
	}
}

// ─── setNestedValue ───────────────────────────────────────────────────────────

func TestSetNestedValue_SingleLevel(t *testing.T) {
	m := map[string]interface{}{}
	err := setNestedValue(m, []string{"key"}, "value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["key"] != "value" {
		t.Errorf("m[key] = %v, want 'value'", m["key"])
	}
}

func TestSetNestedValue_MultiLevel(t *testing.T) {
	m := map[string]interface{}{
		"server": map[string]interface{}{
			"host": "0.0.0.0",
		},
	}
	err := setNestedValue(m, []string{"server", "port"}, "8380")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	server := m["server"].(map[string]interface{})
	if server["port"] != 8380 {
		t.Errorf("server.port = %v, want 8380", server["port"])
	}
}

func TestSetNestedValue_CreateIntermediate(t *testing.T) {
	m := map[string]interface{}{}
	err := setNestedValue(m, []string{"a", "b", "c"}, "deep")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := m["a"].(map[string]interface{})
	b := a["b"].(map[string]interface{})
	if b["c"] != "deep" {
		t.Errorf("a.b.c = %v, want 'deep'", b["c"])
	}
}

func TestSetNestedValue_EmptyPath(t *testing.T) {
	m := map[string]interface{}{}
	err := setNestedValue(m, []string{}, "value")
	if err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSetNestedValue_NotAMap(t *testing.T) {
	m := map[string]interface{}{
		"key": "string_value",
	}
	err := setNestedValue(m, []string{"key", "sub"}, "value")
	if err == nil {
		t.Error("expected error when intermediate is not a map")
	}
}

// ─── env helpers ──────────────────────────────────────────────────────────────

func TestEnvConfig_FlagOverride(t *testing.T) {
	t.Setenv("EVENTSCOUT_CONFIG", "")
	got := envConfig("/custom/path.yaml")
	if got != "/custom/path.yaml" {
		t.Errorf("envConfig = %q, want /custom/path.yaml", got)
	}
}

func TestEnvConfig_Default(t *testing.T) {
	t.Setenv("EVENTSCOUT_CONFIG", "")
	got := envConfig(defaultConfigPath)
	if got != defaultConfigPath {
		t.Errorf("envConfig = %q, want %q", got, defaultConfigPath)
	}
}

func TestEnvConfig_EnvFallback(t *testing.T) {
	t.Setenv("EVENTSCOUT_CONFIG", "/env/scout.yaml")
	got := envConfig(defaultConfigPath)
	if got != "/env/scout.yaml" {
		t.Errorf("envConfig = %q, want /env/scout.yaml", got)
	}
}

func TestEnvPort_FlagOverride(t *testing.T) {
	t.Setenv("EVENTSCOUT_PORT", "")
	got := envPort(8380)
	if got != 8380 {
		t.Errorf("envPort = %d, want 8380", got)
	}
}

func TestEnvPort_Env(t *testing.T) {
	t.Setenv("EVENTSCOUT_PORT", "9999")
	got := envPort(0)
	if got != 9999 {
		t.Errorf("envPort = %d, want 9999", got)
	}
}

func TestEnvPort_Zero(t *testing.T) {
	t.Setenv("EVENTSCOUT_PORT", "")
	got := envPort(0)
	if got != 0 {
		t.Errorf("envPort = %d, want 0", got)
	}
}

func TestEnvHost_FlagOverride(t *testing.T) {
	t.Setenv("EVENTSCOUT_HOST", "")
	got := envHost("10.0.0.1")
	if got != "10.0.0.1" {
		t.Errorf("envHost = %q, want 10.0.0.1", got)
	}
}

func TestEnvHost_Empty(t *testing.T) {
	t.Setenv("EVENTSCOUT_HOST", "")
	got := envHost("")
	if got != "" {
		t.Errorf("envHost = %q, want empty", got)
	}
}

// ─── hasFlag / splitList ──────────────────────────────────────────────────────

func TestHasFlag(t *testing.T) {
	args := []string{"serve", "--quiet", "--config", "scout.yaml"}
	if !hasFlag(args, "-q", "--quiet") {
		t.Error("expected hasFlag to find --quiet")
	}
	if hasFlag(args, "-v", "--verbose") {
		t.Error("expected hasFlag to not find --verbose")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b", []string{"a", "b"}},
		{" a , b ,", []string{"a", "b"}},
		{"one", []string{"one"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tc := range tests {
		got := splitList(tc.input)
		if len(got) != len(tc.want) {
			t.Errorf("splitList(%q) = %v, want %v", tc.input, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitList(%q)[%d] = %q, want %q", tc.input, i, got[i], tc.want[i])
			}
		}
	}
}

// ─── isConnectionError ────────────────────────────────────────────────────────

func TestIsConnectionError(t *testing.T) {
	if isConnectionError(nil) {
		t.Error("nil should not be a connection error")
	}
	tests := []struct {
		msg  string
		want bool
	}{
		{"connection reset by peer", true},
		{"unexpected EOF", true},
		{"connection refused", true},
		{"timeout waiting for response", false},
		{"some other error", false},
	}
	for _, tc := range tests {
		err := &testError{msg: tc.msg}
		got := isConnectionError(err)
		if got != tc.want {
			t.Errorf("isConnectionError(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

// ─── OutputFormat ─────────────────────────────────────────────────────────────

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  OutputFormat
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"CSV", FormatCSV},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"table", FormatTable},
		{"text", FormatTable},
		{"", FormatTable},
		{"unknown", FormatTable},
	}
	for _, tc := range tests {
		got := parseFormat(tc.input)
		if got != tc.want {
			t.Errorf("parseFormat(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		input OutputFormat
		want  string
	}{
		{FormatJSON, "json"},
		{FormatCSV, "csv"},
		{FormatYAML, "yaml"},
		{FormatTable, "table"},
	}
	for _, tc := range tests {
		got := formatName(tc.input)
		if got != tc.want {
			t.Errorf("formatName(%v) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "Name", "Value")
	tbl.AddRow("key1", "val1")
	tbl.AddRow("key2", "val2")
	tbl.Render()

	output := buf.String()
	if !strings.Contains(output, "key1") {
		t.Error("table should contain 'key1'")
	}
	if !strings.Contains(output, "val2") {
		t.Error("table should contain 'val2'")
	}
	// Should have box-drawing characters
	if !strings.Contains(output, "┌") {
		t.Error("table should have box-drawing borders")
	}
}

func TestTable_EmptyHeaders(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf)
	tbl.Render()
	if buf.Len() != 0 {
		t.Error("empty headers should produce no output")
	}
}

func TestTable_PadShortRow(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "A", "B", "C")
	tbl.AddRow("only_one") // fewer values than headers
	tbl.Render()
	// Should not panic
	if !strings.Contains(buf.String(), "only_one") {
		t.Error("table should contain the short row value")
	}
}

// ─── writeCSV ─────────────────────────────────────────────────────────────────

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	writeCSV(&buf, []string{"Service", "Channels"}, [][]string{
		{"order-service", "3"},
		{"payment-service", "2"},
	})

	r := csv.NewReader(strings.NewReader(buf.String()))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("CSV parse error: %v", err)
	}
	if len(records) != 3 { // header + 2 rows
		t.Errorf("expected 3 records, got %d", len(records))
	}
	if records[1][0] != "order-service" {
		t.Errorf("first data row = %v", records[1])
	}
}

// ─── renderRecords ────────────────────────────────────────────────────────────

func TestRenderRecords(t *testing.T) {
	var buf bytes.Buffer
	renderRecords(&buf, []core.EventRecord{
		{
			ServiceName: "order-service",
			ChannelName: "order.placed",
			Broker:      core.BrokerKafka,
			Framework:   "spring-kafka",
			Confidence:  core.ConfidenceExact,
			Sources: []core.SourceLocation{
				{RepositoryID: "github.com/acme/orders", FilePath: "src/OrderService.java", LineNumber: 42},
				{RepositoryID: "github.com/acme/orders", FilePath: "src/RetryHandler.java", LineNumber: 7},
			},
		},
	})

	output := buf.String()
	if !strings.Contains(output, "order-service") {
		t.Error("record table should contain the service name")
	}
	if !strings.Contains(output, "order.placed") {
		t.Error("record table should contain the channel name")
	}
	if !strings.Contains(output, "0.90") {
		t.Error("record table should render the confidence")
	}
	if !strings.Contains(output, "(+1)") {
		t.Error("record table should count the extra source locations")
	}
}

func TestRenderRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderRecords(&buf, nil)
	if buf.Len() != 0 {
		t.Error("no records should produce no output")
	}
}

// ─── formatUptime ─────────────────────────────────────────────────────────────

func TestFormatUptime(t *testing.T) {
	if got := formatUptime(float64(3723)); got != "1h2m3s" {
		t.Errorf("formatUptime(3723) = %q, want 1h2m3s", got)
	}
	if got := formatUptime("n/a"); got != "n/a" {
		t.Errorf("formatUptime non-number = %q, want passthrough", got)
	}
}

// ─── Shell completions ───────────────────────────────────────────────────────

func TestBashCompletions(t *testing.T) {
	s := bashCompletions()
	if !strings.Contains(s, "eventscout") {
		t.Error("bash completions should reference 'eventscout'")
	}
	if !strings.Contains(s, "complete") {
		t.Error("bash completions should contain 'complete' directive")
	}
}

func TestZshCompletions(t *testing.T) {
	s := zshCompletions()
	if !strings.Contains(s, "eventscout") {
		t.Error("zsh completions should reference 'eventscout'")
	}
}

func TestFishCompletions(t *testing.T) {
	s := fishCompletions()
	if !strings.Contains(s, "eventscout") {
		t.Error("fish completions should reference 'eventscout'")
	}
}

func TestPowershellCompletions(t *testing.T) {
	s := powershellCompletions()
	if !strings.Contains(s, "eventscout") {
		t.Error("powershell completions should reference 'eventscout'")
	}
}

// ─── Banner ───────────────────────────────────────────────────────────────────

func TestBannerText(t *testing.T) {
	b := bannerText()
	if !strings.Contains(b, "EVENT DISCOVERY") {
		t.Error("banner should contain tagline")
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()
	if !strings.Contains(output, "eventscout") {
		t.Error("version output should contain 'eventscout'")
	}
	if !strings.Contains(output, version) {
		t.Errorf("version output should contain version %q", version)
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	output := buf.String()
	if !strings.Contains(output, "COMMANDS") {
		t.Error("usage should contain COMMANDS section")
	}
	if !strings.Contains(output, "discover") {
		t.Error("usage should list 'discover' command")
	}
}
