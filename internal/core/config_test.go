package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ─── Defaults ────────────────────────────────────────────────────────────────

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.Endpoint != "https://sourcegraph.com" {
		t.Errorf("Search.Endpoint = %q", cfg.Search.Endpoint)
	}
	if cfg.Search.PageSize != 50 || cfg.Search.MaxPages != 4 {
		t.Errorf("search paging = %d/%d, want 50/4", cfg.Search.PageSize, cfg.Search.MaxPages)
	}
	if cfg.Discovery.Workers != 4 {
		t.Errorf("Discovery.Workers = %d, want 4", cfg.Discovery.Workers)
	}
	if cfg.Discovery.RetryAttempts != 3 {
		t.Errorf("Discovery.RetryAttempts = %d, want 3", cfg.Discovery.RetryAttempts)
	}
	if cfg.Catalog.OutputDir != "./event-catalog" {
		t.Errorf("Catalog.OutputDir = %q", cfg.Catalog.OutputDir)
	}
	if cfg.Server.Port != 8380 {
		t.Errorf("Server.Port = %d, want 8380", cfg.Server.Port)
	}
	if !cfg.Bus.Embedded {
		t.Error("Bus.Embedded should default to true")
	}
	if cfg.Archive.Enabled {
		t.Error("Archive.Enabled should default to false")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	for _, name := range []string{"kafka", "rabbitmq", "aws-sns", "aws-sqs", "aws-eventbridge", "ibm-mq", "generic"} {
		if !cfg.IsDetectorEnabled(name) {
			t.Errorf("detector %q should be enabled by default", name)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// ─── Load / Save ─────────────────────────────────────────────────────────────

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Server.Port != 8380 {
		t.Errorf("missing file should yield defaults, got port %d", cfg.Server.Port)
	}
}

func TestLoadConfig_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := []byte("discovery:\n  workers: 9\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, partial, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Discovery.Workers != 9 {
		t.Errorf("Discovery.Workers = %d, want file value 9", cfg.Discovery.Workers)
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	// Untouched sections keep their defaults.
	if cfg.Search.PageSize != 50 {
		t.Errorf("Search.PageSize = %d, want default 50", cfg.Search.PageSize)
	}
}

func TestLoadConfig_EnvFallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("search:\n  page_size: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EVENTSCOUT_SEARCH_TOKEN", "sgp_token_from_env")
	t.Setenv("EVENTSCOUT_API_KEY", "key_from_env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Search.Token != "sgp_token_from_env" {
		t.Errorf("Search.Token = %q, want env fallback", cfg.Search.Token)
	}
	if !cfg.AuthEnabled() || !cfg.ValidateAPIKey("key_from_env") {
		t.Error("API key from environment should be accepted")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Discovery.Repositories = []string{"github.com/acme/order-service"}
	cfg.Naming.Mappings = map[string]string{"a/b": "svc-b"}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	back, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if len(back.Discovery.Repositories) != 1 || back.Discovery.Repositories[0] != "github.com/acme/order-service" {
		t.Errorf("Repositories = %v", back.Discovery.Repositories)
	}
	if back.Naming.Mappings["a/b"] != "svc-b" {
		t.Errorf("Mappings = %v", back.Naming.Mappings)
	}
}

// ─── Validate ────────────────────────────────────────────────────────────────

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(c *Config)
	}{
		{"bad endpoint", func(c *Config) { c.Search.Endpoint = "not a url" }},
		{"zero workers", func(c *Config) { c.Discovery.Workers = 0 }},
		{"negative retries", func(c *Config) { c.Discovery.RetryAttempts = -1 }},
		{"empty output dir", func(c *Config) { c.Catalog.OutputDir = " " }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown rule", func(c *Config) { c.Naming.Rules = []string{"by-vibes"} }},
		{"unknown detector", func(c *Config) { c.Detectors["zeromq"] = DetectorConfig{Enabled: true} }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mut(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestConfig_IsDetectorEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detectors["kafka"] = DetectorConfig{Enabled: false}
	if cfg.IsDetectorEnabled("kafka") {
		t.Error("explicitly disabled detector should be off")
	}
	delete(cfg.Detectors, "generic")
	if !cfg.IsDetectorEnabled("generic") {
		t.Error("absent detector should default to enabled")
	}
}

func TestConfig_ValidateAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AuthEnabled() {
		t.Error("no keys configured: auth should be disabled")
	}
	cfg.Server.APIKeys = []string{"alpha", "beta"}
	if !cfg.ValidateAPIKey("beta") {
		t.Error("configured key should validate")
	}
	if cfg.ValidateAPIKey("gamma") {
		t.Error("unknown key should not validate")
	}
}

func TestConfig_DurationHelpers(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.QueryTimeout() != 30*time.Second {
		t.Errorf("QueryTimeout() = %v", cfg.QueryTimeout())
	}
	if cfg.RetryBackoff() != time.Second {
		t.Errorf("RetryBackoff() = %v", cfg.RetryBackoff())
	}
	if cfg.DiscoveryInterval() != 15*time.Minute {
		t.Errorf("DiscoveryInterval() = %v", cfg.DiscoveryInterval())
	}
}
