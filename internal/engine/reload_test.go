package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

func testReloadEngine() *Engine {
	cfg := core.DefaultConfig()
	logger := zerolog.Nop()
	return &Engine{
		Config:     cfg,
		Registry:   buildRegistry(cfg, logger),
		Logger:     logger,
		baseLogger: logger,
	}
}

func writeReloadConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func containsChange(changes []string, substrs ...string) bool {
	for _, c := range changes {
		ok := true
		for _, s := range substrs {
			if !strings.Contains(c, s) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestReload_EmptyPathError(t *testing.T) {
	e := testReloadEngine()
	if _, err := Reload(e, ""); err == nil {
		t.Error("expected error for empty config path")
	}
}

func TestReload_NonExistentFileUsesDefaults(t *testing.T) {
	e := testReloadEngine()
	changes, err := Reload(e, "/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsChange(changes, "no changes detected") {
		t.Errorf("expected 'no changes detected' in %v", changes)
	}
}

func TestReload_LogLevelChange(t *testing.T) {
	e := testReloadEngine()
	e.Config.Logging.Level = "info"

	path := writeReloadConfig(t, `
logging:
  level: "debug"
`)
	changes, err := Reload(e, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !containsChange(changes, "logging.level", "debug") {
		t.Errorf("expected logging level change in %v", changes)
	}
	if e.Config.LogLevel() != "debug" {
		t.Errorf("config not updated: level = %q", e.Config.LogLevel())
	}
}

func TestReload_IntervalChange(t *testing.T) {
	e := testReloadEngine()

	path := writeReloadConfig(t, `
discovery:
  interval_seconds: 120
`)
	changes, err := Reload(e, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !containsChange(changes, "discovery.interval_seconds", "120") {
		t.Errorf("expected interval change in %v", changes)
	}
	if got := e.interval(); got.Seconds() != 120 {
		t.Errorf("interval = %v, want 2m", got)
	}
}

func TestReload_NamingChangeRebuildsRegistry(t *testing.T) {
	e := testReloadEngine()
	before := e.Registry

	path := writeReloadConfig(t, `
naming:
  markers: ["services", "apps", "packages"]
`)
	changes, err := Reload(e, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !containsChange(changes, "naming rules reloaded") {
		t.Errorf("expected naming change in %v", changes)
	}
	if e.Registry == before {
		t.Error("registry should be rebuilt when naming rules change")
	}
}

func TestReload_DetectorToggle(t *testing.T) {
	e := testReloadEngine()
	if _, ok := e.Registry.Get("kafka"); !ok {
		t.Fatal("kafka detector should start enabled")
	}

	path := writeReloadConfig(t, `
detectors:
  kafka:
    enabled: false
`)
	changes, err := Reload(e, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !containsChange(changes, "detector set reloaded") {
		t.Errorf("expected detector change in %v", changes)
	}
	if _, ok := e.Registry.Get("kafka"); ok {
		t.Error("kafka detector should be gone after reload")
	}
	if e.Registry.Len() != 6 {
		t.Errorf("registry len = %d, want 6", e.Registry.Len())
	}
}

func TestReload_APIKeysReloaded(t *testing.T) {
	e := testReloadEngine()
	e.Config.Server.APIKeys = []string{"old-key"}

	path := writeReloadConfig(t, `
server:
  api_keys:
    - "new-key-1"
    - "new-key-2"
`)
	if _, err := Reload(e, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(e.Config.Server.APIKeys) != 2 {
		t.Errorf("expected 2 API keys, got %d", len(e.Config.Server.APIKeys))
	}
	if e.Config.Server.APIKeys[0] != "new-key-1" {
		t.Errorf("expected new-key-1, got %q", e.Config.Server.APIKeys[0])
	}
}

func TestReload_InvalidConfigRejected(t *testing.T) {
	e := testReloadEngine()

	path := writeReloadConfig(t, `
server:
  port: 99999
`)
	if _, err := Reload(e, path); err == nil {
		t.Fatal("expected validation error")
	}
	if e.Config.Server.Port != 8380 {
		t.Errorf("original config mutated: port = %d", e.Config.Server.Port)
	}
}
