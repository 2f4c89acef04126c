package engine

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

// Reload re-reads the configuration file and applies the settings that can
// change without a restart. Returns a list of what changed.
//
// Hot-reloadable:
//   - logging level
//   - discovery interval and repository/language filters
//   - naming rules and channel-name policy
//   - detector enable/disable (the registry is rebuilt between runs)
//   - API keys and CORS origins
//
// NOT hot-reloadable (require restart):
//   - bus config (NATS URL, port, data dir)
//   - server host/port
//   - search endpoint and token
//   - catalog output directory
func Reload(e *Engine, configPath string) ([]string, error) {
	if configPath == "" {
		return nil, fmt.Errorf("no config path set, cannot reload")
	}

	newCfg, err := core.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := newCfg.Validate(); err != nil {
		return nil, fmt.Errorf("rejecting reload: %w", err)
	}

	var changes []string

	e.cfgMu.Lock()

	if newCfg.LogLevel() != e.Config.LogLevel() {
		e.Config.Logging.Level = newCfg.Logging.Level
		zerolog.SetGlobalLevel(parseLevel(newCfg.Logging.Level))
		changes = append(changes, "logging.level -> "+newCfg.LogLevel())
	}

	if newCfg.Discovery.IntervalSeconds != e.Config.Discovery.IntervalSeconds {
		e.Config.Discovery.IntervalSeconds = newCfg.Discovery.IntervalSeconds
		changes = append(changes, fmt.Sprintf("discovery.interval_seconds -> %d", newCfg.Discovery.IntervalSeconds))
	}
	if len(newCfg.Discovery.Repositories) != len(e.Config.Discovery.Repositories) {
		changes = append(changes, fmt.Sprintf("discovery.repositories -> %d filters", len(newCfg.Discovery.Repositories)))
	}
	e.Config.Discovery.Repositories = newCfg.Discovery.Repositories
	e.Config.Discovery.Languages = newCfg.Discovery.Languages

	namingChanged := !reflect.DeepEqual(e.Config.Naming, newCfg.Naming)
	if namingChanged {
		e.Config.Naming = newCfg.Naming
		changes = append(changes, "naming rules reloaded")
	}
	detectorsChanged := !reflect.DeepEqual(e.Config.Detectors, newCfg.Detectors)
	if detectorsChanged {
		e.Config.Detectors = newCfg.Detectors
		changes = append(changes, "detector set reloaded")
	}

	// Key rotation without a restart: copy unconditionally.
	e.Config.Server.APIKeys = newCfg.Server.APIKeys
	e.Config.Server.CORSOrigins = newCfg.Server.CORSOrigins

	e.cfgMu.Unlock()

	if namingChanged || detectorsChanged {
		// Swapped between runs: the run mutex keeps an in-flight run on
		// the registry it started with.
		e.runMu.Lock()
		e.Registry = buildRegistry(e.Config, e.baseLogger)
		e.runMu.Unlock()
	}

	if len(changes) == 0 {
		changes = append(changes, "no changes detected")
	}

	e.Logger.Info().Strs("changes", changes).Msg("configuration reloaded")
	return changes, nil
}
