package core

import (
	"crypto/subtle"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the entire eventscout configuration.
type Config struct {
	Search    SearchConfig              `yaml:"search"`
	Discovery DiscoveryConfig           `yaml:"discovery"`
	Catalog   CatalogConfig             `yaml:"catalog"`
	Naming    NamingConfig              `yaml:"naming"`
	Detectors map[string]DetectorConfig `yaml:"detectors"`
	Server    ServerConfig              `yaml:"server"`
	Bus       BusConfig                 `yaml:"bus"`
	Archive   ArchiveConfig             `yaml:"archive"`
	Logging   LoggingConfig             `yaml:"logging"`
}

// SearchConfig holds the code-search collaborator settings.
type SearchConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	PageSize int    `yaml:"page_size"`
	MaxPages int    `yaml:"max_pages"`
}

// DiscoveryConfig holds discovery-run settings.
type DiscoveryConfig struct {
	Workers             int      `yaml:"workers"`
	RetryAttempts       int      `yaml:"retry_attempts"`
	RetryBackoffSeconds int      `yaml:"retry_backoff_seconds"`
	QueryTimeoutSeconds int      `yaml:"query_timeout_seconds"`
	IntervalSeconds     int      `yaml:"interval_seconds"`
	Repositories        []string `yaml:"repositories"`
	Languages           []string `yaml:"languages"`
}

// CatalogConfig holds catalog output settings.
type CatalogConfig struct {
	OutputDir   string `yaml:"output_dir"`
	KeepReports int    `yaml:"keep_reports"`
}

// NamingConfig holds service-name derivation rules and the channel
// naming policy.
type NamingConfig struct {
	Rules              []string          `yaml:"rules"`
	Markers            []string          `yaml:"markers"`
	Mappings           map[string]string `yaml:"mappings"`
	StrictChannelNames bool              `yaml:"strict_channel_names"`
}

// DetectorConfig holds per-detector configuration.
type DetectorConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	APIKeys     []string `yaml:"api_keys"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// BusConfig holds NATS catalog bus settings.
type BusConfig struct {
	URL       string `yaml:"url"`
	Embedded  bool   `yaml:"embedded"`
	DataDir   string `yaml:"data_dir"`
	Port      int    `yaml:"port"`
	ClusterID string `yaml:"cluster_id"`
}

// ArchiveConfig holds evidence archive settings (serve mode).
type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	RotateMinutes int    `yaml:"rotate_minutes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sane defaults — zero-config works out of the box.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Endpoint: "https://sourcegraph.com",
			PageSize: 50,
			MaxPages: 4,
		},
		Discovery: DiscoveryConfig{
			Workers:             4,
			RetryAttempts:       3,
			RetryBackoffSeconds: 1,
			QueryTimeoutSeconds: 30,
			IntervalSeconds:     900,
		},
		Catalog: CatalogConfig{
			OutputDir:   "./event-catalog",
			KeepReports: 20,
		},
		Naming: NamingConfig{
			Rules:   []string{RuleMapping, RuleLastSegment},
			Markers: []string{"services", "apps"},
		},
		Detectors: map[string]DetectorConfig{
			"kafka":           {Enabled: true},
			"rabbitmq":        {Enabled: true},
			"aws-sns":         {Enabled: true},
			"aws-sqs":         {Enabled: true},
			"aws-eventbridge": {Enabled: true},
			"ibm-mq":          {Enabled: true},
			"generic":         {Enabled: true},
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8380,
		},
		Bus: BusConfig{
			URL:       "nats://127.0.0.1:4222",
			Embedded:  true,
			DataDir:   "./data/nats",
			Port:      4222,
			ClusterID: "eventscout-cluster",
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			Dir:           "./data/archive",
			MaxFileSizeMB: 64,
			RotateMinutes: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from a YAML file, falling back to defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Secrets can come from the environment instead of the file
	if cfg.Search.Token == "" {
		cfg.Search.Token = os.Getenv("EVENTSCOUT_SEARCH_TOKEN")
	}
	if len(cfg.Server.APIKeys) == 0 {
		if envKey := os.Getenv("EVENTSCOUT_API_KEY"); envKey != "" {
			cfg.Server.APIKeys = []string{envKey}
		}
	}

	return cfg, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first configuration problem found, or nil.
func (c *Config) Validate() error {
	if c.Search.Endpoint != "" {
		u, err := url.Parse(c.Search.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("search.endpoint %q is not a valid URL", c.Search.Endpoint)
		}
	}
	if c.Discovery.Workers < 1 {
		return fmt.Errorf("discovery.workers must be >= 1, got %d", c.Discovery.Workers)
	}
	if c.Discovery.RetryAttempts < 0 {
		return fmt.Errorf("discovery.retry_attempts must be >= 0, got %d", c.Discovery.RetryAttempts)
	}
	if strings.TrimSpace(c.Catalog.OutputDir) == "" {
		return fmt.Errorf("catalog.output_dir must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d outside 1-65535", c.Server.Port)
	}
	for _, rule := range c.Naming.Rules {
		switch rule {
		case RuleMapping, RuleLastSegment, RuleBeforeMarker:
		default:
			return fmt.Errorf("naming.rules: unknown rule %q", rule)
		}
	}
	for name := range c.Detectors {
		if !KnownDetectorName(name) {
			return fmt.Errorf("detectors: unknown detector %q", name)
		}
	}
	return nil
}

// KnownDetectorNames lists every shipped detector name.
func KnownDetectorNames() []string {
	return []string{"kafka", "rabbitmq", "aws-sns", "aws-sqs", "aws-eventbridge", "ibm-mq", "generic"}
}

// KnownDetectorName reports whether name matches a shipped detector.
func KnownDetectorName(name string) bool {
	for _, known := range KnownDetectorNames() {
		if name == known {
			return true
		}
	}
	return false
}

// IsDetectorEnabled checks if a detector is enabled in the configuration.
// Detectors absent from the config default to enabled.
func (c *Config) IsDetectorEnabled(name string) bool {
	d, ok := c.Detectors[name]
	if !ok {
		return true
	}
	return d.Enabled
}

// QueryTimeout returns the per-query timeout as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Discovery.QueryTimeoutSeconds) * time.Second
}

// RetryBackoff returns the initial retry backoff as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Discovery.RetryBackoffSeconds) * time.Second
}

// DiscoveryInterval returns the serve-mode re-discovery interval.
func (c *Config) DiscoveryInterval() time.Duration {
	return time.Duration(c.Discovery.IntervalSeconds) * time.Second
}

// LogLevel returns the parsed log level string.
func (c *Config) LogLevel() string {
	return strings.ToLower(c.Logging.Level)
}

// AuthEnabled returns true if API key authentication is configured.
func (c *Config) AuthEnabled() bool {
	return len(c.Server.APIKeys) > 0
}

// ValidateAPIKey checks if the provided key matches any configured API key.
// Uses constant-time comparison to prevent timing attacks.
func (c *Config) ValidateAPIKey(key string) bool {
	for _, valid := range c.Server.APIKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			return true
		}
	}
	return false
}
