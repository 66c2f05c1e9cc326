package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort        = 5000
	DefaultUpstreamTimeout = 10 * time.Second
)

// Config is the top-level configuration for insightcsv.
// It is constructed once by Load and treated as immutable afterwards;
// hot reload produces a fresh Config rather than mutating the old one.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Reports  []ReportConfig `yaml:"reports"`
}

// ServerConfig holds the HTTP serving settings.
type ServerConfig struct {
	// HTTPPort is the port the report API listens on (default 5000).
	HTTPPort int `yaml:"http_port"`
}

// UpstreamConfig describes the external API all reports are fetched from.
type UpstreamConfig struct {
	// BaseURL is the upstream API root, e.g. "https://api.example.com/v1".
	// Report paths are resolved relative to it.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds one upstream request end to end (default 10s).
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how requests to the upstream API are authenticated.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies the authentication mode for the upstream API.
type AuthConfig struct {
	// Mode is one of: bearer | apikey | none.
	Mode string `yaml:"mode"`

	// Bearer token fields — used when Mode == "bearer".
	// TokenEnv is the name of the environment variable that holds the token.
	TokenEnv string `yaml:"token_env"`

	// API key fields — used when Mode == "apikey".
	// Header is the HTTP header name to send the key in (default "x-api-key").
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`
}

// Token returns the bearer token resolved from the environment.
// Returns empty string if TokenEnv is unset or the variable is not found.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Key returns the API key value resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// ReportConfig defines one CSV report the service can produce.
type ReportConfig struct {
	// Name is a unique identifier; the report is served at /reports/{name}.
	Name string `yaml:"name"`

	// Path is the upstream resource path, relative to upstream.base_url.
	Path string `yaml:"path"`

	// Query holds static query parameters appended to every fetch.
	Query map[string]string `yaml:"query"`

	// RecordsPath locates the record array inside the upstream response
	// body ("data.items"). Empty means the body itself is the array.
	RecordsPath string `yaml:"records_path"`

	// GroupBy names the column used by the /summary variant. When set,
	// summary rows are grouped by this column with numeric columns
	// summed. Empty disables the summary endpoint for this report.
	GroupBy string `yaml:"group_by"`

	// Columns is the ordered column specification. Order here is the
	// column order of the emitted CSV.
	Columns []ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines one CSV column: a header name plus exactly one
// extraction rule — a path into each record, or an arithmetic expression
// over two such paths ("spend / clicks").
type ColumnConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	Expr string `yaml:"expr"`
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Upstream: UpstreamConfig{
			Timeout: DefaultUpstreamTimeout,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout must not be negative")
	}
	switch cfg.Upstream.Auth.Mode {
	case "bearer", "apikey", "none", "":
	default:
		return fmt.Errorf("upstream.auth.mode %q unknown: want bearer|apikey|none", cfg.Upstream.Auth.Mode)
	}
	if len(cfg.Reports) > 0 && cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required when reports are configured")
	}

	seen := make(map[string]bool, len(cfg.Reports))
	for i, r := range cfg.Reports {
		if r.Name == "" {
			return fmt.Errorf("reports[%d].name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("reports[%d].name %q is duplicated", i, r.Name)
		}
		seen[r.Name] = true
		if r.Path == "" {
			return fmt.Errorf("report %q: path is required", r.Name)
		}
		if len(r.Columns) == 0 {
			return fmt.Errorf("report %q: at least one column is required", r.Name)
		}
		groupByKnown := r.GroupBy == ""
		for j, c := range r.Columns {
			if c.Name == "" {
				return fmt.Errorf("report %q: columns[%d].name is required", r.Name, j)
			}
			if (c.Path == "") == (c.Expr == "") {
				return fmt.Errorf("report %q: column %q needs exactly one of path or expr", r.Name, c.Name)
			}
			if c.Name == r.GroupBy {
				groupByKnown = true
			}
		}
		if !groupByKnown {
			return fmt.Errorf("report %q: group_by %q does not match any column name", r.Name, r.GroupBy)
		}
	}
	return nil
}
