package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-go/tablequery/internal/errors"
	"github.com/vango-go/tablequery/pkg/tablequery"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "tablequery.json"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultShutdownTimeout is the default graceful shutdown window.
	DefaultShutdownTimeout = "10s"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "tablequery"

	// DefaultMetricsPath is the default metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "tablequery"
)

// Config represents the complete tablequery.json configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server"`

	// Table contains codec configuration.
	Table TableConfig `json:"table"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing"`

	// Log contains logging configuration.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the listen address (e.g., ":8080").
	Address string `json:"address,omitempty"`

	// ShutdownTimeout is how long open connections get to drain (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`

	// AllowedOrigins lists extra origins allowed to open the live channel.
	// Same-origin requests are always allowed.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// TableConfig contains codec settings.
type TableConfig struct {
	// DefaultLimit is the page size used when the URL has none.
	DefaultLimit int `json:"defaultLimit,omitempty"`

	// DefaultPage is the page used when the URL has none.
	DefaultPage int `json:"defaultPage,omitempty"`

	// NumericPolicy is "keep" or "fallback".
	NumericPolicy string `json:"numericPolicy,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`
	Path      string `json:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled"`
	TracerName string `json:"tracerName,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         DefaultAddress,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Table: TableConfig{
			DefaultLimit:  tablequery.DefaultLimit,
			DefaultPage:   tablequery.DefaultPage,
			NumericPolicy: tablequery.NumericKeepInvalid.String(),
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
			Path:      DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for tablequery.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("T121").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or omit --config to use defaults")
		}
		return nil, errors.New("T120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("T120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads dir's config file, or returns defaults when there is
// none. Parse and validation errors are still returned.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("T120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("T120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Table.DefaultLimit == 0 {
		c.Table.DefaultLimit = tablequery.DefaultLimit
	}
	if c.Table.DefaultPage == 0 {
		c.Table.DefaultPage = tablequery.DefaultPage
	}
	if c.Table.NumericPolicy == "" {
		c.Table.NumericPolicy = tablequery.NumericKeepInvalid.String()
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.ShutdownTimeout(); err != nil {
		return errors.New("T122").
			WithInput(c.Server.ShutdownTimeout).
			WithDetail("server.shutdownTimeout must be a positive duration such as \"10s\"").
			Wrap(err)
	}
	if c.Table.DefaultLimit < 1 {
		return errors.New("T122").
			WithDetail("table.defaultLimit must be at least 1")
	}
	if c.Table.DefaultPage < 1 {
		return errors.New("T122").
			WithDetail("table.defaultPage must be at least 1")
	}
	if _, err := tablequery.ParseNumericPolicy(c.Table.NumericPolicy); err != nil {
		return errors.New("T122").
			WithInput(c.Table.NumericPolicy).
			WithSuggestion("Use \"keep\" or \"fallback\"")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("T122").
			WithInput(c.Metrics.Path).
			WithDetail("metrics.path must start with /")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return errors.New("T122").
			WithInput(c.Log.Level).
			WithSuggestion("Use debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("T122").
			WithInput(c.Log.Format).
			WithSuggestion("Use text or json")
	}
	return nil
}

// ShutdownTimeout parses Server.ShutdownTimeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.Newf(errors.CategoryConfig, "shutdown timeout must be positive, got %s", d)
	}
	return d, nil
}

// CodecOptions returns the codec options described by the Table section.
// The config must have passed Validate.
func (c *Config) CodecOptions() []tablequery.Option {
	policy, _ := tablequery.ParseNumericPolicy(c.Table.NumericPolicy)
	return []tablequery.Option{
		tablequery.WithDefaults(c.Table.DefaultLimit, c.Table.DefaultPage),
		tablequery.WithNumericPolicy(policy),
	}
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}

// NewLogger builds a logger writing to w according to the Log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if c.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
