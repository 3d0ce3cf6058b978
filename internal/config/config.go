package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vango-dev/reactivity/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reactivity.json"

	// DefaultPort is the default devtools server port.
	DefaultPort = 7070

	// DefaultHost is the default devtools server host.
	DefaultHost = "localhost"

	// DefaultEventBuffer is how many devtools events are kept for replay.
	DefaultEventBuffer = 256

	// DefaultNamespace prefixes every Prometheus metric.
	DefaultNamespace = "reactivity"

	// DefaultTracerName is the OpenTelemetry instrumentation scope.
	DefaultTracerName = "github.com/vango-dev/reactivity"

	// DefaultLogLevel is the slog level used when none is configured.
	DefaultLogLevel = "info"
)

// Config represents the complete reactivity.json configuration.
type Config struct {
	// Name labels the runtime in logs, metrics and devtools.
	Name string `json:"name,omitempty"`

	// Devtools contains inspector server configuration.
	Devtools DevtoolsConfig `json:"devtools,omitempty"`

	// Metrics contains Prometheus instrumentation configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry instrumentation configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Debug mirrors the engine's debug switches.
	Debug DebugConfig `json:"debug,omitempty"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevtoolsConfig contains devtools server settings.
type DevtoolsConfig struct {
	// Port is the port to serve devtools on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// EventBuffer is the number of recent events replayed to new clients.
	EventBuffer int `json:"eventBuffer,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the Prometheus observer.
	Enabled bool `json:"enabled"`

	// Namespace prefixes metric names.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled registers the tracing observer.
	Enabled bool `json:"enabled"`

	// TracerName is the instrumentation scope name.
	TracerName string `json:"tracerName,omitempty"`
}

// DebugConfig enables engine debug output.
type DebugConfig struct {
	LogEffectRuns          bool `json:"logEffectRuns,omitempty"`
	LogTracking            bool `json:"logTracking,omitempty"`
	IncludeSourceLocations bool `json:"includeSourceLocations,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name: "default",
		Devtools: DevtoolsConfig{
			Port:        DefaultPort,
			Host:        DefaultHost,
			EventBuffer: DefaultEventBuffer,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			TracerName: DefaultTracerName,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Load reads configuration from the specified directory.
// It looks for reactivity.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C121").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.FromError(err, "C120")
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C120").
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
		return errors.FromError(err, "C120")
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.FromError(err, "C120")
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultPort
	}
	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultHost
	}
	if c.Devtools.EventBuffer == 0 {
		c.Devtools.EventBuffer = DefaultEventBuffer
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Devtools.Port < 0 || c.Devtools.Port > 65535 {
		return errors.New("C122").
			WithDetail("devtools.port must be between 0 and 65535, got " + strconv.Itoa(c.Devtools.Port))
	}
	if c.Devtools.EventBuffer < 0 {
		return errors.New("C122").
			WithDetail("devtools.eventBuffer must not be negative")
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return errors.New("C122").
			WithDetail("logLevel must be one of debug, info, warn, error; got " + strconv.Quote(c.LogLevel))
	}
	return nil
}

// DevtoolsAddress returns the listen address for the devtools server.
func (c *Config) DevtoolsAddress() string {
	return net.JoinHostPort(c.Devtools.Host, strconv.Itoa(c.Devtools.Port))
}

// SlogLevel returns LogLevel as a slog.Level. Unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing reactivity.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.FromError(err, "C120")
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C121").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent that has one.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.FromError(err, "C120")
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
