package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete gateway configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Location    LocationConfig    `yaml:"location"`
	Lights      []LightConfig     `yaml:"lights"`
	Temperature TemperatureConfig `yaml:"temperature"`
	Tasks       TasksConfig       `yaml:"tasks"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
}

// ServerConfig declares the transport bindings.
type ServerConfig struct {
	Stream    Binding `yaml:"stream"`
	Prefix    Binding `yaml:"prefix"`
	WebSocket Binding `yaml:"websocket"`

	// MaxMessageSize bounds a single frame payload in bytes. Zero
	// selects the transport default.
	MaxMessageSize int `yaml:"max_message_size"`
}

// Binding is one listen endpoint.
type Binding struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`

	// Heartbeat overrides the binding's default heartbeat cadence.
	Heartbeat Duration `yaml:"heartbeat"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn or error
	Format string `yaml:"format"` // console or json

	// Capture is the protocol event capture file. Empty disables
	// capture.
	Capture string `yaml:"capture"`
}

// LocationConfig describes the observed location. An empty id disables
// the local capability.
type LocationConfig struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Elevation float64 `yaml:"elevation"`
}

// LightConfig declares one light.
type LightConfig struct {
	ID             string `yaml:"id"`
	Location       string `yaml:"location"`
	Room           string `yaml:"room"`
	HasDimlevel    bool   `yaml:"has_dimlevel"`
	HasTemperature bool   `yaml:"has_temperature"`
	HasColor       bool   `yaml:"has_color"`
	ColorCold      string `yaml:"color_cold"`
	ColorWarm      string `yaml:"color_warm"`
}

// TemperatureConfig declares the temperature backends and the poller.
type TemperatureConfig struct {
	PollInterval Duration                   `yaml:"poll_interval"`
	HistorySize  int                        `yaml:"history_size"`
	Backends     []TemperatureBackendConfig `yaml:"backends"`
}

// TemperatureBackendConfig declares one temperature backend.
type TemperatureBackendConfig struct {
	ID       string `yaml:"id"`
	Location string `yaml:"location"`
}

// TasksConfig contains task persistence settings. An empty dir keeps
// tasks in memory only.
type TasksConfig struct {
	Dir string `yaml:"dir"`
}

// DiscoveryConfig contains mDNS advertisement settings.
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`

	// Interface restricts advertising to one network interface.
	// Empty advertises on all interfaces.
	Interface string `yaml:"interface"`
}

// Default returns the configuration used when no file overrides it:
// the stream binding on :8080 and console logging at info level.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Stream:    Binding{Enabled: true, Address: ":8080"},
			Prefix:    Binding{Address: ":8081"},
			WebSocket: Binding{Address: ":8765"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Discovery: DiscoveryConfig{
			Enabled:  true,
			Instance: "knut",
		},
	}
}

// Load reads, expands and validates the configuration file. Values not
// present in the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}

	bindings := []struct {
		name string
		b    Binding
	}{
		{"stream", c.Server.Stream},
		{"prefix", c.Server.Prefix},
		{"websocket", c.Server.WebSocket},
	}

	enabled := 0
	for _, bind := range bindings {
		if !bind.b.Enabled {
			continue
		}
		enabled++
		if bind.b.Address == "" {
			return fmt.Errorf("server: %s binding without address", bind.name)
		}
		if bind.b.Heartbeat < 0 {
			return fmt.Errorf("server: %s binding with negative heartbeat", bind.name)
		}
	}
	if enabled == 0 {
		return errors.New("server: no binding enabled")
	}
	if c.Server.MaxMessageSize < 0 {
		return errors.New("server: negative max message size")
	}

	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("location: latitude %v out of range", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("location: longitude %v out of range", c.Location.Longitude)
	}

	lightIDs := make(map[string]struct{}, len(c.Lights))
	for i, l := range c.Lights {
		if l.ID == "" {
			return fmt.Errorf("lights[%d]: id is required", i)
		}
		if l.Room == "" {
			return fmt.Errorf("lights[%d] %q: room is required", i, l.ID)
		}
		if _, ok := lightIDs[l.ID]; ok {
			return fmt.Errorf("lights[%d]: id %q is not unique", i, l.ID)
		}
		lightIDs[l.ID] = struct{}{}
	}

	if c.Temperature.PollInterval < 0 {
		return errors.New("temperature: negative poll interval")
	}
	if c.Temperature.HistorySize < 0 {
		return errors.New("temperature: negative history size")
	}
	backendIDs := make(map[string]struct{}, len(c.Temperature.Backends))
	for i, b := range c.Temperature.Backends {
		if b.ID == "" {
			return fmt.Errorf("temperature backends[%d]: id is required", i)
		}
		if _, ok := backendIDs[b.ID]; ok {
			return fmt.Errorf("temperature backends[%d]: id %q is not unique", i, b.ID)
		}
		backendIDs[b.ID] = struct{}{}
	}

	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "1s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// envPattern matches ${VAR} and ${VAR:default}.
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnv substitutes ${VAR} references with the environment value,
// falling back to the default after the colon.
func expandEnv(input string) string {
	return envPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
}
