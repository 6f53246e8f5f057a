package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "knutd.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
server:
  stream:
    enabled: true
    address: "127.0.0.1:9080"
    heartbeat: 2s
  prefix:
    enabled: true
    address: "127.0.0.1:9081"
  websocket:
    enabled: true
    address: "127.0.0.1:9765"
  max_message_size: 32768
log:
  level: debug
  format: json
  capture: /var/log/knut/events.cbor
location:
  id: home
  name: Hamburg
  latitude: 53.5511
  longitude: 9.9937
  elevation: 6
lights:
  - id: ceiling
    location: Living room
    room: living
    has_dimlevel: true
  - id: shelf
    location: Living room shelf
    room: living
    has_temperature: true
    has_color: true
    color_cold: "#f5fffa"
    color_warm: "#ffdead"
temperature:
  poll_interval: 30s
  history_size: 720
  backends:
    - id: garden
      location: Garden
    - id: attic
      location: Attic
tasks:
  dir: /var/lib/knut/tasks
discovery:
  enabled: false
  instance: knut-test
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Server.Stream.Enabled)
	assert.Equal(t, "127.0.0.1:9080", cfg.Server.Stream.Address)
	assert.Equal(t, 2*time.Second, cfg.Server.Stream.Heartbeat.Duration())
	assert.True(t, cfg.Server.Prefix.Enabled)
	assert.True(t, cfg.Server.WebSocket.Enabled)
	assert.Equal(t, 32768, cfg.Server.MaxMessageSize)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/var/log/knut/events.cbor", cfg.Log.Capture)

	assert.Equal(t, "home", cfg.Location.ID)
	assert.Equal(t, "Hamburg", cfg.Location.Name)
	assert.InDelta(t, 53.5511, cfg.Location.Latitude, 1e-9)

	require.Len(t, cfg.Lights, 2)
	assert.Equal(t, "ceiling", cfg.Lights[0].ID)
	assert.True(t, cfg.Lights[0].HasDimlevel)
	assert.Equal(t, "living", cfg.Lights[1].Room)
	assert.Equal(t, "#ffdead", cfg.Lights[1].ColorWarm)

	assert.Equal(t, 30*time.Second, cfg.Temperature.PollInterval.Duration())
	assert.Equal(t, 720, cfg.Temperature.HistorySize)
	require.Len(t, cfg.Temperature.Backends, 2)
	assert.Equal(t, "garden", cfg.Temperature.Backends[0].ID)

	assert.Equal(t, "/var/lib/knut/tasks", cfg.Tasks.Dir)
	assert.False(t, cfg.Discovery.Enabled)
	assert.Equal(t, "knut-test", cfg.Discovery.Instance)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Server.Stream.Enabled, "stream binding on by default")
	assert.Equal(t, ":8080", cfg.Server.Stream.Address)
	assert.False(t, cfg.Server.Prefix.Enabled)
	assert.False(t, cfg.Server.WebSocket.Enabled)
	assert.Zero(t, cfg.Server.Stream.Heartbeat, "transport picks the cadence")

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.Empty(t, cfg.Location.ID, "local capability off by default")
	assert.Empty(t, cfg.Tasks.Dir)
	assert.True(t, cfg.Discovery.Enabled)
	assert.Equal(t, "knut", cfg.Discovery.Instance)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoadBrokenYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a, mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBrokenDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  stream:
    heartbeat: fast
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("KNUT_TEST_TASK_DIR", "/tmp/knut-tasks")

	path := writeConfig(t, `
tasks:
  dir: ${KNUT_TEST_TASK_DIR}
discovery:
  instance: ${KNUT_TEST_INSTANCE:fallback}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/knut-tasks", cfg.Tasks.Dir)
	assert.Equal(t, "fallback", cfg.Discovery.Instance)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "unknown level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "unknown format",
		},
		{
			name:    "no binding enabled",
			mutate:  func(c *Config) { c.Server.Stream.Enabled = false },
			wantErr: "no binding enabled",
		},
		{
			name: "enabled binding without address",
			mutate: func(c *Config) {
				c.Server.Prefix.Enabled = true
				c.Server.Prefix.Address = ""
			},
			wantErr: "without address",
		},
		{
			name:    "latitude out of range",
			mutate:  func(c *Config) { c.Location.Latitude = 91 },
			wantErr: "latitude",
		},
		{
			name:    "longitude out of range",
			mutate:  func(c *Config) { c.Location.Longitude = -181 },
			wantErr: "longitude",
		},
		{
			name: "light without id",
			mutate: func(c *Config) {
				c.Lights = []LightConfig{{Room: "hall"}}
			},
			wantErr: "id is required",
		},
		{
			name: "light without room",
			mutate: func(c *Config) {
				c.Lights = []LightConfig{{ID: "ceiling"}}
			},
			wantErr: "room is required",
		},
		{
			name: "duplicate light id",
			mutate: func(c *Config) {
				c.Lights = []LightConfig{
					{ID: "ceiling", Room: "hall"},
					{ID: "ceiling", Room: "study"},
				}
			},
			wantErr: "not unique",
		},
		{
			name: "duplicate temperature backend",
			mutate: func(c *Config) {
				c.Temperature.Backends = []TemperatureBackendConfig{
					{ID: "garden"},
					{ID: "garden"},
				}
			},
			wantErr: "not unique",
		},
		{
			name:    "negative history size",
			mutate:  func(c *Config) { c.Temperature.HistorySize = -1 },
			wantErr: "history size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
