package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// 验证服务器配置
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", config.GetListenAddress())

	// 验证日志配置
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)

	// 验证窗口限制
	assert.Equal(t, 150, config.Window.MaxEndRow)
	assert.Equal(t, 4, config.Window.MaxConcurrentRequests)
	assert.True(t, config.Window.Pushdown)
	assert.Zero(t, config.Window.FailureRate)

	assert.Len(t, config.Datasets, 3)
	assert.NoError(t, validateConfig(config))
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridsource.yaml")
	content := `
server:
  port: 9090
log:
  level: debug
window:
  max_end_row: 500
  simulated_latency: 250ms
  failure_rate: 0.1
datasets:
  - name: friends
    fixture: friends
    seed_rows: 20
    source:
      type: sqlite
      database: ` + filepath.Join(dir, "friends.db") + `
      writable: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host, "unset keys keep defaults")
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, 500, config.Window.MaxEndRow)
	assert.Equal(t, 250*time.Millisecond, config.Window.SimulatedLatency)
	assert.Equal(t, 0.1, config.Window.FailureRate)

	require.Len(t, config.Datasets, 1)
	ds := config.Datasets[0]
	assert.Equal(t, "friends", ds.Name)
	assert.Equal(t, 20, ds.SeedRows)
	assert.Equal(t, domain.DataSourceTypeSQLite, ds.Source.Type)
	assert.True(t, ds.Source.Writable)
}

func TestLoadConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridsource.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": 7000}, "mcp": {"enabled": true, "transport": "http"}}`), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, config.Server.Port)
	assert.True(t, config.MCP.Enabled)
	assert.Len(t, config.Datasets, 3, "no datasets in file means defaults")
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("GRIDSOURCE_SERVER_PORT", "9191")
	t.Setenv("GRIDSOURCE_WINDOW_MAX_END_ROW", "1000")
	t.Setenv("GRIDSOURCE_WINDOW_QUEUE_TIMEOUT", "1s")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9191, config.Server.Port)
	assert.Equal(t, 1000, config.Window.MaxEndRow)
	assert.Equal(t, time.Second, config.Window.QueueTimeout)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigOrDefault_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": 6060}}`), 0o644))
	t.Setenv(EnvConfigPath, path)

	config, err := LoadConfigOrDefault()
	require.NoError(t, err)
	assert.Equal(t, 6060, config.Server.Port)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		key    string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative limit", func(c *Config) { c.Window.MaxEndRow = -1 }, "window"},
		{"burst", func(c *Config) { c.Window.RequestsPerSecond = 5; c.Window.Burst = 0 }, "window.burst"},
		{"failure rate", func(c *Config) { c.Window.FailureRate = 1.5 }, "window.failure_rate"},
		{"mcp transport", func(c *Config) { c.MCP.Enabled = true; c.MCP.Transport = "carrier-pigeon" }, "mcp.transport"},
		{"dataset name", func(c *Config) { c.Datasets[0].Name = "" }, "datasets[0].name"},
		{"duplicate dataset", func(c *Config) { c.Datasets[1].Name = c.Datasets[0].Name }, "datasets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := validateConfig(config)
			var cfgErr *domain.ErrInvalidConfig
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.key, cfgErr.ConfigKey)
		})
	}
}

func TestConfig_LoggerConfig(t *testing.T) {
	config := DefaultConfig()
	config.Log.File = "/var/log/gridsource.log"
	lc := config.LoggerConfig()
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "/var/log/gridsource.log", lc.File)
	assert.Equal(t, 100, lc.MaxSizeMB)
}
