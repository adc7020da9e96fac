package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// EnvPrefix 环境变量前缀，GRIDSOURCE_SERVER_PORT 对应 server.port
const EnvPrefix = "GRIDSOURCE"

// EnvConfigPath 指定配置文件路径的环境变量
const EnvConfigPath = "GRIDSOURCE_CONFIG"

// Config 应用程序配置
type Config struct {
	Server   ServerConfig    `mapstructure:"server" json:"server"`
	Log      LogConfig       `mapstructure:"log" json:"log"`
	Window   WindowConfig    `mapstructure:"window" json:"window"`
	MCP      MCPConfig       `mapstructure:"mcp" json:"mcp"`
	Metrics  MetricsConfig   `mapstructure:"metrics" json:"metrics"`
	Datasets []DatasetConfig `mapstructure:"datasets" json:"datasets"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host" json:"host"`
	Port            int           `mapstructure:"port" json:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin" json:"cors_origin"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	Format     string `mapstructure:"format" json:"format"` // json or text
	File       string `mapstructure:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days"`
}

// WindowConfig 数据窗口请求的限制和演示用注入，0 表示不限制
type WindowConfig struct {
	// MaxEndRow endRow 的开区间上限，endRow 达到它时返回 "Too many rows requested."
	MaxEndRow int `mapstructure:"max_end_row" json:"max_end_row"`
	// MaxPageSize 单次请求的最大行数
	MaxPageSize int `mapstructure:"max_page_size" json:"max_page_size"`
	// MaxConcurrentRequests 每个会话同时处理的请求数
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests" json:"max_concurrent_requests"`
	// QueueTimeout 等待并发名额的最长时间
	QueueTimeout time.Duration `mapstructure:"queue_timeout" json:"queue_timeout"`
	// RequestsPerSecond 每个会话的请求速率
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second"`
	Burst             int     `mapstructure:"burst" json:"burst"`
	// SimulatedLatency 每个请求额外等待的时间
	SimulatedLatency time.Duration `mapstructure:"simulated_latency" json:"simulated_latency"`
	// FailureRate 请求被注入失败的概率 [0, 1]
	FailureRate float64 `mapstructure:"failure_rate" json:"failure_rate"`
	// Pushdown 是否允许下推到支持过滤的数据源
	Pushdown bool `mapstructure:"pushdown" json:"pushdown"`
}

// MCPConfig MCP 服务配置
type MCPConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	Transport string `mapstructure:"transport" json:"transport"` // stdio or http
	Addr      string `mapstructure:"addr" json:"addr"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" json:"path"`
}

// DatasetConfig 数据集配置
type DatasetConfig struct {
	Name        string                  `mapstructure:"name" json:"name"`
	Title       string                  `mapstructure:"title" json:"title"`
	Description string                  `mapstructure:"description" json:"description"`
	Fixture     string                  `mapstructure:"fixture" json:"fixture"`
	SeedRows    int                     `mapstructure:"seed_rows" json:"seed_rows"`
	FakerSeed   int64                   `mapstructure:"faker_seed" json:"faker_seed"`
	Source      domain.DataSourceConfig `mapstructure:"source" json:"source"`
	Columns     []domain.ColumnDef      `mapstructure:"columns" json:"columns"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigin:      "*",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Window: WindowConfig{
			MaxEndRow:             150,
			MaxConcurrentRequests: 4,
			QueueTimeout:          5 * time.Second,
			Burst:                 1,
			Pushdown:              true,
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      ":8081",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Datasets: DefaultDatasets(),
	}
}

// DefaultDatasets 内置示例数据集，都在内存中
func DefaultDatasets() []DatasetConfig {
	return []DatasetConfig{
		{
			Name:        "cars",
			Title:       "Cars",
			Description: "Three cars with make, model and price.",
			Fixture:     "cars",
		},
		{
			Name:        "friends",
			Title:       "Friends",
			Description: "Generated friends; more can be generated on demand.",
			Fixture:     "friends",
			SeedRows:    200,
			FakerSeed:   1,
			Source:      domain.DataSourceConfig{Type: domain.DataSourceTypeMemory, Writable: true},
		},
		{
			Name:        "files",
			Title:       "Files",
			Description: "A file tree flattened into path strings.",
			Fixture:     "files",
		},
	}
}

// setDefaults 注册所有标量键，使环境变量能覆盖嵌套配置
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.read_timeout", c.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", c.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origin", c.Server.CORSOrigin)

	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.max_age_days", c.Log.MaxAgeDays)

	v.SetDefault("window.max_end_row", c.Window.MaxEndRow)
	v.SetDefault("window.max_page_size", c.Window.MaxPageSize)
	v.SetDefault("window.max_concurrent_requests", c.Window.MaxConcurrentRequests)
	v.SetDefault("window.queue_timeout", c.Window.QueueTimeout)
	v.SetDefault("window.requests_per_second", c.Window.RequestsPerSecond)
	v.SetDefault("window.burst", c.Window.Burst)
	v.SetDefault("window.simulated_latency", c.Window.SimulatedLatency)
	v.SetDefault("window.failure_rate", c.Window.FailureRate)
	v.SetDefault("window.pushdown", c.Window.Pushdown)

	v.SetDefault("mcp.enabled", c.MCP.Enabled)
	v.SetDefault("mcp.transport", c.MCP.Transport)
	v.SetDefault("mcp.addr", c.MCP.Addr)

	v.SetDefault("metrics.enabled", c.Metrics.Enabled)
	v.SetDefault("metrics.path", c.Metrics.Path)
}

// LoadConfig 从文件加载配置，configPath 为空时只使用默认值和环境变量
// 支持 JSON 和 YAML，文件中没有 datasets 时使用内置示例数据集
func LoadConfig(configPath string) (*Config, error) {
	defaults := DefaultConfig()

	v := viper.New()
	setDefaults(v, defaults)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		// 检查配置文件是否存在
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if !v.IsSet("datasets") {
		config.Datasets = defaults.Datasets
	}

	// 验证配置
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigOrDefault 依次尝试 GRIDSOURCE_CONFIG 和常见位置的配置文件
func LoadConfigOrDefault() (*Config, error) {
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return LoadConfig(envPath)
	}

	possiblePaths := []string{
		"gridsource.yaml",
		"gridsource.json",
		"./config/gridsource.yaml",
		"/etc/gridsource/gridsource.yaml",
	}
	for _, path := range possiblePaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return LoadConfig(absPath)
		}
	}

	return LoadConfig("")
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return domain.NewErrInvalidConfig("server.port", fmt.Sprintf("invalid port %d", config.Server.Port))
	}

	if _, err := logger.ParseLevel(config.Log.Level); err != nil {
		return domain.NewErrInvalidConfig("log.level", err.Error())
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return domain.NewErrInvalidConfig("log.format", "must be text or json")
	}

	w := config.Window
	if w.MaxEndRow < 0 || w.MaxPageSize < 0 || w.MaxConcurrentRequests < 0 {
		return domain.NewErrInvalidConfig("window", "limits cannot be negative")
	}
	if w.RequestsPerSecond < 0 {
		return domain.NewErrInvalidConfig("window.requests_per_second", "cannot be negative")
	}
	if w.RequestsPerSecond > 0 && w.Burst < 1 {
		return domain.NewErrInvalidConfig("window.burst", "must be at least 1 when rate limiting")
	}
	if w.FailureRate < 0 || w.FailureRate > 1 {
		return domain.NewErrInvalidConfig("window.failure_rate", "must be within [0, 1]")
	}
	if w.SimulatedLatency < 0 {
		return domain.NewErrInvalidConfig("window.simulated_latency", "cannot be negative")
	}

	if config.MCP.Enabled && config.MCP.Transport != "stdio" && config.MCP.Transport != "http" {
		return domain.NewErrInvalidConfig("mcp.transport", "must be stdio or http")
	}

	seen := make(map[string]bool, len(config.Datasets))
	for i, ds := range config.Datasets {
		if ds.Name == "" {
			return domain.NewErrInvalidConfig(fmt.Sprintf("datasets[%d].name", i), "name is required")
		}
		if seen[ds.Name] {
			return domain.NewErrInvalidConfig("datasets", "duplicate dataset "+ds.Name)
		}
		seen[ds.Name] = true
	}

	return nil
}

// GetListenAddress 返回监听地址
func (c *Config) GetListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoggerConfig 转换为 logger.Config
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}
