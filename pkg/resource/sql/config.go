package sql

import (
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// SQLConfig holds shared SQL datasource configuration
type SQLConfig struct {
	// Table backing table; defaults to the datasource name
	Table string `json:"table,omitempty"`
	// OrderKey column giving the natural iteration order and the final tie-break
	OrderKey string `json:"order_key,omitempty"`
	// Columns optional explicit column kinds (text, number, bool, other)
	Columns map[string]string `json:"columns,omitempty"`

	// Connection pool
	MaxOpenConns    int `json:"max_open_conns,omitempty"`
	MaxIdleConns    int `json:"max_idle_conns,omitempty"`
	ConnMaxLifetime int `json:"conn_max_lifetime,omitempty"`  // seconds
	ConnMaxIdleTime int `json:"conn_max_idle_time,omitempty"` // seconds

	// TLS/SSL
	SSLMode string `json:"ssl_mode,omitempty"`

	// MySQL-specific
	Charset   string `json:"charset,omitempty"`
	Collation string `json:"collation,omitempty"`

	// PostgreSQL-specific
	Schema string `json:"schema,omitempty"`

	// General
	ConnectTimeout int `json:"connect_timeout,omitempty"` // seconds
	// SlowThreshold queries slower than this are logged (milliseconds)
	SlowThreshold int `json:"slow_threshold,omitempty"`
}

// ParseSQLConfig extracts SQLConfig from DataSourceConfig.Options
func ParseSQLConfig(dsCfg *domain.DataSourceConfig) (*SQLConfig, error) {
	cfg := &SQLConfig{}

	if dsCfg.Options != nil {
		data, err := json.Marshal(dsCfg.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal sql config: %w", err)
		}
	}

	// Apply defaults
	if cfg.Table == "" {
		cfg.Table = dsCfg.Name
	}
	if cfg.OrderKey == "" {
		cfg.OrderKey = "id"
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = 300
	}
	if cfg.ConnMaxIdleTime <= 0 {
		cfg.ConnMaxIdleTime = 60
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 200
	}
	if cfg.Charset == "" {
		cfg.Charset = "utf8mb4"
	}
	if cfg.Collation == "" {
		cfg.Collation = "utf8mb4_unicode_ci"
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	if cfg.Table == "" {
		return nil, domain.NewErrInvalidConfig("table", "table or datasource name is required")
	}
	for col, kind := range cfg.Columns {
		if _, ok := parseColumnKind(kind); !ok {
			return nil, domain.NewErrInvalidConfig("columns."+col, "unknown column kind "+kind)
		}
	}

	return cfg, nil
}
