package sql

import (
	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// Factory SQL 数据源工厂，一个方言一个实例
type Factory struct {
	dsType domain.DataSourceType
	logger logger.Logger
}

// NewFactory 创建指定类型的 SQL 数据源工厂
func NewFactory(dsType domain.DataSourceType, l logger.Logger) *Factory {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &Factory{dsType: dsType, logger: l}
}

// GetType 实现DataSourceFactory接口
func (f *Factory) GetType() domain.DataSourceType {
	return f.dsType
}

// Create 实现DataSourceFactory接口
func (f *Factory) Create(config *domain.DataSourceConfig) (domain.DataSource, error) {
	if config == nil {
		return nil, domain.NewErrInvalidConfig("config", "nil datasource config")
	}
	cfg := *config
	cfg.Type = f.dsType
	return NewDataSource(&cfg, WithLogger(f.logger))
}
