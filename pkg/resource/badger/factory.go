package badger

import (
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// BadgerFactory Badger 数据源工厂
type BadgerFactory struct{}

// NewBadgerFactory 创建 Badger 数据源工厂
func NewBadgerFactory() *BadgerFactory {
	return &BadgerFactory{}
}

// GetType 实现DataSourceFactory接口
func (f *BadgerFactory) GetType() domain.DataSourceType {
	return domain.DataSourceTypeBadger
}

// Create 实现DataSourceFactory接口
func (f *BadgerFactory) Create(config *domain.DataSourceConfig) (domain.DataSource, error) {
	if config == nil {
		config = &domain.DataSourceConfig{Type: domain.DataSourceTypeBadger, Name: "badger", Writable: true}
	}
	return NewDataSource(config), nil
}
