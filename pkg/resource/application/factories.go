package application

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/badger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/excel"
	"github.com/kasuganosora/gridsource/pkg/resource/memory"
	sqlsource "github.com/kasuganosora/gridsource/pkg/resource/sql"
)

// ==================== 工厂注册表 ====================

// FactoryRegistry 数据源工厂注册表
type FactoryRegistry struct {
	factories map[domain.DataSourceType]domain.DataSourceFactory
	mu        sync.RWMutex
}

// NewFactoryRegistry 创建空的工厂注册表
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{
		factories: make(map[domain.DataSourceType]domain.DataSourceFactory),
	}
}

// NewDefaultFactoryRegistry 创建注册了所有内置数据源类型的工厂注册表
func NewDefaultFactoryRegistry(l logger.Logger) *FactoryRegistry {
	r := NewFactoryRegistry()
	r.MustRegister(memory.NewMemoryFactory())
	r.MustRegister(badger.NewBadgerFactory())
	r.MustRegister(excel.NewExcelFactory())
	r.MustRegister(sqlsource.NewFactory(domain.DataSourceTypeSQLite, l))
	r.MustRegister(sqlsource.NewFactory(domain.DataSourceTypeMySQL, l))
	r.MustRegister(sqlsource.NewFactory(domain.DataSourceTypePostgreSQL, l))
	return r
}

// Register 注册数据源工厂
func (r *FactoryRegistry) Register(factory domain.DataSourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factoryType := factory.GetType()
	if _, exists := r.factories[factoryType]; exists {
		return fmt.Errorf("factory %s already registered", factoryType)
	}

	r.factories[factoryType] = factory
	return nil
}

// MustRegister 注册数据源工厂，重复注册时 panic
func (r *FactoryRegistry) MustRegister(factory domain.DataSourceFactory) {
	if err := r.Register(factory); err != nil {
		panic(err)
	}
}

// Get 获取数据源工厂
func (r *FactoryRegistry) Get(factoryType domain.DataSourceType) (domain.DataSourceFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[factoryType]
	if !ok {
		return nil, domain.NewErrInvalidConfig("type", fmt.Sprintf("unsupported data source type %q", factoryType))
	}
	return factory, nil
}

// Create 使用工厂创建数据源
func (r *FactoryRegistry) Create(config *domain.DataSourceConfig) (domain.DataSource, error) {
	factory, err := r.Get(config.Type)
	if err != nil {
		return nil, err
	}
	return factory.Create(config)
}

// List 列出所有已注册的工厂类型（有序）
func (r *FactoryRegistry) List() []domain.DataSourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.DataSourceType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Exists 检查工厂是否存在
func (r *FactoryRegistry) Exists(factoryType domain.DataSourceType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[factoryType]
	return exists
}
