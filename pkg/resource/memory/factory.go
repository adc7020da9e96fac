package memory

import (
	"fmt"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// MemoryFactory 内存数据源工厂
// options.rows 可以直接在配置文件中给出初始行
type MemoryFactory struct{}

// NewMemoryFactory 创建内存数据源工厂
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{}
}

func (f *MemoryFactory) GetType() domain.DataSourceType {
	return domain.DataSourceTypeMemory
}

// Create 创建内存数据源；未给配置时默认可写
func (f *MemoryFactory) Create(config *domain.DataSourceConfig) (domain.DataSource, error) {
	if config == nil {
		return NewDataSource(nil, nil), nil
	}

	cfg := *config
	cfg.Type = domain.DataSourceTypeMemory
	if cfg.Name == "" {
		cfg.Name = "memory"
	}

	rows, err := inlineRows(cfg.Options["rows"])
	if err != nil {
		return nil, err
	}
	return NewDataSource(&cfg, rows), nil
}

// inlineRows 解析 options.rows：对象数组，每个对象是一行
func inlineRows(v interface{}) ([]domain.Row, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, domain.NewErrInvalidConfig("options.rows", fmt.Sprintf("expected a list of objects, got %T", v))
	}

	rows := make([]domain.Row, 0, len(items))
	for i, item := range items {
		switch obj := item.(type) {
		case map[string]interface{}:
			rows = append(rows, domain.Row(obj))
		case domain.Row:
			rows = append(rows, obj)
		default:
			return nil, domain.NewErrInvalidConfig(fmt.Sprintf("options.rows[%d]", i), fmt.Sprintf("expected an object, got %T", item))
		}
	}
	return rows, nil
}
