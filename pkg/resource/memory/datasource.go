package memory

import (
	"context"
	"sync"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/util"
)

// DataSource 内存行序列
// 读取返回拷贝（copy-on-read），请求之间的写入不会影响已返回的快照
type DataSource struct {
	mu        sync.RWMutex
	config    *domain.DataSourceConfig
	connected bool
	rows      []domain.Row
}

// NewDataSource 创建内存数据源，rows 会被拷贝
func NewDataSource(config *domain.DataSourceConfig, rows []domain.Row) *DataSource {
	if config == nil {
		config = &domain.DataSourceConfig{Type: domain.DataSourceTypeMemory, Name: "memory", Writable: true}
	}
	return &DataSource{
		config: config,
		rows:   cloneRows(rows),
	}
}

// Connect 标记为已连接，行在 Close 之后保留
func (m *DataSource) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	return nil
}

// Close 标记为未连接
func (m *DataSource) Close(ctx context.Context) error {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	return nil
}

func (m *DataSource) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// IsWritable 配置创建后不变，无需加锁
func (m *DataSource) IsWritable() bool {
	return m.config.Writable
}

func (m *DataSource) GetConfig() *domain.DataSourceConfig {
	return m.config
}

// Rows 返回所有行的快照
func (m *DataSource) Rows(ctx context.Context) ([]domain.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, domain.NewErrNotConnected(string(domain.DataSourceTypeMemory))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneRows(m.rows), nil
}

// Count 返回行数
func (m *DataSource) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return 0, domain.NewErrNotConnected(string(domain.DataSourceTypeMemory))
	}
	return int64(len(m.rows)), nil
}

// Insert 追加行
func (m *DataSource) Insert(ctx context.Context, rows []domain.Row) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return 0, domain.NewErrNotConnected(string(domain.DataSourceTypeMemory))
	}
	if !m.config.Writable {
		return 0, domain.NewErrReadOnly(string(domain.DataSourceTypeMemory), "insert")
	}
	m.rows = append(m.rows, cloneRows(rows)...)
	return int64(len(rows)), nil
}

// Update 修改一行的一个字段；被修改的行整体替换，之前返回的快照不受影响
func (m *DataSource) Update(ctx context.Context, id interface{}, field string, value interface{}) (domain.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil, domain.NewErrNotConnected(string(domain.DataSourceTypeMemory))
	}
	if !m.config.Writable {
		return nil, domain.NewErrReadOnly(string(domain.DataSourceTypeMemory), "update")
	}
	if field == domain.RowIDField {
		return nil, domain.NewErrInvalidUpdate(field, "row id cannot be changed")
	}

	i := util.FindByID(m.rows, id)
	if i < 0 {
		return nil, domain.NewErrRowNotFound(id)
	}
	if _, ok := m.rows[i][field]; !ok {
		return nil, domain.NewErrUnknownField(field)
	}
	row := m.rows[i].Clone()
	row[field] = value
	m.rows[i] = row
	return row.Clone(), nil
}

// MaxID 返回最大行标识
func (m *DataSource) MaxID(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return 0, domain.NewErrNotConnected(string(domain.DataSourceTypeMemory))
	}
	return util.MaxID(m.rows), nil
}

// Replace 整体替换行（加载器使用，不受 Writable 限制）
func (m *DataSource) Replace(rows []domain.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = cloneRows(rows)
}

func cloneRows(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
