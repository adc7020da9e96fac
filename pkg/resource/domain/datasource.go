package domain

import "context"

// RowIDField 行标识字段；生成新行和修改单元格都按它定位行
const RowIDField = "id"

// DataSource 后备行集合接口
// 解析器只在单个请求期间读取它，不跨请求缓存
type DataSource interface {
	// Connect 连接数据源
	Connect(ctx context.Context) error

	// Close 关闭连接
	Close(ctx context.Context) error

	// IsConnected 检查是否已连接
	IsConnected() bool

	// IsWritable 检查是否可写
	IsWritable() bool

	// GetConfig 获取数据源配置
	GetConfig() *DataSourceConfig

	// Rows 按迭代顺序返回所有行的快照
	// 调用方可以自由修改返回的切片，不会影响数据源
	Rows(ctx context.Context) ([]Row, error)

	// Count 返回行数
	Count(ctx context.Context) (int64, error)
}

// WritableDataSource 可追加行的数据源
type WritableDataSource interface {
	DataSource

	// Insert 追加行，返回插入行数
	Insert(ctx context.Context, rows []Row) (int64, error)

	// Update 修改 RowIDField 等于 id 的行的一个字段，返回修改后的行
	// 注意:
	//   - id 按格式化后的文本比较，"7" 与 7 视为同一行
	//   - 字段不存在或为 RowIDField 时返回 ErrInvalidUpdate
	//   - 找不到行时返回 ErrRowNotFound
	Update(ctx context.Context, id interface{}, field string, value interface{}) (Row, error)
}

// MaxIDSource 能直接读出最大行标识的数据源，生成新行时避免扫描全部行
type MaxIDSource interface {
	// MaxID 返回 RowIDField 的最大值，空数据源返回 0
	MaxID(ctx context.Context) (int64, error)
}

// DataSourceFactory 按配置创建某一类型的数据源，创建后需调用 Connect
type DataSourceFactory interface {
	GetType() DataSourceType
	Create(config *DataSourceConfig) (DataSource, error)
}
