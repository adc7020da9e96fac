package domain

// DataSourceType 数据源类型
type DataSourceType string

// String 返回数据源类型的字符串表示
func (t DataSourceType) String() string {
	return string(t)
}

const (
	// DataSourceTypeMemory 内存数据源
	DataSourceTypeMemory DataSourceType = "memory"
	// DataSourceTypeBadger Badger KV 数据源
	DataSourceTypeBadger DataSourceType = "badger"
	// DataSourceTypeSQLite SQLite数据源
	DataSourceTypeSQLite DataSourceType = "sqlite"
	// DataSourceTypeMySQL MySQL数据源
	DataSourceTypeMySQL DataSourceType = "mysql"
	// DataSourceTypePostgreSQL PostgreSQL数据源
	DataSourceTypePostgreSQL DataSourceType = "postgresql"
	// DataSourceTypeExcel Excel文件数据源（加载到内存）
	DataSourceTypeExcel DataSourceType = "excel"
)

// DataSourceConfig 数据源配置
type DataSourceConfig struct {
	Type     DataSourceType         `json:"type" mapstructure:"type"`
	Name     string                 `json:"name" mapstructure:"name"`
	Host     string                 `json:"host,omitempty" mapstructure:"host"`
	Port     int                    `json:"port,omitempty" mapstructure:"port"`
	Username string                 `json:"username,omitempty" mapstructure:"username"`
	Password string                 `json:"password,omitempty" mapstructure:"password"`
	Database string                 `json:"database,omitempty" mapstructure:"database"`
	Writable bool                   `json:"writable,omitempty" mapstructure:"writable"`
	Options  map[string]interface{} `json:"options,omitempty" mapstructure:"options"`
}

// Row 行数据，字段名到标量值（string、数值、bool、nil）的映射
type Row map[string]interface{}

// Clone 返回行的浅拷贝（值都是标量，浅拷贝即可）
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ColumnDef 网格列定义
type ColumnDef struct {
	Field    string `json:"field" mapstructure:"field"`
	Filter   string `json:"filter,omitempty" mapstructure:"filter"` // agTextColumnFilter, agNumberColumnFilter
	Sortable bool   `json:"sortable" mapstructure:"sortable"`
}

// 网格内置过滤器组件名
const (
	ColumnFilterText   = "agTextColumnFilter"
	ColumnFilterNumber = "agNumberColumnFilter"
)

// WindowRequest 数据窗口请求，每次滚动/翻页构造一次，用完即弃
type WindowRequest struct {
	StartRow    int         `json:"startRow"`
	EndRow      int         `json:"endRow"`
	FilterModel FilterModel `json:"filterModel,omitempty"`
	SortModel   SortModel   `json:"sortModel,omitempty"`
}

// Size 请求的行数
func (r *WindowRequest) Size() int {
	return r.EndRow - r.StartRow
}

// WindowResult 数据窗口响应
// RowCount 是切片之前匹配过滤器的总行数
type WindowResult struct {
	Rows     []Row       `json:"rows"`
	RowCount int64       `json:"rowCount"`
	Stats    WindowStats `json:"-"`
}

// WindowStats 单次窗口解析的统计信息（不序列化）
type WindowStats struct {
	Scanned  int  // 读取的行数
	Excluded int  // 因缺失字段被排除的行数
	Pushdown bool // 是否下推到存储层
}
