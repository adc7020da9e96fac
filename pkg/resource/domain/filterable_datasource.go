package domain

import "context"

// FilterableDataSource 支持原生过滤的数据源接口
// 实现此接口的数据源可以把过滤、排序和分页下推到存储层，
// 避免将所有数据加载到内存后再进行过滤。
//
// 下推结果必须和内存路径完全一致（相同的行、相同的顺序、相同的总数），
// 只在性能上不同。无法保证一致的请求应由 SupportsFiltering 返回 false，
// 由解析器回退到内存过滤。
//
// 示例：
//
//	if fds, ok := ds.(FilterableDataSource); ok && fds.SupportsFiltering(req) {
//	    return fds.Window(ctx, req)
//	}
type FilterableDataSource interface {
	DataSource

	// SupportsFiltering 检查数据源能否下推该请求
	//
	// 注意:
	//   - 这是一个能力声明方法，不执行查询
	//   - 引用未知列、或存储层语义与内存过滤不一致时返回 false
	SupportsFiltering(req *WindowRequest) bool

	// Window 在存储层执行过滤、排序和分页
	//
	// 返回:
	//   - Rows: [StartRow, EndRow) 范围内的行
	//   - RowCount: 满足过滤条件的总行数（不受分页影响）
	Window(ctx context.Context, req *WindowRequest) (*WindowResult, error)
}
