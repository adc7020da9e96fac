package domain

// ==================== 数据源能力辅助函数 ====================

// HasWriteSupport 检查数据源是否可写
// 必须同时实现 WritableDataSource 且 IsWritable() 为 true
func HasWriteSupport(ds DataSource) bool {
	_, ok := AsWritable(ds)
	return ok
}

// AsWritable 获取可写数据源
func AsWritable(ds DataSource) (WritableDataSource, bool) {
	w, ok := ds.(WritableDataSource)
	if !ok || !ds.IsWritable() {
		return nil, false
	}
	return w, true
}

// AsFilterable 获取支持下推的数据源
func AsFilterable(ds DataSource) (FilterableDataSource, bool) {
	f, ok := ds.(FilterableDataSource)
	return f, ok
}
