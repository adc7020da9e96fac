package domain

import "fmt"

// 数据源与过滤领域错误

// ErrInvalidFilterOperator 过滤操作符无效错误
// 通常意味着客户端过滤组件与服务端版本不匹配，整个过滤模型应被拒绝
type ErrInvalidFilterOperator struct {
	FilterType string
	Operator   string
}

func (e *ErrInvalidFilterOperator) Error() string {
	return fmt.Sprintf("invalid %s filter operator: %q", e.FilterType, e.Operator)
}

// ErrInvalidFilterValue 过滤值无法解码错误
type ErrInvalidFilterValue struct {
	FilterType string
	Value      string
}

func (e *ErrInvalidFilterValue) Error() string {
	return fmt.Sprintf("invalid %s filter value: %s", e.FilterType, e.Value)
}

// ErrMissingField 行缺少过滤引用的字段
type ErrMissingField struct {
	Field string
	RowID interface{}
}

func (e *ErrMissingField) Error() string {
	if e.RowID == nil {
		return fmt.Sprintf("row is missing filtered field %s", e.Field)
	}
	return fmt.Sprintf("row %v is missing filtered field %s", e.RowID, e.Field)
}

// ErrFilterTooDeep 过滤树嵌套过深错误
type ErrFilterTooDeep struct {
	MaxDepth int
}

func (e *ErrFilterTooDeep) Error() string {
	return fmt.Sprintf("filter nesting exceeds max depth %d", e.MaxDepth)
}

// ErrInvalidSort 排序项无效错误
type ErrInvalidSort struct {
	Field     string
	Direction string
}

func (e *ErrInvalidSort) Error() string {
	return fmt.Sprintf("invalid sort direction %q for field %s", e.Direction, e.Field)
}

// ErrRowLimitExceeded 请求的行数超过边界层配置的上限
type ErrRowLimitExceeded struct {
	Requested int
	Limit     int
}

func (e *ErrRowLimitExceeded) Error() string {
	return fmt.Sprintf("Too many rows requested. (requested %d, limit %d)", e.Requested, e.Limit)
}

// ErrInvalidWindow 窗口范围无效错误
type ErrInvalidWindow struct {
	StartRow int
	EndRow   int
}

func (e *ErrInvalidWindow) Error() string {
	return fmt.Sprintf("invalid row window [%d, %d): startRow must be >= 0 and endRow > startRow", e.StartRow, e.EndRow)
}

// ErrNotConnected 未连接错误
type ErrNotConnected struct {
	DataSourceType string
}

func (e *ErrNotConnected) Error() string {
	return fmt.Sprintf("data source %s is not connected", e.DataSourceType)
}

// ErrReadOnly 只读错误
type ErrReadOnly struct {
	DataSourceType string
	Operation      string
}

func (e *ErrReadOnly) Error() string {
	return fmt.Sprintf("data source %s is read-only, cannot %s", e.DataSourceType, e.Operation)
}

// ErrDatasetNotFound 数据集不存在错误
type ErrDatasetNotFound struct {
	Name string
}

func (e *ErrDatasetNotFound) Error() string {
	return fmt.Sprintf("dataset %s not found", e.Name)
}

// ErrInvalidConfig 配置无效错误
type ErrInvalidConfig struct {
	ConfigKey string
	Message   string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config for %s: %s", e.ConfigKey, e.Message)
}

// ErrConnectionFailed 连接失败错误
type ErrConnectionFailed struct {
	DataSourceType string
	Reason         string
}

func (e *ErrConnectionFailed) Error() string {
	return fmt.Sprintf("failed to connect to %s data source: %s", e.DataSourceType, e.Reason)
}

// ErrUnsupportedPushdown 数据源无法把该请求下推到存储层
type ErrUnsupportedPushdown struct {
	DataSourceType string
	Reason         string
}

func (e *ErrUnsupportedPushdown) Error() string {
	return fmt.Sprintf("%s data source cannot push down request: %s", e.DataSourceType, e.Reason)
}

// ErrRowNotFound 按行标识找不到行
type ErrRowNotFound struct {
	ID interface{}
}

func (e *ErrRowNotFound) Error() string {
	return fmt.Sprintf("row %v not found", e.ID)
}

// ErrInvalidUpdate 单元格修改无效：字段不存在或不允许修改
type ErrInvalidUpdate struct {
	Field  string
	Reason string
}

func (e *ErrInvalidUpdate) Error() string {
	return fmt.Sprintf("cannot update field %s: %s", e.Field, e.Reason)
}

// 辅助函数

// NewErrInvalidFilterOperator 创建过滤操作符无效错误
func NewErrInvalidFilterOperator(filterType, operator string) *ErrInvalidFilterOperator {
	return &ErrInvalidFilterOperator{FilterType: filterType, Operator: operator}
}

// NewErrInvalidFilterValue 创建过滤值无效错误
func NewErrInvalidFilterValue(filterType, value string) *ErrInvalidFilterValue {
	return &ErrInvalidFilterValue{FilterType: filterType, Value: value}
}

// NewErrMissingField 创建字段缺失错误
func NewErrMissingField(field string, rowID interface{}) *ErrMissingField {
	return &ErrMissingField{Field: field, RowID: rowID}
}

// NewErrFilterTooDeep 创建过滤树过深错误
func NewErrFilterTooDeep(maxDepth int) *ErrFilterTooDeep {
	return &ErrFilterTooDeep{MaxDepth: maxDepth}
}

// NewErrInvalidSort 创建排序项无效错误
func NewErrInvalidSort(field, direction string) *ErrInvalidSort {
	return &ErrInvalidSort{Field: field, Direction: direction}
}

// NewErrRowLimitExceeded 创建行数超限错误
func NewErrRowLimitExceeded(requested, limit int) *ErrRowLimitExceeded {
	return &ErrRowLimitExceeded{Requested: requested, Limit: limit}
}

// NewErrInvalidWindow 创建窗口无效错误
func NewErrInvalidWindow(startRow, endRow int) *ErrInvalidWindow {
	return &ErrInvalidWindow{StartRow: startRow, EndRow: endRow}
}

// NewErrNotConnected 创建未连接错误
func NewErrNotConnected(dataSourceType string) *ErrNotConnected {
	return &ErrNotConnected{DataSourceType: dataSourceType}
}

// NewErrReadOnly 创建只读错误
func NewErrReadOnly(dataSourceType, operation string) *ErrReadOnly {
	return &ErrReadOnly{DataSourceType: dataSourceType, Operation: operation}
}

// NewErrDatasetNotFound 创建数据集不存在错误
func NewErrDatasetNotFound(name string) *ErrDatasetNotFound {
	return &ErrDatasetNotFound{Name: name}
}

// NewErrInvalidConfig 创建配置无效错误
func NewErrInvalidConfig(configKey, message string) *ErrInvalidConfig {
	return &ErrInvalidConfig{ConfigKey: configKey, Message: message}
}

// NewErrConnectionFailed 创建连接失败错误
func NewErrConnectionFailed(dataSourceType, reason string) *ErrConnectionFailed {
	return &ErrConnectionFailed{DataSourceType: dataSourceType, Reason: reason}
}

// NewErrUnsupportedPushdown 创建无法下推错误
func NewErrUnsupportedPushdown(dataSourceType, reason string) *ErrUnsupportedPushdown {
	return &ErrUnsupportedPushdown{DataSourceType: dataSourceType, Reason: reason}
}

// NewErrRowNotFound 创建行不存在错误
func NewErrRowNotFound(id interface{}) *ErrRowNotFound {
	return &ErrRowNotFound{ID: id}
}

// NewErrInvalidUpdate 创建修改无效错误
func NewErrInvalidUpdate(field, reason string) *ErrInvalidUpdate {
	return &ErrInvalidUpdate{Field: field, Reason: reason}
}

// NewErrUnknownField 创建字段不存在的修改错误
func NewErrUnknownField(field string) *ErrInvalidUpdate {
	return NewErrInvalidUpdate(field, "unknown field")
}
