// Package window resolves data window requests: filter, stable sort and
// slice a backing row collection, reporting the total match count.
package window

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/gridsource/pkg/filter"
	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/util"
)

// Resolver 数据窗口解析器
// 不持有跨请求状态，也不加锁；并发安全性取决于数据源自身的读并发安全
type Resolver struct {
	engine          *filter.Engine
	logger          logger.Logger
	disablePushdown bool
}

// Option 配置 Resolver 的选项函数
type Option func(*Resolver)

// WithEngine 设置过滤引擎
func WithEngine(e *filter.Engine) Option {
	return func(r *Resolver) { r.engine = e }
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithPushdown 设置是否允许下推到支持过滤的数据源
func WithPushdown(enabled bool) Option {
	return func(r *Resolver) { r.disablePushdown = !enabled }
}

// NewResolver 创建解析器
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		r.engine = filter.NewEngine(filter.WithLogger(r.logger))
	}
	return r
}

// Engine 返回解析器使用的过滤引擎
func (r *Resolver) Engine() *filter.Engine {
	return r.engine
}

// Validate 校验窗口范围和过滤模型
func (r *Resolver) Validate(req *domain.WindowRequest) error {
	if req == nil {
		return domain.NewErrInvalidWindow(0, 0)
	}
	if req.StartRow < 0 || req.EndRow <= req.StartRow {
		return domain.NewErrInvalidWindow(req.StartRow, req.EndRow)
	}
	return r.engine.Validate(req.FilterModel)
}

// Resolve 解析数据窗口
//  1. 过滤（保持顺序），总数 = 匹配行数
//  2. 按排序规格稳定排序
//  3. 截取 [start, min(end, total))
//
// 数据源实现 FilterableDataSource 且声明支持该请求时整体下推
func (r *Resolver) Resolve(ctx context.Context, ds domain.DataSource, req *domain.WindowRequest) (*domain.WindowResult, error) {
	if err := r.Validate(req); err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("resolve window: nil data source")
	}

	if !r.disablePushdown {
		if fds, ok := domain.AsFilterable(ds); ok && fds.SupportsFiltering(req) {
			result, err := fds.Window(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("pushdown window: %w", err)
			}
			result.Stats.Pushdown = true
			return result, nil
		}
	}

	rows, err := ds.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return r.ResolveRows(rows, req)
}

// ResolveRows 对已读取的行执行过滤、排序和截取
func (r *Resolver) ResolveRows(rows []domain.Row, req *domain.WindowRequest) (*domain.WindowResult, error) {
	if err := r.Validate(req); err != nil {
		return nil, err
	}

	stats := domain.WindowStats{Scanned: len(rows)}
	matched := rows
	if len(req.FilterModel) > 0 {
		matched = make([]domain.Row, 0, len(rows))
		for _, row := range rows {
			ok, err := r.engine.Evaluate(row, req.FilterModel)
			if err != nil {
				var missing *domain.ErrMissingField
				if errors.As(err, &missing) {
					stats.Excluded++
					r.logger.Warn("[WINDOW] excluding row %v: missing field %s", rowLabel(missing.RowID), missing.Field)
					continue
				}
				return nil, err
			}
			if ok {
				matched = append(matched, row)
			}
		}
	}

	sorted := util.ApplySort(matched, req.SortModel)
	page := util.ApplyWindow(sorted, req.StartRow, req.EndRow)

	if stats.Excluded > 0 {
		r.logger.Debug("[WINDOW] scanned=%d excluded=%d matched=%d", stats.Scanned, stats.Excluded, len(matched))
	}

	return &domain.WindowResult{
		Rows:     page,
		RowCount: int64(len(matched)),
		Stats:    stats,
	}, nil
}

func rowLabel(id interface{}) interface{} {
	if id == nil {
		return "<no id>"
	}
	return id
}
