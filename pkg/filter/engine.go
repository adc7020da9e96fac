// Package filter evaluates grid filter models against rows.
package filter

import (
	"errors"
	"sort"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// UnrecognizedFilterTypeMatches 是 filterType 既不是 text 也不是 number 的叶子的求值结果。
// 这类叶子不视为错误，统一按此策略求值。
const UnrecognizedFilterTypeMatches = false

// DefaultIdentityField 记录被排除行时用于标识行的字段
const DefaultIdentityField = domain.RowIDField

// Option 配置 Engine 的选项函数
type Option func(*Engine)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithIdentityField 设置行标识字段
func WithIdentityField(field string) Option {
	return func(e *Engine) { e.identityField = field }
}

// Engine 过滤引擎，无状态，可并发使用
type Engine struct {
	logger        logger.Logger
	identityField string
}

// NewEngine 创建过滤引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:        logger.NewNoOpLogger(),
		identityField: DefaultIdentityField,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RowID 返回行的标识值，没有标识字段时返回 nil
func (e *Engine) RowID(row domain.Row) interface{} {
	if e.identityField == "" {
		return nil
	}
	return row[e.identityField]
}

// Matches 判断行是否匹配过滤模型
// 行缺少被引用的字段时记录日志并返回 false，不返回错误；
// 只有操作符无效或嵌套过深时才返回错误
func (e *Engine) Matches(row domain.Row, model domain.FilterModel) (bool, error) {
	ok, err := e.Evaluate(row, model)
	if err != nil {
		var missing *domain.ErrMissingField
		if errors.As(err, &missing) {
			e.logger.Warn("[FILTER] excluding row %v: missing field %s", rowLabel(missing.RowID), missing.Field)
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// Evaluate 与 Matches 相同，但缺失字段以 *domain.ErrMissingField 返回
func (e *Engine) Evaluate(row domain.Row, model domain.FilterModel) (bool, error) {
	if len(model) == 0 {
		return true, nil
	}

	// 顶层字段之间是隐式 AND，按字段名顺序求值保证结果和错误可复现
	for _, field := range sortedFields(model) {
		value, ok := row[field]
		if !ok {
			return false, domain.NewErrMissingField(field, e.RowID(row))
		}
		matched, err := e.EvaluateNode(value, model[field])
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// EvaluateNode 对单个字段值求值过滤节点
func (e *Engine) EvaluateNode(value interface{}, node domain.FilterNode) (bool, error) {
	return e.evalNode(value, node, 1)
}

func (e *Engine) evalNode(value interface{}, node domain.FilterNode, depth int) (bool, error) {
	if depth > domain.MaxFilterDepth {
		return false, domain.NewErrFilterTooDeep(domain.MaxFilterDepth)
	}

	switch n := node.(type) {
	case nil:
		return true, nil
	case *domain.CompoundFilter:
		return e.evalCompound(value, n, depth)
	case *domain.TextFilter:
		return evalText(value, n)
	case *domain.NumberFilter:
		return evalNumber(value, n)
	case *domain.UnrecognizedFilter:
		return UnrecognizedFilterTypeMatches, nil
	default:
		return false, domain.NewErrInvalidFilterOperator("unknown", node.Kind().String())
	}
}

func (e *Engine) evalCompound(value interface{}, c *domain.CompoundFilter, depth int) (bool, error) {
	switch c.Operator {
	case domain.LogicAnd:
		for _, child := range c.Conditions {
			ok, err := e.evalNode(value, child, depth+1)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case domain.LogicOr:
		for _, child := range c.Conditions {
			ok, err := e.evalNode(value, child, depth+1)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, domain.NewErrInvalidFilterOperator("compound", string(c.Operator))
	}
}

// Validate 检查整个过滤模型的操作符和嵌套深度，不读取任何行
func (e *Engine) Validate(model domain.FilterModel) error {
	for _, field := range sortedFields(model) {
		if err := validateNode(model[field], 1); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(node domain.FilterNode, depth int) error {
	if depth > domain.MaxFilterDepth {
		return domain.NewErrFilterTooDeep(domain.MaxFilterDepth)
	}

	switch n := node.(type) {
	case nil, *domain.UnrecognizedFilter:
		return nil
	case *domain.TextFilter:
		if !n.Type.Valid() {
			return domain.NewErrInvalidFilterOperator(domain.FilterTypeText, string(n.Type))
		}
	case *domain.NumberFilter:
		if !n.Type.Valid() {
			return domain.NewErrInvalidFilterOperator(domain.FilterTypeNumber, string(n.Type))
		}
	case *domain.CompoundFilter:
		if n.Operator != domain.LogicAnd && n.Operator != domain.LogicOr {
			return domain.NewErrInvalidFilterOperator("compound", string(n.Operator))
		}
		for _, child := range n.Conditions {
			if err := validateNode(child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedFields(model domain.FilterModel) []string {
	fields := model.Fields()
	sort.Strings(fields)
	return fields
}

func rowLabel(id interface{}) interface{} {
	if id == nil {
		return "<no id>"
	}
	return id
}
