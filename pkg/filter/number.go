package filter

import (
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/util"
)

// evalNumber 数值比较
// 行值不是数值、或需要的边界缺失时，所有比较（包括 notEqual）都为 false
func evalNumber(value interface{}, f *domain.NumberFilter) (bool, error) {
	if !f.Type.Valid() {
		return false, domain.NewErrInvalidFilterOperator(domain.FilterTypeNumber, string(f.Type))
	}

	switch f.Type {
	case domain.NumberBlank:
		return !util.IsTruthy(value), nil
	case domain.NumberNotBlank:
		return util.IsTruthy(value), nil
	}

	v, ok := util.ToFloat64(value)
	if !ok || f.Filter == nil {
		return false, nil
	}
	bound := *f.Filter

	switch f.Type {
	case domain.NumberEquals:
		return v == bound, nil
	case domain.NumberNotEqual:
		return v != bound, nil
	case domain.NumberGreaterThan:
		return v > bound, nil
	case domain.NumberGreaterThanOrEqual:
		return v >= bound, nil
	case domain.NumberLessThan:
		return v < bound, nil
	case domain.NumberLessThanOrEqual:
		return v <= bound, nil
	case domain.NumberInRange:
		if f.FilterTo == nil {
			return false, nil
		}
		return bound <= v && v <= *f.FilterTo, nil
	}
	return false, nil
}
