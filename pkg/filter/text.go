package filter

import (
	"strings"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/util"
)

// lowerValue 按 Unicode 规则把行值转为小写
func lowerValue(v interface{}) string {
	return util.LowerText(util.FormatValue(v))
}

// evalText 只对行值小写，过滤词按原样比较
func evalText(value interface{}, f *domain.TextFilter) (bool, error) {
	switch f.Type {
	case domain.TextBlank:
		return !util.IsTruthy(value), nil
	case domain.TextNotBlank:
		return util.IsTruthy(value), nil
	}

	v := lowerValue(value)
	term := f.Filter

	switch f.Type {
	case domain.TextContains:
		return strings.Contains(v, term), nil
	case domain.TextNotContains:
		return !strings.Contains(v, term), nil
	case domain.TextEquals:
		return v == term, nil
	case domain.TextNotEqual:
		return v != term, nil
	case domain.TextStartsWith:
		return strings.HasPrefix(v, term), nil
	case domain.TextEndsWith:
		return strings.HasSuffix(v, term), nil
	default:
		return false, domain.NewErrInvalidFilterOperator(domain.FilterTypeText, string(f.Type))
	}
}
