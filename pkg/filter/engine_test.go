package filter

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// recordingLogger 记录日志内容用于断言
type recordingLogger struct {
	logger.NoOpLogger
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Warn(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func cars() []domain.Row {
	return []domain.Row{
		{"id": 1, "make": "Toyota", "model": "Celica", "price": 35000},
		{"id": 2, "make": "Ford", "model": "Mondeo", "price": 32000},
		{"id": 3, "make": "Porsche", "model": "Boxster", "price": 72000},
	}
}

func TestMatches_EmptyModelMatchesAll(t *testing.T) {
	e := NewEngine()
	rows := append(cars(), domain.Row{}, domain.Row{"x": nil})
	for _, row := range rows {
		ok, err := e.Matches(row, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = e.Matches(row, domain.FilterModel{})
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestMatches_TextContains(t *testing.T) {
	e := NewEngine()
	row := domain.Row{"name": "Toyota"}

	ok, err := e.Matches(row, domain.FilterModel{"name": domain.Text(domain.TextContains, "toy")})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Matches(row, domain.FilterModel{"name": domain.Text(domain.TextContains, "zzz")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatches_NumberInRangeInclusive(t *testing.T) {
	e := NewEngine()
	model := domain.FilterModel{"price": domain.NumberRange(30000, 35000)}

	tests := []struct {
		price interface{}
		want  bool
	}{
		{35000, true},
		{30000, true},
		{32500.5, true},
		{29999, false},
		{35001, false},
	}
	for _, tt := range tests {
		ok, err := e.Matches(domain.Row{"price": tt.price}, model)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "price %v", tt.price)
	}
}

func TestMatches_EqualsLowercasesRowValueOnly(t *testing.T) {
	e := NewEngine()
	var matched []string
	for _, row := range cars() {
		ok, err := e.Matches(row, domain.FilterModel{"make": domain.Text(domain.TextEquals, "ford")})
		require.NoError(t, err)
		if ok {
			matched = append(matched, row["make"].(string))
		}
	}
	assert.Equal(t, []string{"Ford"}, matched)

	// 过滤词不会被小写
	ok, err := e.Matches(domain.Row{"make": "Ford"}, domain.FilterModel{"make": domain.Text(domain.TextEquals, "Ford")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatches_MissingFieldExcludedAndLogged(t *testing.T) {
	log := &recordingLogger{}
	e := NewEngine(WithLogger(log))

	rows := []domain.Row{
		{"id": 1, "make": "Toyota", "year": 2001},
		{"id": 2, "make": "Ford"},
		{"id": 3, "make": "Porsche", "year": 1999},
	}
	model := domain.FilterModel{"year": domain.Number(domain.NumberGreaterThan, 1990)}

	var ids []interface{}
	for _, row := range rows {
		ok, err := e.Matches(row, model)
		require.NoError(t, err)
		if ok {
			ids = append(ids, row["id"])
		}
	}
	assert.Equal(t, []interface{}{1, 3}, ids)
	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "row 2")
	assert.Contains(t, log.warns[0], "year")
}

func TestEvaluate_MissingFieldIsTypedError(t *testing.T) {
	e := NewEngine(WithIdentityField("make"))
	_, err := e.Evaluate(domain.Row{"make": "Ford"}, domain.FilterModel{"year": domain.Number(domain.NumberEquals, 1)})

	var missing *domain.ErrMissingField
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "year", missing.Field)
	assert.Equal(t, "Ford", missing.RowID)
}

func TestMatches_ImplicitAndAcrossFields(t *testing.T) {
	e := NewEngine()
	model := domain.FilterModel{
		"make":  domain.Text(domain.TextStartsWith, "p"),
		"price": domain.Number(domain.NumberGreaterThan, 50000),
	}
	var ids []interface{}
	for _, row := range cars() {
		ok, err := e.Matches(row, model)
		require.NoError(t, err)
		if ok {
			ids = append(ids, row["id"])
		}
	}
	assert.Equal(t, []interface{}{3}, ids)
}

func TestMatches_InvalidOperatorFailsFast(t *testing.T) {
	e := NewEngine()
	_, err := e.Matches(domain.Row{"make": "Ford"}, domain.FilterModel{"make": domain.Text("like", "f")})

	var opErr *domain.ErrInvalidFilterOperator
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "like", opErr.Operator)
	assert.Equal(t, domain.FilterTypeText, opErr.FilterType)
}

func TestEvaluateNode_CompoundIsConjunctiveAndDisjunctive(t *testing.T) {
	e := NewEngine()
	leaves := []domain.FilterNode{
		domain.Text(domain.TextContains, "o"),
		domain.Text(domain.TextStartsWith, "t"),
		domain.Text(domain.TextEndsWith, "d"),
		domain.Number(domain.NumberGreaterThan, 5),
		&domain.UnrecognizedFilter{FilterType: "date"},
	}
	values := []interface{}{"Toyota", "Ford", "Porsche", "", nil, 7, 3}

	for _, v := range values {
		for _, n1 := range leaves {
			for _, n2 := range leaves {
				r1, err := e.EvaluateNode(v, n1)
				require.NoError(t, err)
				r2, err := e.EvaluateNode(v, n2)
				require.NoError(t, err)

				and, err := e.EvaluateNode(v, domain.And(n1, n2))
				require.NoError(t, err)
				assert.Equal(t, r1 && r2, and)

				or, err := e.EvaluateNode(v, domain.Or(n1, n2))
				require.NoError(t, err)
				assert.Equal(t, r1 || r2, or)
			}
		}
	}
}

func TestEvaluateNode_EmptyCompound(t *testing.T) {
	e := NewEngine()

	ok, err := e.EvaluateNode("x", domain.And())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.EvaluateNode("x", domain.Or())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.EvaluateNode("x", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateNode_UnrecognizedFilterTypePolicy(t *testing.T) {
	assert.False(t, UnrecognizedFilterTypeMatches)

	e := NewEngine()
	for _, v := range []interface{}{"anything", 1, nil, true} {
		ok, err := e.EvaluateNode(v, &domain.UnrecognizedFilter{FilterType: "set"})
		require.NoError(t, err)
		assert.Equal(t, UnrecognizedFilterTypeMatches, ok)
	}
}

func deepAnd(depth int) domain.FilterNode {
	var node domain.FilterNode = domain.Text(domain.TextContains, "")
	for i := 1; i < depth; i++ {
		node = domain.And(node)
	}
	return node
}

func TestEvaluateNode_DepthLimit(t *testing.T) {
	e := NewEngine()

	ok, err := e.EvaluateNode("x", deepAnd(domain.MaxFilterDepth))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.EvaluateNode("x", deepAnd(domain.MaxFilterDepth+1))
	var tooDeep *domain.ErrFilterTooDeep
	assert.True(t, errors.As(err, &tooDeep))
}

func TestEvaluateNode_InvalidCompoundOperator(t *testing.T) {
	e := NewEngine()
	_, err := e.EvaluateNode("x", &domain.CompoundFilter{Operator: "XOR"})
	var opErr *domain.ErrInvalidFilterOperator
	assert.True(t, errors.As(err, &opErr))
}

func TestValidate(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name    string
		model   domain.FilterModel
		wantErr interface{}
	}{
		{"empty", nil, nil},
		{"valid", domain.FilterModel{
			"make":  domain.Or(domain.Text(domain.TextEquals, "ford"), domain.Text(domain.TextBlank, "")),
			"price": domain.NumberRange(1, 2),
			"born":  &domain.UnrecognizedFilter{FilterType: "date"},
		}, nil},
		{"bad text op", domain.FilterModel{"make": domain.Text("regex", "")}, &domain.ErrInvalidFilterOperator{}},
		{"bad number op nested", domain.FilterModel{"price": domain.And(domain.Number("between", 1))}, &domain.ErrInvalidFilterOperator{}},
		{"too deep", domain.FilterModel{"make": deepAnd(domain.MaxFilterDepth + 1)}, &domain.ErrFilterTooDeep{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Validate(tt.model)
			switch tt.wantErr.(type) {
			case nil:
				assert.NoError(t, err)
			case *domain.ErrInvalidFilterOperator:
				var target *domain.ErrInvalidFilterOperator
				assert.True(t, errors.As(err, &target), "got %v", err)
			case *domain.ErrFilterTooDeep:
				var target *domain.ErrFilterTooDeep
				assert.True(t, errors.As(err, &target), "got %v", err)
			}
		})
	}
}
