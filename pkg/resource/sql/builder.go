package sql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

const (
	sqlTrue  = "1 = 1"
	sqlFalse = "1 = 0"
)

// Query is a compiled window request
type Query struct {
	Where   string
	Args    []interface{}
	OrderBy string
}

// Builder compiles filter and sort models into SQL for one table.
// Anything whose SQL result could differ from in-memory evaluation
// is rejected with *domain.ErrUnsupportedPushdown.
type Builder struct {
	dialect  Dialect
	table    string
	orderKey string
	columns  map[string]ColumnKind
}

// NewBuilder creates a builder over the given column kinds
func NewBuilder(dialect Dialect, table, orderKey string, columns map[string]ColumnKind) *Builder {
	return &Builder{
		dialect:  dialect,
		table:    table,
		orderKey: orderKey,
		columns:  columns,
	}
}

// Compile compiles the filter and sort models of a request
func (b *Builder) Compile(req *domain.WindowRequest) (*Query, error) {
	where, args, err := b.BuildWhere(req.FilterModel)
	if err != nil {
		return nil, err
	}
	orderBy, err := b.BuildOrderBy(req.SortModel)
	if err != nil {
		return nil, err
	}
	return &Query{Where: where, Args: args, OrderBy: orderBy}, nil
}

// BuildSelectSQL renders the window query
func (b *Builder) BuildSelectSQL(q *Query, offset, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		b.dialect.QuoteIdentifier(b.table), q.Where, q.OrderBy, limit, offset)
}

// BuildCountSQL renders the total-count query
func (b *Builder) BuildCountSQL(q *Query) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", b.dialect.QuoteIdentifier(b.table), q.Where)
}

// BuildWhere compiles top-level fields joined by AND, in field-name order
func (b *Builder) BuildWhere(model domain.FilterModel) (string, []interface{}, error) {
	if len(model) == 0 {
		return sqlTrue, nil, nil
	}

	fields := model.Fields()
	sort.Strings(fields)

	clauses := make([]string, 0, len(fields))
	var args []interface{}
	for _, field := range fields {
		kind, ok := b.columns[field]
		if !ok {
			return "", nil, b.unsupported("unknown column " + field)
		}
		clause, clauseArgs, err := b.buildNode(b.dialect.QuoteIdentifier(field), kind, model[field], 1)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, "("+clause+")")
		args = append(args, clauseArgs...)
	}
	return strings.Join(clauses, " AND "), args, nil
}

func (b *Builder) buildNode(col string, kind ColumnKind, node domain.FilterNode, depth int) (string, []interface{}, error) {
	if depth > domain.MaxFilterDepth {
		return "", nil, domain.NewErrFilterTooDeep(domain.MaxFilterDepth)
	}

	switch n := node.(type) {
	case nil:
		return sqlTrue, nil, nil
	case *domain.CompoundFilter:
		return b.buildCompound(col, kind, n, depth)
	case *domain.TextFilter:
		return b.buildText(col, kind, n)
	case *domain.NumberFilter:
		return b.buildNumber(col, kind, n)
	case *domain.UnrecognizedFilter:
		return sqlFalse, nil, nil
	}
	return "", nil, b.unsupported("unknown filter node " + node.Kind().String())
}

func (b *Builder) buildCompound(col string, kind ColumnKind, c *domain.CompoundFilter, depth int) (string, []interface{}, error) {
	var joiner, empty string
	switch c.Operator {
	case domain.LogicAnd:
		joiner, empty = " AND ", sqlTrue
	case domain.LogicOr:
		joiner, empty = " OR ", sqlFalse
	default:
		return "", nil, domain.NewErrInvalidFilterOperator("compound", string(c.Operator))
	}
	if len(c.Conditions) == 0 {
		return empty, nil, nil
	}

	parts := make([]string, 0, len(c.Conditions))
	var args []interface{}
	for _, child := range c.Conditions {
		part, childArgs, err := b.buildNode(col, kind, child, depth+1)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+part+")")
		args = append(args, childArgs...)
	}
	return strings.Join(parts, joiner), args, nil
}

func (b *Builder) buildText(col string, kind ColumnKind, f *domain.TextFilter) (string, []interface{}, error) {
	if !f.Type.Valid() {
		return "", nil, domain.NewErrInvalidFilterOperator(domain.FilterTypeText, string(f.Type))
	}
	switch f.Type {
	case domain.TextBlank:
		return b.blank(col, kind), nil, nil
	case domain.TextNotBlank:
		return "NOT " + b.blank(col, kind), nil, nil
	}

	if kind != ColumnKindText {
		return "", nil, b.unsupported(fmt.Sprintf("text filter on %s column %s", kind, col))
	}
	// row values may hold any letter, so the term being ASCII is not enough
	if !b.dialect.UnicodeLower() {
		return "", nil, b.unsupported("text comparison needs Unicode lowercasing")
	}

	if f.Filter == "" {
		switch f.Type {
		case domain.TextContains, domain.TextStartsWith, domain.TextEndsWith:
			return sqlTrue, nil, nil
		case domain.TextNotContains:
			return sqlFalse, nil, nil
		}
	}

	clause, binds := b.dialect.TextCondition(f.Type, b.dialect.LowerExpr(col))
	args := make([]interface{}, binds)
	for i := range args {
		args[i] = f.Filter
	}
	return clause, args, nil
}

func (b *Builder) buildNumber(col string, kind ColumnKind, f *domain.NumberFilter) (string, []interface{}, error) {
	if !f.Type.Valid() {
		return "", nil, domain.NewErrInvalidFilterOperator(domain.FilterTypeNumber, string(f.Type))
	}
	switch f.Type {
	case domain.NumberBlank:
		return b.blank(col, kind), nil, nil
	case domain.NumberNotBlank:
		return "NOT " + b.blank(col, kind), nil, nil
	}

	// non-numeric values never compare
	if kind != ColumnKindNumber && kind != ColumnKindBool {
		return sqlFalse, nil, nil
	}
	if f.Filter == nil {
		return sqlFalse, nil, nil
	}

	expr := b.dialect.NumericExpr(col, kind)
	var op string
	switch f.Type {
	case domain.NumberEquals:
		op = "="
	case domain.NumberNotEqual:
		op = "<>"
	case domain.NumberGreaterThan:
		op = ">"
	case domain.NumberGreaterThanOrEqual:
		op = ">="
	case domain.NumberLessThan:
		op = "<"
	case domain.NumberLessThanOrEqual:
		op = "<="
	case domain.NumberInRange:
		if f.FilterTo == nil {
			return sqlFalse, nil, nil
		}
		return expr + " BETWEEN ? AND ?", []interface{}{*f.Filter, *f.FilterTo}, nil
	}
	return expr + " " + op + " ?", []interface{}{*f.Filter}, nil
}

// blank matches falsy values: NULL, '', 0 and false.
// length() avoids PAD SPACE collations treating '  ' as ''.
func (b *Builder) blank(col string, kind ColumnKind) string {
	switch kind {
	case ColumnKindText:
		return "(" + col + " IS NULL OR length(" + col + ") = 0)"
	case ColumnKindNumber, ColumnKindBool:
		expr := b.dialect.NumericExpr(col, kind)
		return "(" + expr + " IS NULL OR " + expr + " = 0)"
	default:
		return "(" + col + " IS NULL)"
	}
}

// BuildOrderBy compiles the sort model; the order key always comes last
// so ties resolve to natural iteration order
func (b *Builder) BuildOrderBy(sortModel domain.SortModel) (string, error) {
	terms := make([]string, 0, len(sortModel)+1)
	for _, item := range sortModel {
		kind, ok := b.columns[item.ColID]
		if !ok {
			return "", b.unsupported("unknown sort column " + item.ColID)
		}
		terms = append(terms, b.dialect.OrderExpr(b.dialect.QuoteIdentifier(item.ColID), kind, item.Desc()))
	}
	terms = append(terms, b.dialect.QuoteIdentifier(b.orderKey)+" ASC")
	return strings.Join(terms, ", "), nil
}

func (b *Builder) unsupported(reason string) error {
	return domain.NewErrUnsupportedPushdown(string(b.dialect.Type()), reason)
}
