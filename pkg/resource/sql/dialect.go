package sql

import (
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"gorm.io/gorm"
)

// Dialect encapsulates database-engine-specific behavior.
// Conditions are written with ? placeholders; gorm rebinds them per driver.
type Dialect interface {
	// Type returns the datasource type served by this dialect
	Type() domain.DataSourceType

	// BuildDSN constructs the driver-specific connection string
	BuildDSN(dsCfg *domain.DataSourceConfig, sqlCfg *SQLConfig) (string, error)

	// Dialector wraps the DSN in a gorm dialector
	Dialector(dsn string) gorm.Dialector

	// QuoteIdentifier wraps a table/column name in dialect-specific quoting
	QuoteIdentifier(name string) string

	// UnicodeLower reports whether LowerExpr lowercases exactly like the
	// in-memory filter. Text comparisons are pushed down only when it does.
	UnicodeLower() bool

	// LowerExpr lowercases a column, treating NULL as the empty string
	LowerExpr(col string) string

	// TextCondition compiles a text comparison of lowered against the term.
	// It returns the SQL fragment and how many times the term is bound.
	TextCondition(op domain.TextOperator, lowered string) (string, int)

	// NumericExpr exposes a numeric or boolean column as a number
	NumericExpr(col string, kind ColumnKind) string

	// OrderExpr renders one ORDER BY term: NULL first ascending,
	// NULL last descending, text compared bytewise
	OrderExpr(col string, kind ColumnKind, desc bool) string

	// MemoryDSN reports whether the DSN addresses a private in-memory database
	MemoryDSN(dsn string) bool
}

// NewDialect returns the dialect for a datasource type
func NewDialect(t domain.DataSourceType) (Dialect, error) {
	switch t {
	case domain.DataSourceTypeSQLite:
		return &SQLiteDialect{}, nil
	case domain.DataSourceTypeMySQL:
		return &MySQLDialect{}, nil
	case domain.DataSourceTypePostgreSQL:
		return &PostgreSQLDialect{}, nil
	}
	return nil, domain.NewErrInvalidConfig("type", "no SQL dialect for "+string(t))
}

func direction(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}
