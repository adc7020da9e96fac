package sql

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/util"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	moderncsqlite "modernc.org/sqlite"
)

const (
	// sqliteDriverName is the name modernc.org/sqlite registers with database/sql
	sqliteDriverName = "sqlite"

	// sqliteLowerFunc lowercases with the same Unicode rules as in-memory filtering
	sqliteLowerFunc = "gridsource_lower"
)

func init() {
	if err := moderncsqlite.RegisterDeterministicScalarFunction(sqliteLowerFunc, 1, sqliteLower); err != nil {
		panic(fmt.Sprintf("register %s: %v", sqliteLowerFunc, err))
	}
}

func sqliteLower(_ *moderncsqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return "", nil
	case []byte:
		return util.LowerText(string(v)), nil
	default:
		return util.LowerText(util.FormatValue(v)), nil
	}
}

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

func (d *SQLiteDialect) Type() domain.DataSourceType { return domain.DataSourceTypeSQLite }

// BuildDSN uses Database as the file path. An empty path or ":memory:"
// opens a uniquely named shared-cache memory database.
func (d *SQLiteDialect) BuildDSN(dsCfg *domain.DataSourceConfig, sqlCfg *SQLConfig) (string, error) {
	path := dsCfg.Database
	if path == "" || path == ":memory:" {
		return "file:gridsource-" + uuid.NewString() + "?mode=memory&cache=shared", nil
	}
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)", nil
}

// Dialector runs gorm's SQLite dialect on the pure-Go modernc driver
func (d *SQLiteDialect) Dialector(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: dsn})
}

func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// UnicodeLower is true: LowerExpr calls the registered Go lowercase
// function instead of the ASCII-only built-in lower()
func (d *SQLiteDialect) UnicodeLower() bool { return true }

func (d *SQLiteDialect) LowerExpr(col string) string {
	return sqliteLowerFunc + "(COALESCE(" + col + ", ''))"
}

func (d *SQLiteDialect) TextCondition(op domain.TextOperator, lowered string) (string, int) {
	switch op {
	case domain.TextContains:
		return "instr(" + lowered + ", ?) > 0", 1
	case domain.TextNotContains:
		return "instr(" + lowered + ", ?) = 0", 1
	case domain.TextEquals:
		return lowered + " = ?", 1
	case domain.TextNotEqual:
		return lowered + " <> ?", 1
	case domain.TextStartsWith:
		return "substr(" + lowered + ", 1, length(?)) = ?", 2
	case domain.TextEndsWith:
		return "substr(" + lowered + ", -length(?)) = ?", 2
	}
	return "", 0
}

func (d *SQLiteDialect) NumericExpr(col string, kind ColumnKind) string {
	return col
}

// OrderExpr relies on SQLite sorting NULL lowest and BINARY collation
func (d *SQLiteDialect) OrderExpr(col string, kind ColumnKind, desc bool) string {
	return col + direction(desc)
}

func (d *SQLiteDialect) MemoryDSN(dsn string) bool {
	return strings.Contains(dsn, "mode=memory")
}
