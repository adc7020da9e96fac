package sql

import (
	"fmt"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

func (d *MySQLDialect) Type() domain.DataSourceType { return domain.DataSourceTypeMySQL }

func (d *MySQLDialect) BuildDSN(dsCfg *domain.DataSourceConfig, sqlCfg *SQLConfig) (string, error) {
	if dsCfg.Database == "" {
		return "", domain.NewErrInvalidConfig("database", "mysql requires a database name")
	}
	host := dsCfg.Host
	if host == "" {
		host = "localhost"
	}
	port := dsCfg.Port
	if port == 0 {
		port = 3306
	}

	cfg := mysqldriver.NewConfig()
	cfg.User = dsCfg.Username
	cfg.Passwd = dsCfg.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.DBName = dsCfg.Database
	cfg.ParseTime = true
	cfg.Timeout = time.Duration(sqlCfg.ConnectTimeout) * time.Second
	cfg.Collation = sqlCfg.Collation
	cfg.Params = map[string]string{"charset": sqlCfg.Charset}
	if sqlCfg.SSLMode != "" && sqlCfg.SSLMode != "disable" {
		cfg.TLSConfig = "true"
	}

	return cfg.FormatDSN(), nil
}

func (d *MySQLDialect) Dialector(dsn string) gorm.Dialector {
	return mysql.New(mysql.Config{DSN: dsn})
}

func (d *MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// UnicodeLower is false: LOWER() follows the column collation's case
// mapping, which differs from Go for letters such as U+0130
func (d *MySQLDialect) UnicodeLower() bool { return false }

func (d *MySQLDialect) LowerExpr(col string) string {
	return "LOWER(COALESCE(" + col + ", ''))"
}

// TextCondition compares as binary strings so the default _ci collations
// do not make the term case-insensitive
func (d *MySQLDialect) TextCondition(op domain.TextOperator, lowered string) (string, int) {
	bin := "CAST(" + lowered + " AS BINARY)"
	switch op {
	case domain.TextContains:
		return "LOCATE(CAST(? AS BINARY), " + bin + ") > 0", 1
	case domain.TextNotContains:
		return "LOCATE(CAST(? AS BINARY), " + bin + ") = 0", 1
	case domain.TextEquals:
		return bin + " = CAST(? AS BINARY)", 1
	case domain.TextNotEqual:
		return bin + " <> CAST(? AS BINARY)", 1
	case domain.TextStartsWith:
		return "CAST(LEFT(" + lowered + ", CHAR_LENGTH(?)) AS BINARY) = CAST(? AS BINARY)", 2
	case domain.TextEndsWith:
		return "CAST(RIGHT(" + lowered + ", CHAR_LENGTH(?)) AS BINARY) = CAST(? AS BINARY)", 2
	}
	return "", 0
}

func (d *MySQLDialect) NumericExpr(col string, kind ColumnKind) string {
	return col
}

// OrderExpr relies on MySQL sorting NULL lowest
func (d *MySQLDialect) OrderExpr(col string, kind ColumnKind, desc bool) string {
	if kind == ColumnKindText {
		col = "CAST(" + col + " AS BINARY)"
	}
	return col + direction(desc)
}

func (d *MySQLDialect) MemoryDSN(dsn string) bool { return false }
