package sql

import (
	"fmt"
	"strings"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgreSQLDialect implements Dialect for PostgreSQL.
// Connections go through lib/pq rather than pgx.
type PostgreSQLDialect struct{}

func (d *PostgreSQLDialect) Type() domain.DataSourceType { return domain.DataSourceTypePostgreSQL }

func (d *PostgreSQLDialect) BuildDSN(dsCfg *domain.DataSourceConfig, sqlCfg *SQLConfig) (string, error) {
	if dsCfg.Database == "" {
		return "", domain.NewErrInvalidConfig("database", "postgresql requires a database name")
	}
	host := dsCfg.Host
	if host == "" {
		host = "localhost"
	}
	port := dsCfg.Port
	if port == 0 {
		port = 5432
	}

	parts := []string{
		fmt.Sprintf("host=%s", host),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("dbname=%s", dsCfg.Database),
		fmt.Sprintf("sslmode=%s", sqlCfg.SSLMode),
		fmt.Sprintf("connect_timeout=%d", sqlCfg.ConnectTimeout),
		fmt.Sprintf("search_path=%s", sqlCfg.Schema),
	}
	if dsCfg.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", dsCfg.Username))
	}
	if dsCfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password='%s'", strings.ReplaceAll(dsCfg.Password, "'", `\'`)))
	}

	return strings.Join(parts, " "), nil
}

func (d *PostgreSQLDialect) Dialector(dsn string) gorm.Dialector {
	return postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn})
}

func (d *PostgreSQLDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// UnicodeLower is false: lower() follows the database locale, which may be C
// and never matches Go for letters such as U+212A
func (d *PostgreSQLDialect) UnicodeLower() bool { return false }

func (d *PostgreSQLDialect) LowerExpr(col string) string {
	return "lower(COALESCE(" + col + ", ''))"
}

func (d *PostgreSQLDialect) TextCondition(op domain.TextOperator, lowered string) (string, int) {
	const term = "CAST(? AS TEXT)"
	switch op {
	case domain.TextContains:
		return "strpos(" + lowered + ", " + term + ") > 0", 1
	case domain.TextNotContains:
		return "strpos(" + lowered + ", " + term + ") = 0", 1
	case domain.TextEquals:
		return lowered + " = " + term, 1
	case domain.TextNotEqual:
		return lowered + " <> " + term, 1
	case domain.TextStartsWith:
		return "left(" + lowered + ", length(" + term + ")) = " + term, 2
	case domain.TextEndsWith:
		return "right(" + lowered + ", length(" + term + ")) = " + term, 2
	}
	return "", 0
}

func (d *PostgreSQLDialect) NumericExpr(col string, kind ColumnKind) string {
	if kind == ColumnKindBool {
		return "CAST(" + col + " AS INTEGER)"
	}
	return col
}

// OrderExpr spells out NULL placement since PostgreSQL sorts NULL highest
func (d *PostgreSQLDialect) OrderExpr(col string, kind ColumnKind, desc bool) string {
	if kind == ColumnKindText {
		col += ` COLLATE "C"`
	}
	if desc {
		return col + " DESC NULLS LAST"
	}
	return col + " ASC NULLS FIRST"
}

func (d *PostgreSQLDialect) MemoryDSN(dsn string) bool { return false }
