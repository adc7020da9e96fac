package sql

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// ScanRows reads all rows from *sql.Rows into domain rows.
// Values are normalized by the kind of their column so that text-protocol
// results (MySQL returns []byte for every column) come back typed.
func ScanRows(rows *sql.Rows, columns map[string]ColumnKind) ([]domain.Row, error) {
	colNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	result := make([]domain.Row, 0)
	for rows.Next() {
		row, err := scanRow(rows, colNames, columns)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

func scanRow(rows *sql.Rows, colNames []string, columns map[string]ColumnKind) (domain.Row, error) {
	// Create scan targets
	values := make([]interface{}, len(colNames))
	scanTargets := make([]interface{}, len(colNames))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	if err := rows.Scan(scanTargets...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(domain.Row, len(colNames))
	for i, name := range colNames {
		row[name] = normalizeValue(values[i], columns[name])
	}

	return row, nil
}

// normalizeValue converts database/sql scanned values to standard Go types.
func normalizeValue(v interface{}, kind ColumnKind) interface{} {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case []byte:
		return normalizeText(string(val), kind)
	case string:
		return normalizeText(val, kind)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case int64:
		if kind == ColumnKindBool {
			return val != 0
		}
		return val
	case int32:
		return normalizeValue(int64(val), kind)
	case float32:
		return float64(val)
	case float64:
		return val
	case bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func normalizeText(s string, kind ColumnKind) interface{} {
	switch kind {
	case ColumnKindNumber:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case ColumnKindBool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}
