package sql

import "strings"

// ColumnKind 列的值类别，决定过滤条件如何编译
type ColumnKind int

const (
	ColumnKindOther ColumnKind = iota
	ColumnKindText
	ColumnKindNumber
	ColumnKindBool
)

// String 返回列类别名
func (k ColumnKind) String() string {
	switch k {
	case ColumnKindText:
		return "text"
	case ColumnKindNumber:
		return "number"
	case ColumnKindBool:
		return "bool"
	default:
		return "other"
	}
}

func parseColumnKind(s string) (ColumnKind, bool) {
	switch strings.ToLower(s) {
	case "text", "string":
		return ColumnKindText, true
	case "number", "numeric":
		return ColumnKindNumber, true
	case "bool", "boolean":
		return ColumnKindBool, true
	case "other":
		return ColumnKindOther, true
	}
	return ColumnKindOther, false
}

// ClassifyColumnType 把数据库列类型名映射为列类别
func ClassifyColumnType(dbTypeName string) ColumnKind {
	t := strings.ToLower(strings.TrimSpace(dbTypeName))
	switch {
	case strings.Contains(t, "bool"):
		return ColumnKindBool
	case strings.Contains(t, "int"),
		strings.Contains(t, "real"),
		strings.Contains(t, "float"),
		strings.Contains(t, "double"),
		strings.Contains(t, "numeric"),
		strings.Contains(t, "decimal"),
		strings.Contains(t, "serial"):
		return ColumnKindNumber
	case strings.Contains(t, "char"),
		strings.Contains(t, "text"),
		strings.Contains(t, "clob"),
		t == "string":
		return ColumnKindText
	default:
		return ColumnKindOther
	}
}
