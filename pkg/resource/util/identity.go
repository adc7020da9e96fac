package util

import (
	"math"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// SameID 判断行标识是否相同，按格式化文本比较，路径参数 "7" 与 int64(7) 相同
func SameID(rowID, id interface{}) bool {
	if rowID == nil || id == nil {
		return false
	}
	return FormatValue(rowID) == FormatValue(id)
}

// FindByID 返回标识为 id 的第一行的下标，找不到返回 -1
func FindByID(rows []domain.Row, id interface{}) int {
	for i, r := range rows {
		if SameID(r[domain.RowIDField], id) {
			return i
		}
	}
	return -1
}

// MaxID 返回数值行标识的最大值，非数值标识被忽略，没有行时返回 0
func MaxID(rows []domain.Row) int64 {
	var max int64
	for _, r := range rows {
		f, ok := ToFloat64(r[domain.RowIDField])
		if !ok {
			continue
		}
		if n := int64(math.Floor(f)); n > max {
			max = n
		}
	}
	return max
}
