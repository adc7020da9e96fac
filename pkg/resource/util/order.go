package util

import (
	"sort"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// ApplySort 按排序规格稳定排序，返回新切片
// 相等的行保持原有相对顺序；缺失的排序字段按 nil 处理
func ApplySort(rows []domain.Row, sortModel domain.SortModel) []domain.Row {
	if len(sortModel) == 0 {
		return rows
	}

	result := make([]domain.Row, len(rows))
	copy(result, rows)

	sort.SliceStable(result, func(i, j int) bool {
		return compareRows(result[i], result[j], sortModel) < 0
	})

	return result
}

func compareRows(a, b domain.Row, sortModel domain.SortModel) int {
	for _, item := range sortModel {
		cmp := CompareValues(a[item.ColID], b[item.ColID])
		if cmp == 0 {
			continue
		}
		if item.Desc() {
			return -cmp
		}
		return cmp
	}
	return 0
}
