package util

import (
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// ApplyWindow 截取 [start, min(end, len(rows))) 范围的行
// start 超出范围时返回空切片而不是错误
func ApplyWindow(rows []domain.Row, start, end int) []domain.Row {
	if start < 0 {
		start = 0
	}
	if start >= len(rows) || end <= start {
		return []domain.Row{}
	}
	if end > len(rows) {
		end = len(rows)
	}

	return rows[start:end:end]
}
