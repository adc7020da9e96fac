package window

import "github.com/kasuganosora/gridsource/pkg/resource/domain"

// Limits 边界层对窗口请求的限制，0 表示不限制
type Limits struct {
	// MaxEndRow 是 endRow 的开区间上限：endRow 必须小于它
	MaxEndRow int
	// MaxPageSize 是 endRow-startRow 的闭区间上限
	MaxPageSize int
}

// Check 在解析前检查请求是否超限，超限时返回 ErrRowLimitExceeded
func (l Limits) Check(req *domain.WindowRequest) error {
	if req == nil {
		return nil
	}
	if l.MaxEndRow > 0 && req.EndRow >= l.MaxEndRow {
		return domain.NewErrRowLimitExceeded(req.EndRow, l.MaxEndRow)
	}
	if l.MaxPageSize > 0 && req.Size() > l.MaxPageSize {
		return domain.NewErrRowLimitExceeded(req.Size(), l.MaxPageSize)
	}
	return nil
}
