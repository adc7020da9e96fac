package util

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LowerText 按 Unicode 规则转为小写，内存过滤和 SQLite 下推共用
// cases.Caser 有状态，不能跨 goroutine 共享，每次调用创建
func LowerText(s string) string {
	return cases.Lower(language.Und).String(s)
}
