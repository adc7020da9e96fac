package domain

import (
	"encoding/json"
	"strings"
)

// SortDirection 排序方向
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortItem 单个排序键
type SortItem struct {
	ColID string        `json:"colId"`
	Sort  SortDirection `json:"sort"`
}

// SortModel 有序排序规格，第一个键为主键，后续键依次打破平局
type SortModel []SortItem

// Desc 是否降序
func (s SortItem) Desc() bool {
	return s.Sort == SortDesc
}

// UnmarshalJSON 同时接受网格形状 {colId, sort} 和 {field, direction}
func (s *SortItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ColID     string `json:"colId"`
		Field     string `json:"field"`
		Sort      string `json:"sort"`
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	field := raw.ColID
	if field == "" {
		field = raw.Field
	}
	dir := raw.Sort
	if dir == "" {
		dir = raw.Direction
	}
	if field == "" {
		return NewErrInvalidSort(field, dir)
	}

	switch strings.ToLower(dir) {
	case "", string(SortAsc):
		s.Sort = SortAsc
	case string(SortDesc):
		s.Sort = SortDesc
	default:
		return NewErrInvalidSort(field, dir)
	}
	s.ColID = field
	return nil
}

// Fields 返回排序引用的字段名
func (m SortModel) Fields() []string {
	fields := make([]string, 0, len(m))
	for _, item := range m {
		fields = append(fields, item.ColID)
	}
	return fields
}
