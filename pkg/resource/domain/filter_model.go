package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MaxFilterDepth 过滤树的最大嵌套深度
// 过滤模型来自不可信的客户端，超过此深度直接拒绝
const MaxFilterDepth = 64

// FilterKind 过滤节点种类
type FilterKind int

const (
	FilterKindText FilterKind = iota
	FilterKindNumber
	FilterKindCompound
	FilterKindUnrecognized
)

// String 返回过滤节点种类的字符串表示
func (k FilterKind) String() string {
	switch k {
	case FilterKindText:
		return "text"
	case FilterKindNumber:
		return "number"
	case FilterKindCompound:
		return "compound"
	default:
		return "unrecognized"
	}
}

// 叶子过滤器的 filterType
const (
	FilterTypeText   = "text"
	FilterTypeNumber = "number"
)

// TextOperator 文本过滤操作符
type TextOperator string

const (
	TextContains    TextOperator = "contains"
	TextNotContains TextOperator = "notContains"
	TextEquals      TextOperator = "equals"
	TextNotEqual    TextOperator = "notEqual"
	TextStartsWith  TextOperator = "startsWith"
	TextEndsWith    TextOperator = "endsWith"
	TextBlank       TextOperator = "blank"
	TextNotBlank    TextOperator = "notBlank"
)

// Valid 是否为支持的文本操作符
func (op TextOperator) Valid() bool {
	switch op {
	case TextContains, TextNotContains, TextEquals, TextNotEqual,
		TextStartsWith, TextEndsWith, TextBlank, TextNotBlank:
		return true
	}
	return false
}

// NumberOperator 数值过滤操作符
type NumberOperator string

const (
	NumberEquals             NumberOperator = "equals"
	NumberNotEqual           NumberOperator = "notEqual"
	NumberGreaterThan        NumberOperator = "greaterThan"
	NumberGreaterThanOrEqual NumberOperator = "greaterThanOrEqual"
	NumberLessThan           NumberOperator = "lessThan"
	NumberLessThanOrEqual    NumberOperator = "lessThanOrEqual"
	NumberInRange            NumberOperator = "inRange"
	NumberBlank              NumberOperator = "blank"
	NumberNotBlank           NumberOperator = "notBlank"
)

// Valid 是否为支持的数值操作符
func (op NumberOperator) Valid() bool {
	switch op {
	case NumberEquals, NumberNotEqual, NumberGreaterThan, NumberGreaterThanOrEqual,
		NumberLessThan, NumberLessThanOrEqual, NumberInRange, NumberBlank, NumberNotBlank:
		return true
	}
	return false
}

// LogicOperator 组合过滤器的逻辑操作符
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// FilterNode 过滤节点（封闭的和类型）
// 具体类型只有 *TextFilter、*NumberFilter、*CompoundFilter、*UnrecognizedFilter
type FilterNode interface {
	Kind() FilterKind
	filterNode()
}

// TextFilter 文本叶子过滤器
type TextFilter struct {
	Type   TextOperator
	Filter string
}

// NumberFilter 数值叶子过滤器，Filter/FilterTo 为 nil 表示客户端未提供
type NumberFilter struct {
	Type     NumberOperator
	Filter   *float64
	FilterTo *float64
}

// CompoundFilter AND/OR 组合过滤器
type CompoundFilter struct {
	Operator   LogicOperator
	Conditions []FilterNode
}

// UnrecognizedFilter filterType 既不是 text 也不是 number 的叶子
// 按策略求值为 false，而不是报错
type UnrecognizedFilter struct {
	FilterType string
}

func (*TextFilter) Kind() FilterKind         { return FilterKindText }
func (*NumberFilter) Kind() FilterKind       { return FilterKindNumber }
func (*CompoundFilter) Kind() FilterKind     { return FilterKindCompound }
func (*UnrecognizedFilter) Kind() FilterKind { return FilterKindUnrecognized }

func (*TextFilter) filterNode()         {}
func (*NumberFilter) filterNode()       {}
func (*CompoundFilter) filterNode()     {}
func (*UnrecognizedFilter) filterNode() {}

// FilterModel 过滤规格：字段名到过滤节点，顶层字段之间是隐式 AND
type FilterModel map[string]FilterNode

// Fields 返回引用的字段名
func (m FilterModel) Fields() []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	return fields
}

// ==================== 构造辅助函数 ====================

// Text 创建文本过滤器
func Text(op TextOperator, term string) *TextFilter {
	return &TextFilter{Type: op, Filter: term}
}

// Number 创建数值过滤器
func Number(op NumberOperator, value float64) *NumberFilter {
	return &NumberFilter{Type: op, Filter: &value}
}

// NumberRange 创建 inRange 数值过滤器（两端包含）
func NumberRange(from, to float64) *NumberFilter {
	return &NumberFilter{Type: NumberInRange, Filter: &from, FilterTo: &to}
}

// And 创建 AND 组合过滤器
func And(conditions ...FilterNode) *CompoundFilter {
	return &CompoundFilter{Operator: LogicAnd, Conditions: conditions}
}

// Or 创建 OR 组合过滤器
func Or(conditions ...FilterNode) *CompoundFilter {
	return &CompoundFilter{Operator: LogicOr, Conditions: conditions}
}

// ==================== JSON 解码 ====================

// rawFilterNode 网格过滤模型节点的原始 JSON 形状
type rawFilterNode struct {
	FilterType *string           `json:"filterType"`
	Type       *string           `json:"type"`
	Filter     json.RawMessage   `json:"filter"`
	FilterTo   json.RawMessage   `json:"filterTo"`
	Operator   string            `json:"operator"`
	Conditions []json.RawMessage `json:"conditions"`
}

// UnmarshalJSON 一次性把过滤模型解码为带标签的节点
func (m *FilterModel) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode filter model: %w", err)
	}
	if raw == nil {
		*m = nil
		return nil
	}

	model := make(FilterModel, len(raw))
	for field, msg := range raw {
		node, err := decodeFilterNode(msg, 1)
		if err != nil {
			return fmt.Errorf("filter for field %s: %w", field, err)
		}
		model[field] = node
	}
	*m = model
	return nil
}

// DecodeFilterNode 解码单个过滤节点
func DecodeFilterNode(data []byte) (FilterNode, error) {
	return decodeFilterNode(data, 1)
}

func decodeFilterNode(data []byte, depth int) (FilterNode, error) {
	if depth > MaxFilterDepth {
		return nil, NewErrFilterTooDeep(MaxFilterDepth)
	}

	// null 或空对象匹配所有行
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return And(), nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return nil, fmt.Errorf("decode filter node: %w", err)
	}
	if len(keys) == 0 {
		return And(), nil
	}

	var raw rawFilterNode
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode filter node: %w", err)
	}

	// 带 AND/OR 操作符的是组合节点，其他情况按叶子处理
	if op := strings.ToUpper(raw.Operator); op == string(LogicAnd) || op == string(LogicOr) {
		compound := &CompoundFilter{
			Operator:   LogicOperator(op),
			Conditions: make([]FilterNode, 0, len(raw.Conditions)),
		}
		for i, cond := range raw.Conditions {
			child, err := decodeFilterNode(cond, depth+1)
			if err != nil {
				return nil, fmt.Errorf("condition %d: %w", i, err)
			}
			compound.Conditions = append(compound.Conditions, child)
		}
		return compound, nil
	}

	filterType := FilterTypeText
	if raw.FilterType != nil {
		filterType = *raw.FilterType
	}

	switch filterType {
	case FilterTypeText:
		op := TextContains
		if raw.Type != nil {
			op = TextOperator(*raw.Type)
		}
		term, err := decodeTextTerm(raw.Filter)
		if err != nil {
			return nil, err
		}
		return &TextFilter{Type: op, Filter: term}, nil
	case FilterTypeNumber:
		op := NumberEquals
		if raw.Type != nil {
			op = NumberOperator(*raw.Type)
		}
		from, err := decodeNumberTerm(raw.Filter)
		if err != nil {
			return nil, err
		}
		to, err := decodeNumberTerm(raw.FilterTo)
		if err != nil {
			return nil, err
		}
		return &NumberFilter{Type: op, Filter: from, FilterTo: to}, nil
	default:
		return &UnrecognizedFilter{FilterType: filterType}, nil
	}
}

func decodeTextTerm(data json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, nil
	}
	// 非字符串标量按字面量处理
	var v interface{}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return "", NewErrInvalidFilterValue(FilterTypeText, string(trimmed))
	}
	switch v.(type) {
	case float64, bool:
		return string(trimmed), nil
	}
	return "", NewErrInvalidFilterValue(FilterTypeText, string(trimmed))
}

func decodeNumberTerm(data json.RawMessage) (*float64, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if s == "" {
			return nil, nil
		}
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &parsed, nil
		}
	}
	return nil, NewErrInvalidFilterValue(FilterTypeNumber, string(trimmed))
}

// ==================== JSON 编码 ====================

// MarshalJSON 编码为网格过滤模型形状
func (f *TextFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"filterType": FilterTypeText,
		"type":       f.Type,
		"filter":     f.Filter,
	})
}

// MarshalJSON 编码为网格过滤模型形状
func (f *NumberFilter) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"filterType": FilterTypeNumber,
		"type":       f.Type,
		"filter":     f.Filter,
	}
	if f.FilterTo != nil {
		out["filterTo"] = f.FilterTo
	}
	return json.Marshal(out)
}

// MarshalJSON 编码为网格过滤模型形状
func (f *CompoundFilter) MarshalJSON() ([]byte, error) {
	conditions := f.Conditions
	if conditions == nil {
		conditions = []FilterNode{}
	}
	return json.Marshal(map[string]interface{}{
		"operator":   f.Operator,
		"conditions": conditions,
	})
}

// MarshalJSON 编码为网格过滤模型形状
func (f *UnrecognizedFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"filterType": f.FilterType,
	})
}
