package util

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// 值的自然顺序类别：nil < 数值 < 字符串
const (
	rankNil = iota
	rankNumber
	rankString
)

// ToFloat64 将数值类型转换为 float64
// 只接受整数/浮点类型、bool（0/1）和 json.Number，字符串不做解析
func ToFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		return 0, false
	default:
		// 命名的数值类型
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), true
		case reflect.Float32, reflect.Float64:
			return rv.Float(), true
		case reflect.Bool:
			if rv.Bool() {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
}

// IsTruthy 值是否为真：nil、空字符串、数值 0 和 false 为假
func IsTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	if f, ok := ToFloat64(v); ok {
		return f != 0
	}
	return true
}

// FormatValue 把标量格式化为文本比较使用的字符串，nil 为空字符串
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func rankOf(v interface{}) (int, float64) {
	if v == nil {
		return rankNil, 0
	}
	if f, ok := ToFloat64(v); ok {
		return rankNumber, f
	}
	return rankString, 0
}

// CompareValues 按自然顺序比较两个值，返回 -1、0、1
// nil 最小，其次是数值（按大小），最后是字符串（按字典序）
func CompareValues(a, b interface{}) int {
	rankA, numA := rankOf(a)
	rankB, numB := rankOf(b)
	if rankA != rankB {
		if rankA < rankB {
			return -1
		}
		return 1
	}

	switch rankA {
	case rankNil:
		return 0
	case rankNumber:
		if numA < numB {
			return -1
		} else if numA > numB {
			return 1
		}
		return 0
	default:
		aStr := FormatValue(a)
		bStr := FormatValue(b)
		if aStr < bStr {
			return -1
		} else if aStr > bStr {
			return 1
		}
		return 0
	}
}
