package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// MealType 餐别：早餐 / 午餐 / 晚餐
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

// AllMealTypes 按一天内的先后顺序排列，也是 MealTypes 的规范顺序
var AllMealTypes = []MealType{MealBreakfast, MealLunch, MealDinner}

var mealTypeLabels = map[MealType]string{
	MealBreakfast: "早餐",
	MealLunch:     "午餐",
	MealDinner:    "晚餐",
}

// ParseMealType 严格解析，大小写与首尾空白不敏感
func ParseMealType(s string) (MealType, bool) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := mealTypeLabels[m]; ok {
		return m, true
	}
	return "", false
}

func (m MealType) Valid() bool { _, ok := mealTypeLabels[m]; return ok }

// Label 中文展示名，未知值原样返回
func (m MealType) Label() string {
	if l, ok := mealTypeLabels[m]; ok {
		return l
	}
	return string(m)
}

// Order 用于排序：breakfast < lunch < dinner，未知值排最后
func (m MealType) Order() int {
	for i, v := range AllMealTypes {
		if v == m {
			return i + 1
		}
	}
	return len(AllMealTypes) + 1
}

// MealTypes 菜品可供应的餐别集合。
// 库里以 JSON 数组存储（["breakfast","lunch"]），只在持久化边界编解码；
// 业务代码拿到的永远是去重、合法、按规范顺序排列的集合。
type MealTypes []MealType

// NewMealTypes 严格构造：出现非法成员返回错误（用于写入路径）
func NewMealTypes(values ...string) (MealTypes, error) {
	set := make(map[MealType]struct{}, len(values))
	for _, v := range values {
		m, ok := ParseMealType(v)
		if !ok {
			return nil, fmt.Errorf("invalid meal type %q", v)
		}
		set[m] = struct{}{}
	}
	return fromSet(set), nil
}

func fromSet(set map[MealType]struct{}) MealTypes {
	out := make(MealTypes, 0, len(set))
	for _, m := range AllMealTypes {
		if _, ok := set[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Contains 精确成员判断
func (ms MealTypes) Contains(m MealType) bool {
	for _, v := range ms {
		if v == m {
			return true
		}
	}
	return false
}

func (ms MealTypes) Strings() []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, string(m))
	}
	return out
}

// Value 实现 driver.Valuer，始终写入 JSON 数组（空集合写 []）
func (ms MealTypes) Value() (driver.Value, error) {
	b, err := json.Marshal(ms.normalized().Strings())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner。
// 兼容历史脏数据：逗号拼接串（"breakfast,lunch"）、JSON 字符串包裹的数组、
// 非法成员直接丢弃，保证读出来的一定是合法集合。
func (ms *MealTypes) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*ms = MealTypes{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("meal_types: unsupported scan type %T", src)
	}
	*ms = ParseMealTypesLenient(raw)
	return nil
}

// ParseMealTypesLenient 宽松解析，供读库与数据修复使用
func ParseMealTypesLenient(raw string) MealTypes {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return MealTypes{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// "\"[\\\"lunch\\\"]\"" 这种被二次序列化的情况
		var inner string
		if json.Unmarshal([]byte(raw), &inner) == nil {
			return ParseMealTypesLenient(inner)
		}
		items = strings.FieldsFunc(strings.Trim(raw, "[]"), func(r rune) bool {
			return r == ',' || r == '，' || r == '|' || r == ';'
		})
	}
	set := make(map[MealType]struct{}, len(items))
	for _, it := range items {
		if m, ok := ParseMealType(strings.Trim(it, "\"' ")); ok {
			set[m] = struct{}{}
		}
	}
	return fromSet(set)
}

func (ms MealTypes) normalized() MealTypes {
	set := make(map[MealType]struct{}, len(ms))
	for _, m := range ms {
		if m.Valid() {
			set[m] = struct{}{}
		}
	}
	return fromSet(set)
}

// MarshalJSON 空集合输出 [] 而不是 null，前端直接 includes()
func (ms MealTypes) MarshalJSON() ([]byte, error) {
	return json.Marshal(ms.normalized().Strings())
}

func (ms *MealTypes) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("meal types must be a JSON array of strings: %w", err)
	}
	v, err := NewMealTypes(items...)
	if err != nil {
		return err
	}
	*ms = v
	return nil
}
