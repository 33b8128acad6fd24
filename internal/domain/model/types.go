package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList 有序字符串列表，JSON 数组存储
type StringList []string

// Tags 菜品标签
type Tags = StringList

func (t StringList) Value() (driver.Value, error) {
	if t == nil {
		t = StringList{}
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("tags: unsupported scan type %T", src)
	}
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		*t = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	*t = out
	return nil
}

func (t StringList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// DishStatus 菜品状态；deleted 只做软删除，永不物理删除
type DishStatus string

const (
	DishActive   DishStatus = "active"
	DishInactive DishStatus = "inactive"
	DishDeleted  DishStatus = "deleted"
)

func ParseDishStatus(s string) (DishStatus, bool) {
	switch st := DishStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case DishActive, DishInactive, DishDeleted:
		return st, true
	}
	return "", false
}

// RecordStatus 菜单、菜单明细、分类、部门等的软删除标记
type RecordStatus string

const (
	RecordActive  RecordStatus = "active"
	RecordDeleted RecordStatus = "deleted"
)

// PublishStatus 菜单发布状态机：draft -> published -> archived
type PublishStatus string

const (
	PublishDraft     PublishStatus = "draft"
	PublishPublished PublishStatus = "published"
	PublishArchived  PublishStatus = "archived"
)

// CanTransition 只允许相邻的前进迁移
func (p PublishStatus) CanTransition(to PublishStatus) bool {
	switch p {
	case PublishDraft:
		return to == PublishPublished
	case PublishPublished:
		return to == PublishArchived
	}
	return false
}

// Role 用户角色
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleDiner Role = "diner"
)
