package query

import (
	"strings"
	"time"

	"go-canteenadmin/internal/domain/model"
)

// StatusAll 显式要求包含已删除记录（管理端回收站）
const StatusAll = "all"

// DishParams 菜品列表的原始入参。只列出认识的选项，未知键在绑定时自然被忽略；
// 全部按字符串接收，类型校验与默认值在 NormalizeDish 里完成。
type DishParams struct {
	Status     string `form:"status" json:"status"`
	CategoryID string `form:"categoryId" json:"categoryId"`
	Keyword    string `form:"keyword" json:"keyword"`
	MealType   string `form:"mealType" json:"mealType"`
	Page       string `form:"page" json:"page"`
	PageSize   string `form:"pageSize" json:"pageSize"`
	Size       string `form:"size" json:"size"`
}

// DishFilter 校验后的菜品过滤条件
type DishFilter struct {
	// Status 非空时做等值过滤；为空时默认排除 deleted
	Status         model.DishStatus
	IncludeDeleted bool
	CategoryID     string
	Keyword        string
	// MealType 非空时做集合成员判断；MealTypeInvalid 表示传了非法值，结果必为空
	MealType        model.MealType
	MealTypeInvalid bool
	Page            Page
}

// NormalizeDish 非法输入一律降级为安全默认值，不返回错误
func NormalizeDish(p DishParams) DishFilter {
	f := DishFilter{
		CategoryID: strings.TrimSpace(p.CategoryID),
		Keyword:    strings.TrimSpace(p.Keyword),
		Page:       NewPage(p.Page, p.PageSize, p.Size),
	}
	if strings.EqualFold(strings.TrimSpace(p.Status), StatusAll) {
		f.IncludeDeleted = true
	} else if st, ok := model.ParseDishStatus(p.Status); ok {
		f.Status = st
	}
	f.MealType, f.MealTypeInvalid = normalizeMealType(p.MealType)
	return f
}

// Predicates 生成谓词；alias 为 dishes 表别名
func (f DishFilter) Predicates(d Dialect, alias string) *Builder {
	b := NewBuilder(d)
	col := func(c string) string { return alias + "." + c }
	switch {
	case f.Status != "":
		b.Where(col("status")+" = ?", string(f.Status))
	case !f.IncludeDeleted:
		b.Where(col("status")+" <> ?", string(model.DishDeleted))
	}
	if f.CategoryID != "" {
		b.Where(col("category_id")+" = ?", f.CategoryID)
	}
	if f.Keyword != "" {
		b.Where(d.ContainsFold(col("name")), LikeArg(f.Keyword))
	}
	if f.MealTypeInvalid {
		b.Never()
	} else if f.MealType != "" {
		b.Where(d.JSONContains(col("meal_types")), string(f.MealType))
	}
	return b
}

// DishOrder 默认按主键倒序（UUIDv7，新建在前）
func DishOrder(alias string) string { return alias + "._id DESC" }

// MenuHistoryParams 菜单历史的原始入参，全部可选
type MenuHistoryParams struct {
	StartDate     string `form:"startDate" json:"startDate"`
	EndDate       string `form:"endDate" json:"endDate"`
	MealType      string `form:"mealType" json:"mealType"`
	PublishStatus string `form:"publishStatus" json:"publishStatus"`
	Page          string `form:"page" json:"page"`
	PageSize      string `form:"pageSize" json:"pageSize"`
	Size          string `form:"size" json:"size"`
}

type MenuHistoryFilter struct {
	Start, End      *time.Time
	MealType        model.MealType
	MealTypeInvalid bool
	PublishStatus   model.PublishStatus
	Page            Page
}

func NormalizeMenuHistory(p MenuHistoryParams) MenuHistoryFilter {
	f := MenuHistoryFilter{Page: NewPage(p.Page, p.PageSize, p.Size)}
	if t, ok := ParseDate(p.StartDate); ok {
		f.Start = &t
	}
	if t, ok := ParseDate(p.EndDate); ok {
		f.End = &t
	}
	f.MealType, f.MealTypeInvalid = normalizeMealType(p.MealType)
	switch st := model.PublishStatus(strings.ToLower(strings.TrimSpace(p.PublishStatus))); st {
	case model.PublishDraft, model.PublishPublished, model.PublishArchived:
		f.PublishStatus = st
	}
	return f
}

// Predicates alias 为 menus 表别名；已删除菜单永远不可见
func (f MenuHistoryFilter) Predicates(d Dialect, alias string) *Builder {
	b := NewBuilder(d)
	col := func(c string) string { return alias + "." + c }
	b.Where(col("status")+" = ?", string(model.RecordActive))
	if f.Start != nil {
		b.Where(col("publish_date")+" >= ?", *f.Start)
	}
	if f.End != nil {
		b.Where(col("publish_date")+" <= ?", *f.End)
	}
	if f.MealTypeInvalid {
		b.Never()
	} else if f.MealType != "" {
		b.Where(col("meal_type")+" = ?", string(f.MealType))
	}
	if f.PublishStatus != "" {
		b.Where(col("publish_status")+" = ?", string(f.PublishStatus))
	}
	return b
}

// MenuHistoryOrder 日期倒序，同日按早中晚，再按主键保证稳定
func MenuHistoryOrder(d Dialect, alias string) string {
	return alias + ".publish_date DESC, " + d.MealOrder(alias+".meal_type") + " ASC, " + alias + "._id DESC"
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "20060102"}

// ParseDate 解析为 UTC 零点；空串或格式不对返回 false
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate 与 ParseDate 对应
func FormatDate(t time.Time) string { return t.UTC().Format("2006-01-02") }

func normalizeMealType(s string) (model.MealType, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	m, ok := model.ParseMealType(s)
	if !ok {
		return "", true
	}
	return m, false
}
