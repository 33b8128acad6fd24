package query

import (
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page 归一化后的分页参数
type Page struct {
	Page     int
	PageSize int
}

// Pagination 返回给前端的分页信息，字段名与旧接口保持一致
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewPage 同时接受 pageSize 与 size 两种命名（pageSize 优先）；
// 非数字或 <=0 回落默认值，pageSize 上限 MaxPageSize
func NewPage(page, pageSize, size string) Page {
	p := Page{Page: positiveOr(page, DefaultPage), PageSize: DefaultPageSize}
	if v, ok := positive(pageSize); ok {
		p.PageSize = v
	} else if v, ok := positive(size); ok {
		p.PageSize = v
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.PageSize }

func (p Page) Limit() int { return p.PageSize }

func (p Page) Meta(total int64) Pagination {
	pages := 0
	if total > 0 && p.PageSize > 0 {
		pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return Pagination{Total: total, Page: p.Page, PageSize: p.PageSize, TotalPages: pages}
}

func positive(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func positiveOr(s string, def int) int {
	if v, ok := positive(s); ok {
		return v
	}
	return def
}
