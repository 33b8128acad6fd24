package service

import (
	"context"
	"io"
	"strconv"

	"go-canteenadmin/internal/export"
	"go-canteenadmin/internal/query"
)

// MaxExportRows 单次导出上限
const MaxExportRows = 5000

// ExportMenuHistory 过滤条件同 GetMenuHistory，忽略分页，按页拉取后写出 xlsx
func (s *MenuService) ExportMenuHistory(ctx context.Context, p query.MenuHistoryParams, w io.Writer) (int, error) {
	p.Size = ""
	p.PageSize = strconv.Itoa(query.MaxPageSize)
	rows := make([]export.MenuHistoryRow, 0, query.MaxPageSize)
	for page := 1; len(rows) < MaxExportRows; page++ {
		p.Page = strconv.Itoa(page)
		res, err := s.GetMenuHistory(ctx, p)
		if err != nil {
			return 0, err
		}
		for _, m := range res.List {
			rows = append(rows, export.MenuHistoryRow{
				PublishDate:   m.PublishDate,
				MealLabel:     m.MealTypeLabel,
				Name:          m.Name,
				PublishStatus: string(m.PublishStatus),
				DishCount:     m.DishCount,
				CreatorName:   m.CreatorName,
				UpdateTime:    m.UpdateTime,
			})
		}
		if page >= res.Pagination.TotalPages {
			break
		}
	}
	if len(rows) > MaxExportRows {
		rows = rows[:MaxExportRows]
	}
	return len(rows), export.WriteMenuHistory(w, rows)
}
