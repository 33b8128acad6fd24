// Package export 把查询结果写成 xlsx。
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const menuSheet = "菜单历史"

var menuHeader = []interface{}{"日期", "餐别", "菜单名称", "发布状态", "菜品数", "创建人", "更新时间"}

var publishLabels = map[string]string{
	"draft":     "草稿",
	"published": "已发布",
	"archived":  "已归档",
}

// MenuHistoryRow 一行导出数据，与服务层视图解耦
type MenuHistoryRow struct {
	PublishDate   string
	MealLabel     string
	Name          string
	PublishStatus string
	DishCount     int64
	CreatorName   string
	UpdateTime    time.Time
}

// WriteMenuHistory 用 StreamWriter 顺序写入，行数较多时内存占用稳定
func WriteMenuHistory(w io.Writer, rows []MenuHistoryRow) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", menuSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(menuSheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 14); err != nil {
		return err
	}
	if err := sw.SetColWidth(3, 3, 28); err != nil {
		return err
	}
	if err := sw.SetColWidth(7, 7, 20); err != nil {
		return err
	}
	if err := sw.SetRow("A1", menuHeader); err != nil {
		return err
	}
	for i, r := range rows {
		status := r.PublishStatus
		if l, ok := publishLabels[status]; ok {
			status = l
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		updated := ""
		if !r.UpdateTime.IsZero() {
			updated = r.UpdateTime.UTC().Format("2006-01-02 15:04:05")
		}
		if err := sw.SetRow(cell, []interface{}{r.PublishDate, r.MealLabel, r.Name, status, r.DishCount, r.CreatorName, updated}); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
