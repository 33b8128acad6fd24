// Package migrate 表结构迁移之外的一次性数据修复
package migrate

import (
	"context"
	"database/sql"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/repository/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Report struct {
	Scanned int
	Fixed   int
	// Emptied 修复后没有任何合法餐次的菜品，需要人工补录
	Emptied []string
}

type rawMealTypes struct {
	ID  string         `gorm:"column:_id"`
	Raw sql.NullString `gorm:"column:meal_types"`
}

const batchSize = 500

// NormalizeMealTypes 把 dishes.meal_types 历史脏数据统一改写为规范 JSON 数组。
// dryRun 时只统计不写库。
func NormalizeMealTypes(ctx context.Context, gw *database.Gateway, l *logging.Logger, dryRun bool) (Report, error) {
	var rep Report
	lastID := ""
	for {
		var batch []rawMealTypes
		err := gw.Run(ctx, "migrate.meal_types.scan", func(db *gorm.DB) error {
			return db.Table(model.Dish{}.TableName()).
				Select("_id, meal_types").
				Where("_id > ?", lastID).
				Order("_id").
				Limit(batchSize).
				Scan(&batch).Error
		})
		if err != nil {
			return rep, err
		}
		if len(batch) == 0 {
			return rep, nil
		}
		for _, row := range batch {
			rep.Scanned++
			canonical, changed := canonicalMealTypes(row.Raw)
			if !changed {
				continue
			}
			if canonical == "[]" {
				rep.Emptied = append(rep.Emptied, row.ID)
			}
			l.Info("meal_types_normalize", zap.String("dish_id", row.ID), zap.String("from", row.Raw.String), zap.String("to", canonical), zap.Bool("dry_run", dryRun))
			rep.Fixed++
			if dryRun {
				continue
			}
			err := gw.Run(ctx, "migrate.meal_types.fix", func(db *gorm.DB) error {
				return db.Table(model.Dish{}.TableName()).Where("_id = ?", row.ID).Update("meal_types", canonical).Error
			})
			if err != nil {
				return rep, err
			}
		}
		lastID = batch[len(batch)-1].ID
	}
}

func canonicalMealTypes(raw sql.NullString) (string, bool) {
	v, _ := model.ParseMealTypesLenient(raw.String).Value()
	canonical := v.(string)
	return canonical, !raw.Valid || raw.String != canonical
}
