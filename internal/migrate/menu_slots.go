package migrate

import (
	"context"
	"time"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/repository/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SlotReport struct {
	Scanned int
	Filled  int
	// Duplicates 同一槽位多出来的未删除菜单，保持 slot_active 为空，需要人工合并或删除
	Duplicates []string
}

type slotRow struct {
	ID          string    `gorm:"column:_id"`
	PublishDate time.Time `gorm:"column:publish_date"`
	MealType    string    `gorm:"column:meal_type"`
}

// BackfillMenuSlots 为加列之前的未删除菜单补上 slot_active。
// 同一槽位有多份时保留 _id 最大的一份（与按日期查询返回的一致），其余记入 Duplicates。
func BackfillMenuSlots(ctx context.Context, gw *database.Gateway, l *logging.Logger, dryRun bool) (SlotReport, error) {
	var rep SlotReport
	var rows []slotRow
	err := gw.Run(ctx, "migrate.menu_slots.scan", func(db *gorm.DB) error {
		return db.Table(model.Menu{}.TableName()).
			Select("_id, publish_date, meal_type").
			Where("status = ? AND slot_active IS NULL", string(model.RecordActive)).
			Order("publish_date, meal_type, _id DESC").
			Scan(&rows).Error
	})
	if err != nil {
		return rep, err
	}
	var lastDate time.Time
	lastMeal := ""
	for _, r := range rows {
		rep.Scanned++
		if r.PublishDate.Equal(lastDate) && r.MealType == lastMeal {
			rep.Duplicates = append(rep.Duplicates, r.ID)
			continue
		}
		lastDate, lastMeal = r.PublishDate, r.MealType
		if dryRun {
			rep.Filled++
			continue
		}
		err := gw.Run(ctx, "migrate.menu_slots.fill", func(db *gorm.DB) error {
			return db.Table(model.Menu{}.TableName()).Where("_id = ?", r.ID).Update("slot_active", 1).Error
		})
		if database.IsDuplicateKey(err) {
			// 槽位已被带 slot_active 的新记录占用
			rep.Duplicates = append(rep.Duplicates, r.ID)
			continue
		}
		if err != nil {
			return rep, err
		}
		rep.Filled++
	}
	if len(rep.Duplicates) > 0 {
		l.Warn("menu_slot_duplicates", zap.Strings("menu_ids", rep.Duplicates), zap.Bool("dry_run", dryRun))
	}
	return rep, nil
}
