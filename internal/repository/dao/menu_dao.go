package dao

import (
	"context"
	"fmt"
	"time"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/database"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MenuLine 菜单明细 + 菜品名 / 分类名。菜品被删后明细仍保留快照价格，名称可能为空
type MenuLine struct {
	DishID       string          `gorm:"column:dish_id" json:"dishId"`
	DishName     string          `gorm:"column:dish_name" json:"dishName"`
	CategoryName string          `gorm:"column:category_name" json:"categoryName"`
	Price        decimal.Decimal `gorm:"column:price" json:"price"`
	Sort         int             `gorm:"column:sort" json:"sort"`
}

// MenuHistoryRow 历史列表行
type MenuHistoryRow struct {
	model.Menu
	DishCount   int64  `gorm:"column:dish_count" json:"dishCount"`
	CreatorName string `gorm:"column:creator_name" json:"creatorName"`
}

type MenuDAO struct{ database.Scope }

func NewMenuDAO(gw *database.Gateway) *MenuDAO { return &MenuDAO{Scope: database.NewScope(gw)} }

// WithTx 绑定到外层事务
func (d *MenuDAO) WithTx(tx *gorm.DB) *MenuDAO { return &MenuDAO{Scope: d.Bind(tx)} }

func (d *MenuDAO) tracer() trace.Tracer { return otel.Tracer("dao.menu") }

func (d *MenuDAO) slot(db *gorm.DB, date time.Time, meal model.MealType) *gorm.DB {
	return db.Where("publish_date = ? AND meal_type = ? AND status = ?", date, string(meal), string(model.RecordActive))
}

// FindBySlot 某天某餐未删除的菜单，不区分发布状态；没有返回 nil, nil
func (d *MenuDAO) FindBySlot(ctx context.Context, date time.Time, meal model.MealType) (*model.Menu, error) {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.FindBySlot")
	defer span.End()
	var list []model.Menu
	err := d.Exec(ctx, "menu.find_by_slot", func(db *gorm.DB) error {
		return d.slot(db, date, meal).Order("_id DESC").Limit(1).Find(&list).Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("find menu %s/%s: %w", query.FormatDate(date), meal, err))
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// LockSlot 只能在事务内调用：对槽位已有记录加行锁，串行化同一菜单的并发编辑。
// 槽位为空时不一定能锁住（PostgreSQL 不加间隙锁），并发首存由 uniq_menu_slot 拦截
func (d *MenuDAO) LockSlot(ctx context.Context, date time.Time, meal model.MealType) ([]model.Menu, error) {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.LockSlot")
	defer span.End()
	var list []model.Menu
	err := d.Exec(ctx, "menu.lock_slot", func(db *gorm.DB) error {
		return d.slot(db.Clauses(clause.Locking{Strength: "UPDATE"}), date, meal).Order("_id ASC").Find(&list).Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("lock menu slot: %w", err))
	}
	return list, nil
}

// Get 未删除菜单
func (d *MenuDAO) Get(ctx context.Context, id string) (*model.Menu, error) {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.Get")
	defer span.End()
	var m model.Menu
	err := d.Exec(ctx, "menu.get", func(db *gorm.DB) error {
		return db.Where("_id = ? AND status = ?", id, string(model.RecordActive)).Take(&m).Error
	})
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("get menu id=%s: %w", id, err))
	}
	return &m, nil
}

// GetForUpdate 事务内按 id 取并加锁（含已删除，由调用方判断）
func (d *MenuDAO) GetForUpdate(ctx context.Context, id string) (*model.Menu, error) {
	var list []model.Menu
	err := d.Exec(ctx, "menu.get_for_update", func(db *gorm.DB) error {
		return db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("_id = ?", id).Limit(1).Find(&list).Error
	})
	if err != nil {
		return nil, fmt.Errorf("lock menu id=%s: %w", id, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// Lines 菜单有效明细，sort 升序（同 sort 按 dish_id 保持稳定）
func (d *MenuDAO) Lines(ctx context.Context, menuID string) ([]MenuLine, error) {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.Lines")
	defer span.End()
	lines := make([]MenuLine, 0)
	err := d.Exec(ctx, "menu.lines", func(db *gorm.DB) error {
		return db.Table("menu_dishes AS md").
			Select("md.dish_id, md.price, md.sort, COALESCE(d.name, '') AS dish_name, COALESCE(c.name, '') AS category_name").
			Joins("LEFT JOIN dishes d ON d._id = md.dish_id").
			Joins(dishCategoryJoin, string(model.RecordActive)).
			Where("md.menu_id = ? AND md.status = ?", menuID, string(model.RecordActive)).
			Order("md.sort ASC, md.dish_id ASC").
			Scan(&lines).Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("menu lines id=%s: %w", menuID, err))
	}
	return lines, nil
}

func (d *MenuDAO) Create(ctx context.Context, m *model.Menu) error {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.Create")
	defer span.End()
	if err := d.Exec(ctx, "menu.create", func(db *gorm.DB) error { return db.Create(m).Error }); err != nil {
		return recordErr(span, fmt.Errorf("create menu: %w", err))
	}
	return nil
}

// UpdateHeader 更新草稿的名称 / 描述
func (d *MenuDAO) UpdateHeader(ctx context.Context, m *model.Menu) error {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.UpdateHeader")
	defer span.End()
	err := d.Exec(ctx, "menu.update_header", func(db *gorm.DB) error {
		return db.Model(&model.Menu{}).Where("_id = ?", m.ID).Updates(map[string]interface{}{
			"name":        m.Name,
			"description": m.Description,
			"update_time": m.UpdateTime,
		}).Error
	})
	if err != nil {
		return recordErr(span, fmt.Errorf("update menu id=%s: %w", m.ID, err))
	}
	return nil
}

// ReplaceLines 先物理删除再整体插入；调用方负责放在同一事务里
func (d *MenuDAO) ReplaceLines(ctx context.Context, menuID string, lines []model.MenuDish) error {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.ReplaceLines")
	defer span.End()
	span.SetAttributes(attribute.Int("menu.lines", len(lines)))
	err := d.Exec(ctx, "menu.replace_lines", func(db *gorm.DB) error {
		if err := db.Where("menu_id = ?", menuID).Delete(&model.MenuDish{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return db.CreateInBatches(lines, 200).Error
	})
	if err != nil {
		return recordErr(span, fmt.Errorf("replace menu lines id=%s: %w", menuID, err))
	}
	return nil
}

// TransitPublish 条件更新：只有当前处于 from 状态才会迁移到 to
func (d *MenuDAO) TransitPublish(ctx context.Context, id string, from, to model.PublishStatus) (bool, error) {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.TransitPublish")
	defer span.End()
	var affected int64
	err := d.Exec(ctx, "menu.transit_publish", func(db *gorm.DB) error {
		res := db.Model(&model.Menu{}).
			Where("_id = ? AND status = ? AND publish_status = ?", id, string(model.RecordActive), string(from)).
			Updates(map[string]interface{}{"publish_status": string(to), "update_time": time.Now().UTC()})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, recordErr(span, fmt.Errorf("menu %s -> %s id=%s: %w", from, to, id, err))
	}
	return affected > 0, nil
}

// SoftDelete 菜单与其明细一起标记删除；幂等
func (d *MenuDAO) SoftDelete(ctx context.Context, id string) (bool, error) {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.SoftDelete")
	defer span.End()
	var affected int64
	err := d.Tx(ctx, "menu.soft_delete", func(tx *gorm.DB) error {
		res := tx.Model(&model.Menu{}).
			Where("_id = ? AND status = ?", id, string(model.RecordActive)).
			Updates(map[string]interface{}{"status": string(model.RecordDeleted), "slot_active": nil, "update_time": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Model(&model.MenuDish{}).
			Where("menu_id = ?", id).
			Update("status", string(model.RecordDeleted)).Error
	})
	if err != nil {
		return false, recordErr(span, fmt.Errorf("soft delete menu id=%s: %w", id, err))
	}
	return affected > 0, nil
}

// History 分页历史，附带有效菜品数与创建人
func (d *MenuDAO) History(ctx context.Context, f query.MenuHistoryFilter) ([]MenuHistoryRow, int64, error) {
	ctx, span := d.tracer().Start(ctx, "MenuDAO.History")
	defer span.End()
	rows := make([]MenuHistoryRow, 0)
	var total int64
	preds := f.Predicates(d.Dialect(), "m")
	err := d.Read(ctx, "menu.history", func(db *gorm.DB) error {
		if err := preds.Apply(db.Table("menus AS m")).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 || f.Page.Offset() >= int(total) {
			return nil
		}
		return preds.Apply(db.Table("menus AS m")).
			Select("m.*, COALESCE(u.name, '') AS creator_name, "+
				"(SELECT COUNT(*) FROM menu_dishes md WHERE md.menu_id = m._id AND md.status = ?) AS dish_count",
				string(model.RecordActive)).
			Joins("LEFT JOIN users u ON u._id = m.created_by").
			Order(query.MenuHistoryOrder(d.Dialect(), "m")).
			Offset(f.Page.Offset()).Limit(f.Page.Limit()).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, 0, recordErr(span, fmt.Errorf("menu history: %w", err))
	}
	span.SetAttributes(attribute.Int64("menu.total", total))
	return rows, total, nil
}
