package dao

import (
	"context"
	"fmt"
	"time"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/database"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DishRow 列表行：菜品 + 分类名（分类缺失或已删除时为空串）
type DishRow struct {
	model.Dish
	CategoryName string `gorm:"column:category_name" json:"categoryName"`
}

// DishDetail 详情：额外带上创建人及其部门
type DishDetail struct {
	model.Dish
	CategoryName   string `gorm:"column:category_name" json:"categoryName"`
	AuthorName     string `gorm:"column:author_name" json:"authorName"`
	DepartmentName string `gorm:"column:department_name" json:"departmentName"`
}

type DishDAO struct{ database.Scope }

func NewDishDAO(gw *database.Gateway) *DishDAO { return &DishDAO{Scope: database.NewScope(gw)} }

// WithTx 绑定到外层事务
func (d *DishDAO) WithTx(tx *gorm.DB) *DishDAO { return &DishDAO{Scope: d.Bind(tx)} }

func (d *DishDAO) tracer() trace.Tracer { return otel.Tracer("dao.dish") }

const dishCategoryJoin = "LEFT JOIN dish_categories c ON c._id = d.category_id AND c.status = ?"

// List count 与 data 共用同一组谓词，并在同一快照内执行
func (d *DishDAO) List(ctx context.Context, f query.DishFilter) ([]DishRow, int64, error) {
	ctx, span := d.tracer().Start(ctx, "DishDAO.List")
	defer span.End()
	rows := make([]DishRow, 0)
	var total int64
	preds := f.Predicates(d.Dialect(), "d")
	err := d.Read(ctx, "dish.list", func(db *gorm.DB) error {
		if err := preds.Apply(db.Table("dishes AS d")).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 || f.Page.Offset() >= int(total) {
			return nil
		}
		return preds.Apply(db.Table("dishes AS d")).
			Select("d.*, COALESCE(c.name, '') AS category_name").
			Joins(dishCategoryJoin, string(model.RecordActive)).
			Order(query.DishOrder("d")).
			Offset(f.Page.Offset()).Limit(f.Page.Limit()).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, 0, recordErr(span, fmt.Errorf("list dishes: %w", err))
	}
	span.SetAttributes(attribute.Int64("dish.total", total))
	return rows, total, nil
}

// Detail 未删除菜品详情；不存在返回 nil, nil
func (d *DishDAO) Detail(ctx context.Context, id string) (*DishDetail, error) {
	ctx, span := d.tracer().Start(ctx, "DishDAO.Detail")
	defer span.End()
	var row DishDetail
	var found bool
	err := d.Exec(ctx, "dish.detail", func(db *gorm.DB) error {
		res := db.Table("dishes AS d").
			Select("d.*, COALESCE(c.name, '') AS category_name, COALESCE(u.name, '') AS author_name, COALESCE(dep.name, '') AS department_name").
			Joins(dishCategoryJoin, string(model.RecordActive)).
			Joins("LEFT JOIN users u ON u._id = d.created_by").
			Joins("LEFT JOIN departments dep ON dep._id = u.department_id").
			Where("d._id = ? AND d.status <> ?", id, string(model.DishDeleted)).
			Limit(1).
			Scan(&row)
		found = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("dish detail id=%s: %w", id, err))
	}
	if !found {
		return nil, nil
	}
	return &row, nil
}

// Get 未删除的菜品实体
func (d *DishDAO) Get(ctx context.Context, id string) (*model.Dish, error) {
	ctx, span := d.tracer().Start(ctx, "DishDAO.Get")
	defer span.End()
	var m model.Dish
	err := d.Exec(ctx, "dish.get", func(db *gorm.DB) error {
		return db.Where("_id = ? AND status <> ?", id, string(model.DishDeleted)).Take(&m).Error
	})
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("get dish id=%s: %w", id, err))
	}
	return &m, nil
}

// FindUsable 批量取未删除菜品，key 为 _id
func (d *DishDAO) FindUsable(ctx context.Context, ids []string) (map[string]model.Dish, error) {
	ctx, span := d.tracer().Start(ctx, "DishDAO.FindUsable")
	defer span.End()
	out := make(map[string]model.Dish, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.Dish
	err := d.Exec(ctx, "dish.find_usable", func(db *gorm.DB) error {
		return db.Where("_id IN ? AND status <> ?", ids, string(model.DishDeleted)).Find(&list).Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("find dishes: %w", err))
	}
	for _, m := range list {
		out[m.ID] = m
	}
	return out, nil
}

func (d *DishDAO) Create(ctx context.Context, m *model.Dish) error {
	ctx, span := d.tracer().Start(ctx, "DishDAO.Create")
	defer span.End()
	if err := d.Exec(ctx, "dish.create", func(db *gorm.DB) error { return db.Create(m).Error }); err != nil {
		return recordErr(span, fmt.Errorf("create dish: %w", err))
	}
	return nil
}

// Update 覆盖可编辑字段；已删除菜品不可修改，返回是否命中
func (d *DishDAO) Update(ctx context.Context, m *model.Dish) (bool, error) {
	ctx, span := d.tracer().Start(ctx, "DishDAO.Update")
	defer span.End()
	var affected int64
	err := d.Exec(ctx, "dish.update", func(db *gorm.DB) error {
		res := db.Model(&model.Dish{}).
			Where("_id = ? AND status <> ?", m.ID, string(model.DishDeleted)).
			Updates(map[string]interface{}{
				"name":         m.Name,
				"description":  m.Description,
				"price":        m.Price,
				"category_id":  m.CategoryID,
				"meal_types":   m.MealTypes,
				"tags":         m.Tags,
				"calories":     m.Calories,
				"protein":      m.Protein,
				"fat":          m.Fat,
				"carbohydrate": m.Carbohydrate,
				"updated_by":   m.UpdatedBy,
				"update_time":  m.UpdateTime,
			})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, recordErr(span, fmt.Errorf("update dish id=%s: %w", m.ID, err))
	}
	return affected > 0, nil
}

// SetStatus 上下架；已删除的不会被复活
func (d *DishDAO) SetStatus(ctx context.Context, id string, st model.DishStatus, actorID string) (bool, error) {
	ctx, span := d.tracer().Start(ctx, "DishDAO.SetStatus")
	defer span.End()
	var affected int64
	err := d.Exec(ctx, "dish.set_status", func(db *gorm.DB) error {
		res := db.Model(&model.Dish{}).
			Where("_id = ? AND status <> ?", id, string(model.DishDeleted)).
			Updates(map[string]interface{}{"status": string(st), "updated_by": actorID, "update_time": time.Now().UTC()})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, recordErr(span, fmt.Errorf("set dish status id=%s: %w", id, err))
	}
	return affected > 0, nil
}

// SoftDelete 幂等：已删除或不存在都不报错，返回本次是否有行被修改
// MenuSlot 菜单槽位 (日期, 餐别)
type MenuSlot struct {
	PublishDate time.Time      `gorm:"column:publish_date"`
	MealType    model.MealType `gorm:"column:meal_type"`
}

// MenuSlots 引用了该菜品的未删除菜单所在槽位，用于菜品变更后清理菜单缓存
func (d *DishDAO) MenuSlots(ctx context.Context, dishID string) ([]MenuSlot, error) {
	ctx, span := d.tracer().Start(ctx, "DishDAO.MenuSlots")
	defer span.End()
	var out []MenuSlot
	err := d.Exec(ctx, "dish.menu_slots", func(db *gorm.DB) error {
		return db.Table("menu_dishes AS md").
			Select("DISTINCT m.publish_date, m.meal_type").
			Joins("JOIN menus m ON m._id = md.menu_id").
			Where("md.dish_id = ? AND md.status = ? AND m.status = ?", dishID, string(model.RecordActive), string(model.RecordActive)).
			Scan(&out).Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("menu slots of dish id=%s: %w", dishID, err))
	}
	span.SetAttributes(attribute.Int("dish.menu_slots", len(out)))
	return out, nil
}

func (d *DishDAO) SoftDelete(ctx context.Context, id, actorID string) (bool, error) {
	ctx, span := d.tracer().Start(ctx, "DishDAO.SoftDelete")
	defer span.End()
	var affected int64
	err := d.Exec(ctx, "dish.soft_delete", func(db *gorm.DB) error {
		res := db.Model(&model.Dish{}).
			Where("_id = ? AND status <> ?", id, string(model.DishDeleted)).
			Updates(map[string]interface{}{
				"status":      string(model.DishDeleted),
				"updated_by":  actorID,
				"update_time": time.Now().UTC(),
			})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, recordErr(span, fmt.Errorf("soft delete dish id=%s: %w", id, err))
	}
	return affected > 0, nil
}
