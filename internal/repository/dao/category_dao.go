package dao

import (
	"context"
	"fmt"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/repository/database"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

type CategoryDAO struct{ database.Scope }

func NewCategoryDAO(gw *database.Gateway) *CategoryDAO {
	return &CategoryDAO{Scope: database.NewScope(gw)}
}

// List 未删除分类，按 sort、_id 升序
func (d *CategoryDAO) List(ctx context.Context) ([]model.DishCategory, error) {
	ctx, span := otel.Tracer("dao.category").Start(ctx, "CategoryDAO.List")
	defer span.End()
	list := make([]model.DishCategory, 0)
	err := d.Exec(ctx, "category.list", func(db *gorm.DB) error {
		return db.Where("status = ?", string(model.RecordActive)).Order("sort ASC, _id ASC").Find(&list).Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("list categories: %w", err))
	}
	return list, nil
}

func (d *CategoryDAO) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := d.Exec(ctx, "category.exists", func(db *gorm.DB) error {
		return db.Model(&model.DishCategory{}).Where("_id = ? AND status = ?", id, string(model.RecordActive)).Count(&n).Error
	})
	if err != nil {
		return false, fmt.Errorf("category exists id=%s: %w", id, err)
	}
	return n > 0, nil
}
