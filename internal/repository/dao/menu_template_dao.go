package dao

import (
	"context"
	"fmt"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/repository/database"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

type MenuTemplateDAO struct{ database.Scope }

func NewMenuTemplateDAO(gw *database.Gateway) *MenuTemplateDAO {
	return &MenuTemplateDAO{Scope: database.NewScope(gw)}
}

// List 有效模板，按 sort 升序
func (d *MenuTemplateDAO) List(ctx context.Context) ([]model.MenuTemplate, error) {
	ctx, span := otel.Tracer("dao.menu_template").Start(ctx, "MenuTemplateDAO.List")
	defer span.End()
	list := make([]model.MenuTemplate, 0)
	err := d.Exec(ctx, "menu_template.list", func(db *gorm.DB) error {
		return db.Where("status = ?", string(model.RecordActive)).Order("sort ASC, _id ASC").Find(&list).Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("list menu templates: %w", err))
	}
	return list, nil
}
