package dao

import (
	"context"
	"fmt"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/database"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

// UserRow 用户 + 部门名
type UserRow struct {
	model.User
	DepartmentName string `gorm:"column:department_name" json:"departmentName"`
}

type UserDAO struct{ database.Scope }

func NewUserDAO(gw *database.Gateway) *UserDAO { return &UserDAO{Scope: database.NewScope(gw)} }

// List 只读列表，keyword 匹配姓名
func (d *UserDAO) List(ctx context.Context, keyword string, p query.Page) ([]UserRow, int64, error) {
	ctx, span := otel.Tracer("dao.user").Start(ctx, "UserDAO.List")
	defer span.End()
	b := query.NewBuilder(d.Dialect()).Where("u.status = ?", string(model.RecordActive))
	if keyword != "" {
		b.Where(d.Dialect().ContainsFold("u.name"), query.LikeArg(keyword))
	}
	rows := make([]UserRow, 0)
	var total int64
	err := d.Read(ctx, "user.list", func(db *gorm.DB) error {
		if err := b.Apply(db.Table("users AS u")).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			return nil
		}
		return b.Apply(db.Table("users AS u")).
			Select("u.*, COALESCE(dep.name, '') AS department_name").
			Joins("LEFT JOIN departments dep ON dep._id = u.department_id").
			Order("u._id DESC").
			Offset(p.Offset()).Limit(p.Limit()).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, 0, recordErr(span, fmt.Errorf("list users: %w", err))
	}
	return rows, total, nil
}

type DepartmentDAO struct{ database.Scope }

func NewDepartmentDAO(gw *database.Gateway) *DepartmentDAO {
	return &DepartmentDAO{Scope: database.NewScope(gw)}
}

func (d *DepartmentDAO) List(ctx context.Context) ([]model.Department, error) {
	ctx, span := otel.Tracer("dao.department").Start(ctx, "DepartmentDAO.List")
	defer span.End()
	list := make([]model.Department, 0)
	err := d.Exec(ctx, "department.list", func(db *gorm.DB) error {
		return db.Where("status = ?", string(model.RecordActive)).Order("code ASC, _id ASC").Find(&list).Error
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("list departments: %w", err))
	}
	return list, nil
}
