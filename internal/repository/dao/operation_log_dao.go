package dao

import (
	"context"
	"fmt"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/database"

	"gorm.io/gorm"
)

type OperationLogDAO struct{ database.Scope }

func NewOperationLogDAO(gw *database.Gateway) *OperationLogDAO {
	return &OperationLogDAO{Scope: database.NewScope(gw)}
}

// CreateBatch consumer 批量落库
func (d *OperationLogDAO) CreateBatch(ctx context.Context, logs []model.OperationLog) error {
	if len(logs) == 0 {
		return nil
	}
	err := d.Exec(ctx, "oplog.create_batch", func(db *gorm.DB) error {
		return db.CreateInBatches(logs, 100).Error
	})
	if err != nil {
		return fmt.Errorf("save operation logs: %w", err)
	}
	return nil
}

// List userID / path 关键词可选，按时间倒序
func (d *OperationLogDAO) List(ctx context.Context, userID, path string, p query.Page) ([]model.OperationLog, int64, error) {
	b := query.NewBuilder(d.Dialect())
	if userID != "" {
		b.Where("user_id = ?", userID)
	}
	if path != "" {
		b.Where(d.Dialect().ContainsFold("path"), query.LikeArg(path))
	}
	list := make([]model.OperationLog, 0)
	var total int64
	err := d.Read(ctx, "oplog.list", func(db *gorm.DB) error {
		if err := b.Apply(db.Model(&model.OperationLog{})).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			return nil
		}
		return b.Apply(db.Model(&model.OperationLog{})).
			Order("create_time DESC, id DESC").
			Offset(p.Offset()).Limit(p.Limit()).
			Find(&list).Error
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list operation logs: %w", err)
	}
	return list, total, nil
}
