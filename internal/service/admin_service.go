package service

import (
	"context"
	"strings"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/dao"
)

// AdminService 只读的组织数据与操作日志
type AdminService struct {
	Users       *dao.UserDAO
	Departments *dao.DepartmentDAO
	Logs        *dao.OperationLogDAO
}

func NewAdminService(u *dao.UserDAO, d *dao.DepartmentDAO, l *dao.OperationLogDAO) *AdminService {
	return &AdminService{Users: u, Departments: d, Logs: l}
}

type UserListResult struct {
	List       []dao.UserRow    `json:"list"`
	Pagination query.Pagination `json:"pagination"`
}

func (s *AdminService) ListUsers(ctx context.Context, keyword, page, pageSize string) (*UserListResult, error) {
	p := query.NewPage(page, pageSize, "")
	rows, total, err := s.Users.List(ctx, strings.TrimSpace(keyword), p)
	if err != nil {
		return nil, err
	}
	return &UserListResult{List: rows, Pagination: p.Meta(total)}, nil
}

func (s *AdminService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	return s.Departments.List(ctx)
}

type OperationLogResult struct {
	List       []model.OperationLog `json:"list"`
	Pagination query.Pagination     `json:"pagination"`
}

func (s *AdminService) ListOperationLogs(ctx context.Context, userID, path, page, pageSize string) (*OperationLogResult, error) {
	p := query.NewPage(page, pageSize, "")
	list, total, err := s.Logs.List(ctx, strings.TrimSpace(userID), strings.TrimSpace(path), p)
	if err != nil {
		return nil, err
	}
	return &OperationLogResult{List: list, Pagination: p.Meta(total)}, nil
}
