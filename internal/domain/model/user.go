package model

// User 仅作为展示关联（作者名、部门名），本服务不修改
type User struct {
	ID           string       `gorm:"primaryKey;column:_id;size:36" json:"id"`
	Name         string       `gorm:"column:name;size:64" json:"name"`
	Role         Role         `gorm:"column:role;size:16" json:"role"`
	DepartmentID *string      `gorm:"column:department_id;size:36" json:"departmentId"`
	Status       RecordStatus `gorm:"column:status;size:16;not null;default:active" json:"status"`
}

func (User) TableName() string { return "users" }

// Department 部门
type Department struct {
	ID     string       `gorm:"primaryKey;column:_id;size:36" json:"id"`
	Name   string       `gorm:"column:name;size:64" json:"name"`
	Code   string       `gorm:"column:code;size:32" json:"code"`
	Status RecordStatus `gorm:"column:status;size:16;not null;default:active" json:"status"`
}

func (Department) TableName() string { return "departments" }
