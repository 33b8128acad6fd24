// Package testutil 为仓储与服务层测试提供内存 SQLite 与数据构造器。
package testutil

import (
	"fmt"
	"testing"
	"time"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/repository/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGateway 每个测试一个独立的内存库；单连接，事务内不得再用外层句柄
func NewGateway(t testing.TB) *database.Gateway {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database.NewGateway(db, 5*time.Second)
}

// NewID 与生产一致的 UUIDv7
func NewID(t testing.TB) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

// Date UTC 零点
func Date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

type DishOption func(*model.Dish)

func WithStatus(st model.DishStatus) DishOption { return func(d *model.Dish) { d.Status = st } }
func WithCategory(id string) DishOption         { return func(d *model.Dish) { d.CategoryID = id } }
func WithPrice(p string) DishOption {
	return func(d *model.Dish) { d.Price = decimal.RequireFromString(p) }
}
func WithAuthor(id string) DishOption { return func(d *model.Dish) { d.CreatedBy = id } }
func WithMeals(ms ...model.MealType) DishOption {
	return func(d *model.Dish) { d.MealTypes = model.MealTypes(ms) }
}

// SeedDish 插入一道菜，默认 active、午餐、12.00
func SeedDish(t testing.TB, gw *database.Gateway, name string, opts ...DishOption) model.Dish {
	t.Helper()
	now := time.Now().UTC()
	d := model.Dish{
		ID:         NewID(t),
		Name:       name,
		Price:      decimal.RequireFromString("12.00"),
		MealTypes:  model.MealTypes{model.MealLunch},
		Tags:       model.Tags{},
		Status:     model.DishActive,
		CreateTime: now,
		UpdateTime: now,
	}
	for _, o := range opts {
		o(&d)
	}
	require.NoError(t, gw.DB.Create(&d).Error)
	return d
}

func SeedCategory(t testing.TB, gw *database.Gateway, name string, sort int) model.DishCategory {
	t.Helper()
	c := model.DishCategory{ID: NewID(t), Name: name, Sort: sort, Status: model.RecordActive}
	require.NoError(t, gw.DB.Create(&c).Error)
	return c
}

// SeedUser 可选部门
func SeedUser(t testing.TB, gw *database.Gateway, name string, dept *model.Department) model.User {
	t.Helper()
	u := model.User{ID: NewID(t), Name: name, Role: model.RoleStaff, Status: model.RecordActive}
	if dept != nil {
		u.DepartmentID = &dept.ID
	}
	require.NoError(t, gw.DB.Create(&u).Error)
	return u
}

func SeedDepartment(t testing.TB, gw *database.Gateway, name, code string) model.Department {
	t.Helper()
	d := model.Department{ID: NewID(t), Name: name, Code: code, Status: model.RecordActive}
	require.NoError(t, gw.DB.Create(&d).Error)
	return d
}

// SeedMenu 直接落一份菜单与明细，绕过服务层
func SeedMenu(t testing.TB, gw *database.Gateway, date time.Time, meal model.MealType, st model.PublishStatus, dishes ...model.Dish) model.Menu {
	t.Helper()
	now := time.Now().UTC()
	m := model.Menu{
		ID:            NewID(t),
		Name:          date.Format("2006-01-02") + " " + meal.Label(),
		PublishDate:   date,
		MealType:      meal,
		PublishStatus: st,
		Status:        model.RecordActive,
		SlotActive:    model.ActiveSlot(),
		CreateTime:    now,
		UpdateTime:    now,
	}
	require.NoError(t, gw.DB.Create(&m).Error)
	for i, d := range dishes {
		line := model.MenuDish{MenuID: m.ID, DishID: d.ID, Price: d.Price, Sort: i + 1, Status: model.RecordActive}
		require.NoError(t, gw.DB.Create(&line).Error)
	}
	return m
}
