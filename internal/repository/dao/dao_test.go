package dao_test

import (
	"context"
	"testing"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/dao"
	"go-canteenadmin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryDAO_ListSkipsDeleted(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()
	testutil.SeedCategory(t, gw, "汤", 2)
	testutil.SeedCategory(t, gw, "主食", 1)
	gone := testutil.SeedCategory(t, gw, "旧分类", 0)
	require.NoError(t, gw.DB.Model(&model.DishCategory{}).Where("_id = ?", gone.ID).Update("status", "deleted").Error)

	d := dao.NewCategoryDAO(gw)
	list, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "主食", list[0].Name)

	ok, err := d.Exists(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserDAO_ListJoinsDepartment(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()
	dept := testutil.SeedDepartment(t, gw, "食堂", "CT")
	testutil.SeedUser(t, gw, "Alice", &dept)
	testutil.SeedUser(t, gw, "Bob", nil)

	rows, total, err := dao.NewUserDAO(gw).List(ctx, "ali", query.NewPage("", "", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "食堂", rows[0].DepartmentName)

	deps, err := dao.NewDepartmentDAO(gw).List(ctx)
	require.NoError(t, err)
	assert.Len(t, deps, 1)
}

func TestOperationLogDAO_BatchAndList(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()
	d := dao.NewOperationLogDAO(gw)
	require.NoError(t, d.CreateBatch(ctx, nil))
	require.NoError(t, d.CreateBatch(ctx, []model.OperationLog{
		{UserID: "u1", Path: "/api/admin/dishes", Method: "POST", Status: 200, CreateTime: 1},
		{UserID: "u2", Path: "/api/admin/menus/draft", Method: "POST", Status: 200, CreateTime: 2},
		{UserID: "u1", Path: "/api/admin/menus/draft", Method: "POST", Status: 409, CreateTime: 3},
	}))

	list, total, err := d.List(ctx, "u1", "", query.NewPage("", "", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.EqualValues(t, 3, list[0].CreateTime)

	_, total, err = d.List(ctx, "", "MENUS", query.NewPage("", "", ""))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestMenuTemplateDAO_List(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()
	require.NoError(t, gw.DB.Create(&model.MenuTemplate{ID: "t2", Name: "标准午餐", MealType: model.MealLunch, DishIDs: model.StringList{"a", "b"}, Sort: 2, Status: model.RecordActive}).Error)
	require.NoError(t, gw.DB.Create(&model.MenuTemplate{ID: "t1", Name: "早餐套餐", MealType: model.MealBreakfast, DishIDs: model.StringList{"c"}, Sort: 1, Status: model.RecordActive}).Error)

	list, err := dao.NewMenuTemplateDAO(gw).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].ID)
	assert.Equal(t, model.StringList{"a", "b"}, list[1].DishIDs)
}
