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

func names(rows []dao.DishRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestDishDAO_ListMealTypeMembership(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewDishDAO(gw)
	ctx := context.Background()

	testutil.SeedDish(t, gw, "白粥", testutil.WithMeals(model.MealBreakfast, model.MealLunch))
	testutil.SeedDish(t, gw, "红烧肉", testutil.WithMeals(model.MealLunch, model.MealDinner))

	rows, total, err := d.List(ctx, query.NormalizeDish(query.DishParams{MealType: "dinner"}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{"红烧肉"}, names(rows))

	rows, _, err = d.List(ctx, query.NormalizeDish(query.DishParams{MealType: "breakfast"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"白粥"}, names(rows))

	// 子串不算成员
	rows, total, err = d.List(ctx, query.NormalizeDish(query.DishParams{MealType: "din"}))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestDishDAO_ListExcludesDeletedByDefault(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewDishDAO(gw)
	ctx := context.Background()

	testutil.SeedDish(t, gw, "在售")
	testutil.SeedDish(t, gw, "下架", testutil.WithStatus(model.DishInactive))
	testutil.SeedDish(t, gw, "已删", testutil.WithStatus(model.DishDeleted))

	rows, total, err := d.List(ctx, query.NormalizeDish(query.DishParams{}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.ElementsMatch(t, []string{"在售", "下架"}, names(rows))

	_, total, err = d.List(ctx, query.NormalizeDish(query.DishParams{Status: "all"}))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	rows, _, err = d.List(ctx, query.NormalizeDish(query.DishParams{Status: "deleted"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"已删"}, names(rows))
}

func TestDishDAO_ListPagesAreDisjoint(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewDishDAO(gw)
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		testutil.SeedDish(t, gw, "dish")
	}

	seen := map[string]bool{}
	sizes := []int{}
	for _, page := range []string{"1", "2", "3"} {
		rows, total, err := d.List(ctx, query.NormalizeDish(query.DishParams{Page: page, PageSize: "10"}))
		require.NoError(t, err)
		assert.EqualValues(t, 23, total)
		sizes = append(sizes, len(rows))
		for _, r := range rows {
			assert.False(t, seen[r.ID], "duplicate row %s", r.ID)
			seen[r.ID] = true
		}
	}
	assert.Equal(t, []int{10, 10, 3}, sizes)
	assert.Len(t, seen, 23)

	rows, total, err := d.List(ctx, query.NormalizeDish(query.DishParams{Page: "4", PageSize: "10"}))
	require.NoError(t, err)
	assert.EqualValues(t, 23, total)
	assert.Empty(t, rows)
}

func TestDishDAO_ListNewestFirstWithCategoryName(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewDishDAO(gw)
	ctx := context.Background()

	cat := testutil.SeedCategory(t, gw, "主食", 1)
	older := testutil.SeedDish(t, gw, "米饭", testutil.WithCategory(cat.ID))
	newer := testutil.SeedDish(t, gw, "孤儿菜", testutil.WithCategory("missing"))

	rows, _, err := d.List(ctx, query.NormalizeDish(query.DishParams{}))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, "", rows[0].CategoryName)
	assert.Equal(t, older.ID, rows[1].ID)
	assert.Equal(t, "主食", rows[1].CategoryName)
	assert.Equal(t, model.MealTypes{model.MealLunch}, rows[1].MealTypes)
}

func TestDishDAO_ListKeywordAndCategory(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewDishDAO(gw)
	ctx := context.Background()

	cat := testutil.SeedCategory(t, gw, "汤", 2)
	testutil.SeedDish(t, gw, "Tomato Soup", testutil.WithCategory(cat.ID))
	testutil.SeedDish(t, gw, "Tomato Egg")
	testutil.SeedDish(t, gw, "100%_juice")

	rows, _, err := d.List(ctx, query.NormalizeDish(query.DishParams{Keyword: "tomato"}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Tomato Soup", "Tomato Egg"}, names(rows))

	rows, _, err = d.List(ctx, query.NormalizeDish(query.DishParams{Keyword: "tomato", CategoryID: cat.ID}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Tomato Soup"}, names(rows))

	// 通配符按字面匹配
	rows, _, err = d.List(ctx, query.NormalizeDish(query.DishParams{Keyword: "%_"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"100%_juice"}, names(rows))
}

func TestDishDAO_Detail(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewDishDAO(gw)
	ctx := context.Background()

	dept := testutil.SeedDepartment(t, gw, "后勤部", "HQ")
	author := testutil.SeedUser(t, gw, "王师傅", &dept)
	cat := testutil.SeedCategory(t, gw, "热菜", 1)
	dish := testutil.SeedDish(t, gw, "宫保鸡丁", testutil.WithCategory(cat.ID), testutil.WithAuthor(author.ID), testutil.WithPrice("18.50"))

	got, err := d.Detail(ctx, dish.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "宫保鸡丁", got.Name)
	assert.Equal(t, "热菜", got.CategoryName)
	assert.Equal(t, "王师傅", got.AuthorName)
	assert.Equal(t, "后勤部", got.DepartmentName)
	assert.Equal(t, "18.5", got.Price.String())

	missing, err := d.Detail(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = d.SoftDelete(ctx, dish.ID, author.ID)
	require.NoError(t, err)
	gone, err := d.Detail(ctx, dish.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDishDAO_SoftDeleteIsIdempotent(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewDishDAO(gw)
	ctx := context.Background()
	dish := testutil.SeedDish(t, gw, "炒青菜")

	changed, err := d.SoftDelete(ctx, dish.ID, "u1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = d.SoftDelete(ctx, dish.ID, "u1")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = d.SoftDelete(ctx, "does-not-exist", "u1")
	require.NoError(t, err)
	assert.False(t, changed)

	var stored model.Dish
	require.NoError(t, gw.DB.Where("_id = ?", dish.ID).Take(&stored).Error)
	assert.Equal(t, model.DishDeleted, stored.Status)
	assert.Equal(t, "u1", stored.UpdatedBy)

	_, total, err := d.List(ctx, query.NormalizeDish(query.DishParams{}))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDishDAO_SetStatusDoesNotReviveDeleted(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewDishDAO(gw)
	ctx := context.Background()
	dish := testutil.SeedDish(t, gw, "凉面", testutil.WithStatus(model.DishDeleted))

	ok, err := d.SetStatus(ctx, dish.ID, model.DishActive, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := d.FindUsable(ctx, []string{dish.ID})
	require.NoError(t, err)
	assert.Empty(t, found)
}
