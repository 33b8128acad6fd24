package dao_test

import (
	"context"
	"testing"
	"time"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/dao"
	"go-canteenadmin/internal/repository/database"
	"go-canteenadmin/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMenuDAO_FindBySlot(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewMenuDAO(gw)
	ctx := context.Background()
	day := testutil.Date(2026, time.October, 19)

	m, err := d.FindBySlot(ctx, day, model.MealLunch)
	require.NoError(t, err)
	assert.Nil(t, m)

	seeded := testutil.SeedMenu(t, gw, day, model.MealLunch, model.PublishPublished)
	m, err = d.FindBySlot(ctx, day, model.MealLunch)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, seeded.ID, m.ID)
	assert.True(t, m.PublishDate.Equal(day))

	other, err := d.FindBySlot(ctx, day, model.MealDinner)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMenuDAO_LinesOrderedWithNames(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewMenuDAO(gw)
	ctx := context.Background()
	cat := testutil.SeedCategory(t, gw, "凉菜", 1)
	a := testutil.SeedDish(t, gw, "拍黄瓜", testutil.WithCategory(cat.ID))
	b := testutil.SeedDish(t, gw, "米饭")
	m := testutil.SeedMenu(t, gw, testutil.Date(2026, time.October, 20), model.MealDinner, model.PublishDraft)

	require.NoError(t, d.ReplaceLines(ctx, m.ID, []model.MenuDish{
		{MenuID: m.ID, DishID: b.ID, Price: decimal.RequireFromString("2"), Sort: 2, Status: model.RecordActive},
		{MenuID: m.ID, DishID: a.ID, Price: decimal.RequireFromString("6.5"), Sort: 1, Status: model.RecordActive},
	}))

	lines, err := d.Lines(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "拍黄瓜", lines[0].DishName)
	assert.Equal(t, "凉菜", lines[0].CategoryName)
	assert.True(t, decimal.RequireFromString("6.5").Equal(lines[0].Price))
	assert.Equal(t, "米饭", lines[1].DishName)

	// 再次替换只保留新集合
	require.NoError(t, d.ReplaceLines(ctx, m.ID, []model.MenuDish{
		{MenuID: m.ID, DishID: a.ID, Price: decimal.RequireFromString("7"), Sort: 1, Status: model.RecordActive},
	}))
	lines, err = d.Lines(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, a.ID, lines[0].DishID)
}

func TestMenuDAO_LockSlotInsideTransaction(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewMenuDAO(gw)
	ctx := context.Background()
	day := testutil.Date(2026, time.October, 21)
	seeded := testutil.SeedMenu(t, gw, day, model.MealBreakfast, model.PublishDraft)

	err := gw.Transaction(ctx, "test", func(tx *gorm.DB) error {
		list, err := d.WithTx(tx).LockSlot(ctx, day, model.MealBreakfast)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, seeded.ID, list[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestMenuDAO_HistoryOrderingAndDishCount(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewMenuDAO(gw)
	ctx := context.Background()
	dish := testutil.SeedDish(t, gw, "馒头")
	dish2 := testutil.SeedDish(t, gw, "豆浆")

	d19, d20 := testutil.Date(2026, time.October, 19), testutil.Date(2026, time.October, 20)
	dinner19 := testutil.SeedMenu(t, gw, d19, model.MealDinner, model.PublishPublished, dish)
	breakfast19 := testutil.SeedMenu(t, gw, d19, model.MealBreakfast, model.PublishPublished, dish, dish2)
	lunch20 := testutil.SeedMenu(t, gw, d20, model.MealLunch, model.PublishDraft)
	deleted := testutil.SeedMenu(t, gw, d20, model.MealDinner, model.PublishDraft)
	_, err := d.SoftDelete(ctx, deleted.ID)
	require.NoError(t, err)

	rows, total, err := d.History(ctx, query.NormalizeMenuHistory(query.MenuHistoryParams{}))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{lunch20.ID, breakfast19.ID, dinner19.ID}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.EqualValues(t, 0, rows[0].DishCount)
	assert.EqualValues(t, 2, rows[1].DishCount)
	assert.EqualValues(t, 1, rows[2].DishCount)

	rows, total, err = d.History(ctx, query.NormalizeMenuHistory(query.MenuHistoryParams{StartDate: "2026-10-20", EndDate: "2026-10-20"}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, lunch20.ID, rows[0].ID)

	_, total, err = d.History(ctx, query.NormalizeMenuHistory(query.MenuHistoryParams{MealType: "breakfast", PublishStatus: "published"}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = d.History(ctx, query.NormalizeMenuHistory(query.MenuHistoryParams{MealType: "brunch"}))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestMenuDAO_SoftDeleteMarksLines(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewMenuDAO(gw)
	ctx := context.Background()
	dish := testutil.SeedDish(t, gw, "包子")
	m := testutil.SeedMenu(t, gw, testutil.Date(2026, time.October, 22), model.MealBreakfast, model.PublishDraft, dish)

	ok, err := d.SoftDelete(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.SoftDelete(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var line model.MenuDish
	require.NoError(t, gw.DB.Where("menu_id = ?", m.ID).Take(&line).Error)
	assert.Equal(t, model.RecordDeleted, line.Status)

	got, err := d.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMenuDAO_TransitPublishIsConditional(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewMenuDAO(gw)
	ctx := context.Background()
	m := testutil.SeedMenu(t, gw, testutil.Date(2026, time.October, 23), model.MealLunch, model.PublishDraft)

	ok, err := d.TransitPublish(ctx, m.ID, model.PublishPublished, model.PublishArchived)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = d.TransitPublish(ctx, m.ID, model.PublishDraft, model.PublishPublished)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := d.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PublishPublished, got.PublishStatus)
}

func TestMenuDAO_SlotUniqueAmongActive(t *testing.T) {
	gw := testutil.NewGateway(t)
	d := dao.NewMenuDAO(gw)
	ctx := context.Background()
	day := testutil.Date(2026, time.October, 24)
	first := testutil.SeedMenu(t, gw, day, model.MealLunch, model.PublishDraft)

	dup := model.Menu{
		ID: "dup", PublishDate: day, MealType: model.MealLunch, PublishStatus: model.PublishDraft,
		Status: model.RecordActive, SlotActive: model.ActiveSlot(),
	}
	err := d.Create(ctx, &dup)
	require.Error(t, err)
	assert.True(t, database.IsDuplicateKey(err))

	// 删除后槽位释放，被删的记录不再参与唯一比较
	ok, err := d.SoftDelete(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, d.Create(ctx, &dup))

	again := model.Menu{
		ID: "again", PublishDate: day, MealType: model.MealLunch, PublishStatus: model.PublishDraft,
		Status: model.RecordActive, SlotActive: model.ActiveSlot(),
	}
	_, err = d.SoftDelete(ctx, dup.ID)
	require.NoError(t, err)
	require.NoError(t, d.Create(ctx, &again))
	var deleted int64
	require.NoError(t, gw.DB.Model(&model.Menu{}).Where("slot_active IS NULL").Count(&deleted).Error)
	assert.EqualValues(t, 2, deleted)
}
