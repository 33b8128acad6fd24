package migrate

import (
	"context"
	"testing"
	"time"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillMenuSlots(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()
	day := testutil.Date(2026, time.October, 19)
	clearSlot := func(id string) {
		require.NoError(t, gw.DB.Exec("UPDATE menus SET slot_active = NULL WHERE _id = ?", id).Error)
	}

	// 加列之前同一槽位已经存在两份未删除菜单
	older := testutil.SeedMenu(t, gw, day, model.MealLunch, model.PublishDraft)
	clearSlot(older.ID)
	newer := testutil.SeedMenu(t, gw, day, model.MealLunch, model.PublishPublished)
	clearSlot(newer.ID)
	dinner := testutil.SeedMenu(t, gw, day, model.MealDinner, model.PublishDraft)
	clearSlot(dinner.ID)

	rep, err := BackfillMenuSlots(ctx, gw, logging.Nop(), true)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Scanned)
	assert.Equal(t, 2, rep.Filled)
	assert.Equal(t, []string{older.ID}, rep.Duplicates)
	var filled int64
	require.NoError(t, gw.DB.Model(&model.Menu{}).Where("slot_active IS NOT NULL").Count(&filled).Error)
	assert.Zero(t, filled, "dry run must not write")

	rep, err = BackfillMenuSlots(ctx, gw, logging.Nop(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Filled)
	assert.Equal(t, []string{older.ID}, rep.Duplicates)

	var kept, dropped model.Menu
	require.NoError(t, gw.DB.First(&kept, "_id = ?", newer.ID).Error)
	require.NotNil(t, kept.SlotActive)
	require.NoError(t, gw.DB.First(&dropped, "_id = ?", older.ID).Error)
	assert.Nil(t, dropped.SlotActive)

	rep, err = BackfillMenuSlots(ctx, gw, logging.Nop(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Scanned)
	assert.Zero(t, rep.Filled)
}
