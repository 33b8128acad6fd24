package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteMenuHistory_ReadBack(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMenuHistory(&buf, []MenuHistoryRow{
		{PublishDate: "2026-10-19", MealLabel: "午餐", Name: "2026-10-19 午餐", PublishStatus: "published", DishCount: 6, CreatorName: "王师傅", UpdateTime: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)},
		{PublishDate: "2026-10-18", MealLabel: "早餐", Name: "早餐", PublishStatus: "draft"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(menuSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "日期", rows[0][0])
	assert.Equal(t, []string{"2026-10-19", "午餐", "2026-10-19 午餐", "已发布", "6", "王师傅", "2026-10-18 09:30:00"}, rows[1])
	assert.Equal(t, "草稿", rows[2][3])
}

func TestWriteMenuHistory_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMenuHistory(&buf, nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(menuSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
