package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMealTypes_DedupAndCanonicalOrder(t *testing.T) {
	ms, err := NewMealTypes("dinner", "Breakfast", "dinner", " lunch ")
	require.NoError(t, err)
	assert.Equal(t, MealTypes{MealBreakfast, MealLunch, MealDinner}, ms)
}

func TestNewMealTypes_RejectsUnknownMember(t *testing.T) {
	_, err := NewMealTypes("lunch", "din")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "din")
}

func TestMealTypes_ContainsIsExact(t *testing.T) {
	ms := MealTypes{MealLunch, MealDinner}
	assert.True(t, ms.Contains(MealDinner))
	assert.False(t, ms.Contains(MealType("din")))
	assert.False(t, ms.Contains(MealBreakfast))
}

func TestMealTypes_ValueWritesJSONArray(t *testing.T) {
	v, err := MealTypes{MealDinner, MealBreakfast}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["breakfast","dinner"]`, v)

	empty, err := MealTypes(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, `[]`, empty)
}

func TestMealTypes_ScanLegacyShapes(t *testing.T) {
	cases := map[string]struct {
		src  interface{}
		want MealTypes
	}{
		"json bytes":       {[]byte(`["lunch","breakfast"]`), MealTypes{MealBreakfast, MealLunch}},
		"json string":      {`["dinner"]`, MealTypes{MealDinner}},
		"comma joined":     {"breakfast,lunch", MealTypes{MealBreakfast, MealLunch}},
		"chinese comma":    {"lunch，dinner", MealTypes{MealLunch, MealDinner}},
		"double encoded":   {`"[\"lunch\"]"`, MealTypes{MealLunch}},
		"invalid dropped":  {`["lunch","brunch"]`, MealTypes{MealLunch}},
		"null":             {nil, MealTypes{}},
		"empty":            {"", MealTypes{}},
		"bracketed comma":  {"[breakfast, dinner]", MealTypes{MealBreakfast, MealDinner}},
		"single bare word": {"dinner", MealTypes{MealDinner}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var ms MealTypes
			require.NoError(t, ms.Scan(tc.src))
			assert.Equal(t, tc.want, ms)
		})
	}
}

func TestMealTypes_ScanUnsupportedType(t *testing.T) {
	var ms MealTypes
	assert.Error(t, ms.Scan(42))
}

func TestMealTypes_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		M MealTypes `json:"m"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"m":[]}`, string(b))

	var ms MealTypes
	require.NoError(t, json.Unmarshal([]byte(`["dinner","lunch"]`), &ms))
	assert.Equal(t, MealTypes{MealLunch, MealDinner}, ms)

	assert.Error(t, json.Unmarshal([]byte(`"lunch,dinner"`), &ms))
	assert.Error(t, json.Unmarshal([]byte(`["supper"]`), &ms))
}

func TestMealType_OrderAndLabel(t *testing.T) {
	assert.Less(t, MealBreakfast.Order(), MealLunch.Order())
	assert.Less(t, MealLunch.Order(), MealDinner.Order())
	assert.Equal(t, "午餐", MealLunch.Label())
	assert.Equal(t, "x", MealType("x").Label())
}

func TestPublishStatus_CanTransition(t *testing.T) {
	assert.True(t, PublishDraft.CanTransition(PublishPublished))
	assert.True(t, PublishPublished.CanTransition(PublishArchived))
	assert.False(t, PublishDraft.CanTransition(PublishArchived))
	assert.False(t, PublishArchived.CanTransition(PublishDraft))
	assert.False(t, PublishPublished.CanTransition(PublishDraft))
}

func TestStringList_ScanAndValue(t *testing.T) {
	var tags Tags
	require.NoError(t, tags.Scan([]byte(`["清淡","素食"]`)))
	assert.Equal(t, Tags{"清淡", "素食"}, tags)

	v, err := Tags(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	assert.Error(t, tags.Scan("not json"))
}
