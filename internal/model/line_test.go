package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestLineValueNames(t *testing.T) {
	cases := []struct {
		v     LineValue
		name  string
		gloss string
	}{
		{OldYin, "老阴", "old-yin"},
		{YoungYang, "少阳", "young-yang"},
		{YoungYin, "少阴", "young-yin"},
		{OldYang, "老阳", "old-yang"},
		{LineInvalid, "错误", "error"},
		{LineValue(5), "错误", "error"},
	}
	for _, c := range cases {
		assert.Equal(t, c.name, c.v.Name(), "value %d", c.v)
		assert.Equal(t, c.gloss, c.v.Gloss(), "value %d", c.v)
	}
	assert.True(t, OldYang.IsYang())
	assert.False(t, YoungYin.IsYang())
	assert.True(t, OldYin.IsMoving())
	assert.False(t, YoungYang.IsMoving())
	assert.False(t, LineInvalid.Valid())
}

func TestLineJSONCarriesNames(t *testing.T) {
	b, err := json.Marshal(Line{Position: 3, Value: OldYin, Steps: []Step{{Description: "三变", Value: "6"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.GetBytes(b, "position").Int())
	assert.Equal(t, int64(6), gjson.GetBytes(b, "value").Int())
	assert.Equal(t, "老阴", gjson.GetBytes(b, "name").String())
	assert.Equal(t, "old-yin", gjson.GetBytes(b, "gloss").String())
	assert.Equal(t, "三变", gjson.GetBytes(b, "steps.0.description").String())

	var back Line
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, OldYin, back.Value)
}
