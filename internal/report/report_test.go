package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yijing/internal/dayan"
	"yijing/internal/divination"
	"yijing/internal/hexagram"
	"yijing/internal/meihua"
	"yijing/internal/model"
)

func sampleReading(t *testing.T) divination.Reading {
	t.Helper()
	values := []model.LineValue{model.OldYang, model.YoungYin, model.YoungYang, model.OldYin, model.YoungYin, model.YoungYang}
	lines := make([]model.Line, len(values))
	for i, v := range values {
		lines[i] = model.Line{Position: i + 1, Value: v, Steps: []model.Step{{Description: "定爻", Value: v.Name()}}}
	}
	c := dayan.Assemble(lines)
	tr, err := meihua.Divine(model.LunarInfo{YearBranch: "子", LunarMonth: "1", LunarDay: "1", HourBranch: "午"})
	require.NoError(t, err)
	return divination.Reading{
		Seed:    42,
		Casting: c,
		Lunar:   &model.LunarInfo{Date: "2025-01-29", YearStem: "甲", YearBranch: "子", LunarMonth: "1", LunarDay: "1", HourStem: "庚", HourBranch: "午"},
		Time:    &tr,
		Groups:  append(append([]model.StepGroup(nil), c.Groups...), tr.Group()),
	}
}

func TestRowsTopFirstWithMarks(t *testing.T) {
	h := hexagram.Hexagram(0b100101)
	rows := Rows(h, nil, []int{1, 2})
	require.Len(t, rows, 6)
	assert.Equal(t, 6, rows[0].Position)
	assert.Equal(t, yangStroke, rows[0].Stroke)
	assert.Equal(t, yinStroke, rows[1].Stroke)
	assert.Equal(t, 1, rows[5].Position)
	assert.Equal(t, oldYangMark, rows[5].Mark)
	assert.Equal(t, oldYinMark, rows[4].Mark)
	assert.Equal(t, noMark, rows[3].Mark)
}

func TestRowsLabelsFromValues(t *testing.T) {
	values := []model.LineValue{9, 8, 7, 6, 8, 7}
	h, err := hexagram.FromSixLines(values)
	require.NoError(t, err)
	rows := Rows(h, values, hexagram.MovingLines(values))
	assert.Equal(t, "老阳 9", rows[5].Label)
	assert.Equal(t, "老阴 6", rows[2].Label)
	assert.Equal(t, oldYinMark, rows[2].Mark)
}

func TestMarkdown(t *testing.T) {
	r := sampleReading(t)
	md := Markdown(r, Options{})
	assert.Contains(t, md, "# 大衍筮法")
	assert.Contains(t, md, "- 动爻：第1爻、第4爻")
	assert.Contains(t, md, "- 变卦：")
	assert.Contains(t, md, "- 种子：42")
	assert.Contains(t, md, "# 梅花易数")
	assert.Contains(t, md, "- 上卦：震（3）")
	assert.Contains(t, md, "- 本卦：震坤（上震雷 下坤地）")
	assert.Contains(t, md, "甲子年 1月 1日 庚午时（2025-01-29）")
	assert.NotContains(t, md, titleProcess)

	withSteps := Markdown(r, Options{Steps: true})
	assert.Contains(t, withSteps, "### "+dayan.GroupTitle(1))
	assert.Contains(t, withSteps, "### "+meihua.Title)
	assert.Contains(t, withSteps, "| 定爻 | 老阳 |")
}

func TestMarkdownTimeError(t *testing.T) {
	r := sampleReading(t)
	r.Time = nil
	r.TimeError = "lunar: api key not configured"
	md := Markdown(r, Options{})
	assert.Contains(t, md, "时间起卦失败：lunar: api key not configured")
	assert.NotContains(t, md, "- 上卦")
}

func TestHTMLEscapes(t *testing.T) {
	r := sampleReading(t)
	r.Groups = append(r.Groups, model.StepGroup{Title: "<b>", Steps: []model.Step{{Description: "a&b", Value: `"x"`}}})
	page := HTML(r)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.True(t, strings.HasSuffix(page, "</html>"))
	assert.Contains(t, page, "<h3>&lt;b&gt;</h3>")
	assert.Contains(t, page, "<td>a&amp;b</td><td>&#34;x&#34;</td>")
	assert.Contains(t, page, "<h2>梅花易数</h2>")
	assert.Contains(t, page, yangStroke)
}

func TestPlainRenderer(t *testing.T) {
	render, err := NewRenderer(true)
	require.NoError(t, err)
	out, err := render("# x")
	require.NoError(t, err)
	assert.Equal(t, "# x", out)
}

func TestTimeMarkdown(t *testing.T) {
	info := model.LunarInfo{Date: "2025-01-29", YearStem: "甲", YearBranch: "子", LunarMonth: "1", LunarDay: "1", HourStem: "庚", HourBranch: "午"}
	res, err := meihua.Divine(info)
	require.NoError(t, err)

	md := TimeMarkdown(res, info, Options{Steps: true})
	assert.True(t, strings.HasPrefix(md, "# 梅花易数"))
	assert.Contains(t, md, "- 动爻：第4爻")
	assert.Contains(t, md, "- 变卦：坤坤（上坤地 下坤地）")
	assert.Contains(t, md, "### "+meihua.Title)
	assert.NotContains(t, md, titleDayan)
}

func TestHexagramList(t *testing.T) {
	md := HexagramList([]hexagram.Hexagram{56, 0})
	assert.True(t, strings.HasPrefix(md, "# 随机卦象\n"))
	assert.Contains(t, md, "## 1. 乾坤（上乾天 下坤地）")
	assert.Contains(t, md, "## 2. 坤坤（上坤地 下坤地）")
	assert.Equal(t, 4, strings.Count(md, "```\n"))
	assert.Equal(t, 3, strings.Count(md, yangStroke))
	assert.NotContains(t, md, oldYangMark)
}
