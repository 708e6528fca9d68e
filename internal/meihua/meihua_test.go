package meihua

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yijing/internal/hexagram"
	"yijing/internal/model"
)

func TestUpperTrigramValue(t *testing.T) {
	sum, steps := UpperTrigramValue("子", "1", "1")
	assert.Equal(t, 3, sum)
	require.Len(t, steps, 4)
	assert.Equal(t, "1 + 1 + 1 = 3", steps[3].Value)
	assert.Equal(t, "震", TrigramFromSum(sum))
}

func TestUpperTrigramValueToleratesBadTokens(t *testing.T) {
	sum, _ := UpperTrigramValue("－", "abc", "")
	assert.Equal(t, 0, sum)

	sum, _ = UpperTrigramValue("亥", "腊月", "廿三")
	assert.Equal(t, 12+12+23, sum)
}

func TestLowerTrigramValue(t *testing.T) {
	sum, steps := LowerTrigramValue(3, "午")
	assert.Equal(t, 10, sum)
	assert.Len(t, steps, 2)

	sum, _ = LowerTrigramValue(3, "??")
	assert.Equal(t, 3, sum)
}

func TestTrigramFromSumTable(t *testing.T) {
	want := []string{"坎", "坤", "震", "巽", "乾", "兑", "艮", "离"}
	for i, name := range want {
		assert.Equal(t, name, TrigramFromSum(i+1))
	}
	assert.Equal(t, "离", TrigramFromSum(0))
	assert.Equal(t, "艮", TrigramFromSum(-1))
	assert.Equal(t, "坎", TrigramFromSum(-7))
}

func TestTrigramFromSumPeriodic(t *testing.T) {
	for sum := -50; sum <= 50; sum++ {
		assert.Equal(t, TrigramFromSum(sum), TrigramFromSum(sum+8), "sum %d", sum)
		assert.True(t, hexagram.IsTrigram(TrigramFromSum(sum)))
	}
}

func TestChangingLineFromSum(t *testing.T) {
	assert.Equal(t, 1, ChangingLineFromSum(13))
	assert.Equal(t, 6, ChangingLineFromSum(0))
	assert.Equal(t, 6, ChangingLineFromSum(6))
	for sum := -50; sum <= 50; sum++ {
		line := ChangingLineFromSum(sum)
		assert.GreaterOrEqual(t, line, 1)
		assert.LessOrEqual(t, line, 6)
		assert.Equal(t, line, ChangingLineFromSum(sum+6))
	}
}

func TestDivine(t *testing.T) {
	// 子年正月初一午时：上 1+1+1=3 震，下 3+7=10 → 2 坤，动爻 (10-1)%6+1=4
	r, err := Divine(model.LunarInfo{YearBranch: "子", LunarMonth: "1", LunarDay: "1", HourBranch: "午"})
	require.NoError(t, err)
	assert.Equal(t, 3, r.UpperSum)
	assert.Equal(t, 10, r.LowerSum)
	assert.Equal(t, "震", r.Upper)
	assert.Equal(t, "坤", r.Lower)
	assert.Equal(t, 4, r.ChangingLine)

	want, _ := hexagram.FromTrigrams("震", "坤")
	assert.Equal(t, want, r.Hexagram)
	assert.Equal(t, hexagram.Hexagram(0b001000), r.Hexagram)
	assert.Equal(t, hexagram.Hexagram(0b000000), r.Changed)
	assert.Equal(t, "坤坤", hexagram.Name(r.Changed))

	g := r.Group()
	assert.Equal(t, Title, g.Title)
	assert.Equal(t, "变卦", g.Steps[len(g.Steps)-1].Description)
}

func TestDivineWithMissingLunarData(t *testing.T) {
	// 查询失败时的占位符不会让推演崩溃，按 0 计数
	r, err := Divine(model.LunarInfo{YearBranch: "－", LunarMonth: "0", LunarDay: "0", HourBranch: "－"})
	require.NoError(t, err)
	assert.Equal(t, 0, r.UpperSum)
	assert.Equal(t, "离", r.Upper)
	assert.Equal(t, "离", r.Lower)
	assert.Equal(t, 6, r.ChangingLine)
}

func TestDivineChangedIsOneLineAway(t *testing.T) {
	branches := []string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
	for _, year := range branches {
		for month := 1; month <= 12; month++ {
			for _, hour := range branches {
				r, err := Divine(model.LunarInfo{YearBranch: year, LunarMonth: strconv.Itoa(month), LunarDay: "15", HourBranch: hour})
				require.NoError(t, err)
				diff := r.Hexagram ^ r.Changed
				assert.Equal(t, hexagram.Hexagram(1<<(r.ChangingLine-1)), diff)
			}
		}
	}
}

