package ganzhi

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranchNumberIsOrderPreserving(t *testing.T) {
	for i, b := range Branches {
		assert.Equal(t, i+1, BranchNumber(b), b)
		assert.True(t, IsBranch(b))
	}
	assert.Equal(t, 0, BranchNumber("甲"))
	assert.Equal(t, 0, BranchNumber(""))
	assert.False(t, IsBranch("－"))
}

func TestHourBranch(t *testing.T) {
	cases := map[int]string{
		0: "子", 23: "子", 1: "丑", 2: "丑", 3: "寅", 5: "卯", 7: "辰",
		9: "巳", 11: "午", 12: "午", 13: "未", 15: "申", 17: "酉", 19: "戌", 21: "亥", 22: "亥",
	}
	for hour, want := range cases {
		assert.Equal(t, want, HourBranch(hour), "hour %d", hour)
	}
}

func TestHourStem(t *testing.T) {
	assert.Equal(t, "甲", HourStem("甲", "子"))
	assert.Equal(t, "甲", HourStem("己", "子"))
	assert.Equal(t, "丙", HourStem("乙", "子"))
	assert.Equal(t, "壬", HourStem("戊", "子"))
	// 甲日午时：甲子起，第 7 个时辰为庚午
	assert.Equal(t, "庚", HourStem("甲", "午"))
	// 癸日亥时：壬子起，数到亥为癸亥
	assert.Equal(t, "癸", HourStem("癸", "亥"))
	assert.Equal(t, "", HourStem("－", "子"))
	assert.Equal(t, "", HourStem("甲", "x"))
}

func TestSplitGanZhi(t *testing.T) {
	stem, branch := SplitGanZhi("甲辰")
	assert.Equal(t, "甲", stem)
	assert.Equal(t, "辰", branch)

	stem, branch = SplitGanZhi("甲")
	assert.Empty(t, stem)
	assert.Empty(t, branch)
}

func TestParseNumber(t *testing.T) {
	cases := map[string]int{
		"1":     1,
		"12":    12,
		" 16 ":  16,
		"3abc":  3,
		"-2":    -2,
		"":      0,
		"abc":   0,
		"正月":    1,
		"冬月":    11,
		"腊月":    12,
		"闰四月":   4,
		"初一":    1,
		"初九":    9,
		"初十":    10,
		"十":     10,
		"十五":    15,
		"二十":    20,
		"廿":     20,
		"廿三":    23,
		"卅":     30,
		"三十":    30,
		"二十九":   29,
		"十二月":   12,
		"七月":    7,
		"初":     0,
		"廿x":    0,
		"零十":    0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseNumber(in), "input %q", in)
	}
}

func TestParseNumberOutOfRangeIsZero(t *testing.T) {
	assert.Equal(t, 0, ParseNumber("9223372036854775808"))
	assert.Equal(t, 0, ParseNumber("99999999999999999999"))
	assert.Equal(t, 0, ParseNumber("-99999999999999999999月"))
	assert.Equal(t, math.MaxInt, ParseNumber(strconv.Itoa(math.MaxInt)))
	assert.Equal(t, 7, ParseNumber("+7"))
}
