// Package ganzhi 提供天干地支表、时辰换算与农历数字解析，全部为纯函数。
package ganzhi

import (
	"strings"
	"unicode/utf8"
)

// Stems 十天干，按序。
var Stems = []string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}

// Branches 十二地支，按序；序号 +1 即梅花易数所用的数。
var Branches = []string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}

var branchNumber = func() map[string]int {
	m := make(map[string]int, len(Branches))
	for i, b := range Branches {
		m[b] = i + 1
	}
	return m
}()

// 五鼠遁：日干决定子时的时干
var ratStartStem = map[string]string{
	"甲": "甲", "己": "甲",
	"乙": "丙", "庚": "丙",
	"丙": "戊", "辛": "戊",
	"丁": "庚", "壬": "庚",
	"戊": "壬", "癸": "壬",
}

// BranchNumber 地支转数（子=1 … 亥=12），未知地支返回 0。
func BranchNumber(branch string) int {
	return branchNumber[branch]
}

// IsBranch 是否为十二地支之一。
func IsBranch(s string) bool {
	_, ok := branchNumber[s]
	return ok
}

// HourBranch 钟点（0-23）转时辰地支：23 点至 1 点为子时，其后每两小时一个时辰。
func HourBranch(hour int) string {
	if hour >= 23 || hour < 1 {
		return Branches[0]
	}
	return Branches[(hour+1)/2]
}

// HourStem 由日干与时支推时干，任一未知时返回空串。
func HourStem(dayStem, hourBranch string) string {
	start, ok := ratStartStem[dayStem]
	if !ok {
		return ""
	}
	bi := BranchNumber(hourBranch) - 1
	if bi < 0 {
		return ""
	}
	si := indexOf(Stems, start)
	return Stems[(si+bi)%len(Stems)]
}

// SplitGanZhi 把“甲子”这样的干支拆成天干、地支；长度不为 2 个字时返回空串。
func SplitGanZhi(s string) (stem, branch string) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) != 2 {
		return "", ""
	}
	r := []rune(s)
	return string(r[0]), string(r[1])
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
