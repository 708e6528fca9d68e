package ganzhi

import (
	"strconv"
	"strings"
)

var cnDigit = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

// 月份别名
var monthAlias = map[string]int{
	"正": 1, "冬": 11, "腊": 12,
}

// ParseNumber 解析农历月、日：先按 parseInt 语义取开头的阿拉伯数字（可带符号），
// 否则按中文写法解析（正月、冬月、腊月、初一、十五、廿三、三十、卅等），都不行返回 0。
func ParseNumber(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, ok := leadingInt(s); ok {
		return n
	}
	return parseChinese(s)
}

// leadingInt 取开头的（带符号）数字串；超出 int 范围视为无法解析，记 0。
func leadingInt(s string) (int, bool) {
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, true
	}
	return n, true
}

func parseChinese(s string) int {
	s = strings.TrimPrefix(s, "闰")
	s = strings.TrimSuffix(s, "月")
	s = strings.TrimSuffix(s, "日")
	if n, ok := monthAlias[s]; ok {
		return n
	}
	if rest, ok := strings.CutPrefix(s, "初"); ok {
		if rest == "十" {
			return 10
		}
		return singleDigit(rest)
	}
	if rest, ok := strings.CutPrefix(s, "廿"); ok {
		if rest == "" {
			return 20
		}
		if d := singleDigit(rest); d > 0 {
			return 20 + d
		}
		return 0
	}
	if s == "卅" {
		return 30
	}
	r := []rune(s)
	switch {
	case len(r) == 1 && r[0] == '十':
		return 10
	case len(r) == 1:
		return cnDigit[r[0]]
	case len(r) == 2 && r[0] == '十':
		return 10 + cnDigit[r[1]]
	case len(r) == 2 && r[1] == '十':
		if d := cnDigit[r[0]]; d > 0 {
			return d * 10
		}
	case len(r) == 3 && r[1] == '十':
		tens, units := cnDigit[r[0]], cnDigit[r[2]]
		if tens > 0 && units > 0 {
			return tens*10 + units
		}
	}
	return 0
}

func singleDigit(s string) int {
	r := []rune(s)
	if len(r) != 1 {
		return 0
	}
	return cnDigit[r[0]]
}
