// Package meihua 实现梅花易数时间起卦：年支 + 农历月 + 农历日定上卦，再加时支定下卦，
// 下卦之数定动爻。纯取模运算，不含随机。
package meihua

import (
	"fmt"

	"yijing/internal/ganzhi"
	"yijing/internal/hexagram"
	"yijing/internal/model"
)

const (
	trigramCycle = 8
	lineCycle    = 6

	// Title 梅花易数推演过程的标题
	Title = "梅花易数计算过程"
)

// 先天八卦数：1 坎 2 坤 3 震 4 巽 5 乾 6 兑 7 艮 8 离。
// 与 hexagram 包中的三位二进制表是两套不同的约定，不可合并。
var sumTrigram = map[int]string{
	1: "坎", 2: "坤", 3: "震", 4: "巽",
	5: "乾", 6: "兑", 7: "艮", 8: "离",
}

// floorMod 数学意义上的取模，结果总在 [0, m)。
func floorMod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// UpperTrigramValue 上卦数 = 年支数 + 农历月 + 农历日；无法识别的项按 0 计。
func UpperTrigramValue(yearBranch, lunarMonth, lunarDay string) (int, []model.Step) {
	year := ganzhi.BranchNumber(yearBranch)
	month := ganzhi.ParseNumber(lunarMonth)
	day := ganzhi.ParseNumber(lunarDay)
	sum := year + month + day
	steps := []model.Step{
		{Description: "年支取数", Value: fmt.Sprintf("%s → %d", yearBranch, year)},
		{Description: "农历月", Value: fmt.Sprint(month)},
		{Description: "农历日", Value: fmt.Sprint(day)},
		{Description: "上卦之数", Value: fmt.Sprintf("%d + %d + %d = %d", year, month, day, sum)},
	}
	return sum, steps
}

// LowerTrigramValue 下卦数 = 上卦数 + 时支数。
func LowerTrigramValue(upperSum int, hourBranch string) (int, []model.Step) {
	hour := ganzhi.BranchNumber(hourBranch)
	sum := upperSum + hour
	steps := []model.Step{
		{Description: "时支取数", Value: fmt.Sprintf("%s → %d", hourBranch, hour)},
		{Description: "下卦之数", Value: fmt.Sprintf("%d + %d = %d", upperSum, hour, sum)},
	}
	return sum, steps
}

// TrigramFromSum ((sum-1) mod 8) + 1 查先天八卦数，负数与 0 也按数学取模处理。
func TrigramFromSum(sum int) string {
	return sumTrigram[floorMod(sum-1, trigramCycle)+1]
}

// ChangingLineFromSum ((sum-1) mod 6) + 1，结果总在 [1,6]。
func ChangingLineFromSum(sum int) int {
	return floorMod(sum-1, lineCycle) + 1
}

// Result 时间起卦结果：本卦、变卦与推演过程。
type Result struct {
	UpperSum     int               `json:"upper_sum"`
	LowerSum     int               `json:"lower_sum"`
	Upper        string            `json:"upper"`
	Lower        string            `json:"lower"`
	ChangingLine int               `json:"changing_line"`
	Hexagram     hexagram.Hexagram `json:"hexagram"`
	Changed      hexagram.Hexagram `json:"changed"`
	Steps        []model.Step      `json:"steps"`
}

// Group 包装成带标题的推演记录。
func (r Result) Group() model.StepGroup {
	return model.StepGroup{Title: Title, Steps: r.Steps}
}

// Divine 由农历信息起卦。只有上下卦无法成卦或动爻翻转失败时返回错误（正常输入不会发生）。
func Divine(info model.LunarInfo) (Result, error) {
	var r Result
	upperSum, steps := UpperTrigramValue(info.YearBranch, info.LunarMonth, info.LunarDay)
	r.UpperSum = upperSum
	r.Steps = append(r.Steps, steps...)
	r.Upper = TrigramFromSum(upperSum)
	r.Steps = append(r.Steps, model.Step{
		Description: "定上卦",
		Value:       fmt.Sprintf("(%d - 1) mod 8 + 1 = %d → %s", upperSum, floorMod(upperSum-1, trigramCycle)+1, r.Upper),
	})

	lowerSum, steps := LowerTrigramValue(upperSum, info.HourBranch)
	r.LowerSum = lowerSum
	r.Steps = append(r.Steps, steps...)
	r.Lower = TrigramFromSum(lowerSum)
	r.Steps = append(r.Steps, model.Step{
		Description: "定下卦",
		Value:       fmt.Sprintf("(%d - 1) mod 8 + 1 = %d → %s", lowerSum, floorMod(lowerSum-1, trigramCycle)+1, r.Lower),
	})

	r.ChangingLine = ChangingLineFromSum(lowerSum)
	r.Steps = append(r.Steps, model.Step{
		Description: "定动爻",
		Value:       fmt.Sprintf("(%d - 1) mod 6 + 1 = %d", lowerSum, r.ChangingLine),
	})

	h, err := hexagram.FromTrigrams(r.Upper, r.Lower)
	if err != nil {
		return r, fmt.Errorf("meihua: %w", err)
	}
	r.Hexagram = h
	changed, err := hexagram.ToggleLine(h, r.ChangingLine)
	if err != nil {
		return r, fmt.Errorf("meihua: %w", err)
	}
	r.Changed = changed
	r.Steps = append(r.Steps,
		model.Step{Description: "本卦", Value: hexagram.Name(h)},
		model.Step{Description: "变卦", Value: hexagram.Name(changed)},
	)
	return r, nil
}
