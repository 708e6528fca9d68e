// Package model 定义爻、卦象推演过程、农历信息等数据结构。
package model

import "encoding/json"

// Step 单条推演记录：说明 + 数值，只用于展示，算法本身从不回读。
type Step struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// StepGroup 带标题的一组推演记录（每一爻一组，梅花易数一组）。
type StepGroup struct {
	Title string `json:"title"`
	Steps []Step `json:"steps"`
}

// LineValue 爻值：6 老阴、7 少阳、8 少阴、9 老阳，0 表示推演出错。
type LineValue int

const (
	LineInvalid LineValue = 0
	OldYin      LineValue = 6
	YoungYang   LineValue = 7
	YoungYin    LineValue = 8
	OldYang     LineValue = 9
)

func (v LineValue) Valid() bool {
	return v >= OldYin && v <= OldYang
}

// IsYang 奇数为阳（实线），偶数为阴（断线）。
func (v LineValue) IsYang() bool {
	return v.Valid() && v%2 == 1
}

// IsMoving 老阴、老阳为动爻。
func (v LineValue) IsMoving() bool {
	return v == OldYin || v == OldYang
}

// Name 返回中文爻名，非法值返回“错误”。
func (v LineValue) Name() string {
	switch v {
	case OldYin:
		return "老阴"
	case YoungYang:
		return "少阳"
	case YoungYin:
		return "少阴"
	case OldYang:
		return "老阳"
	default:
		return "错误"
	}
}

// Gloss 英文释名。
func (v LineValue) Gloss() string {
	switch v {
	case OldYin:
		return "old-yin"
	case YoungYang:
		return "young-yang"
	case YoungYin:
		return "young-yin"
	case OldYang:
		return "old-yang"
	default:
		return "error"
	}
}

// Line 一爻：自下而上的位置（1-6）、爻值与推演过程。
type Line struct {
	Position int       `json:"position"`
	Value    LineValue `json:"value"`
	Steps    []Step    `json:"steps"`
}

// MarshalJSON 附带中英文爻名。
func (l Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return json.Marshal(struct {
		plain
		Name  string `json:"name"`
		Gloss string `json:"gloss"`
	}{plain(l), l.Value.Name(), l.Value.Gloss()})
}

// LunarInfo 农历查询结果：年月日时的天干地支与农历月日。
// LunarMonth / LunarDay 可能是阿拉伯数字，也可能是中文数字。
type LunarInfo struct {
	Date        string `json:"date"`
	YearStem    string `json:"year_stem"`
	YearBranch  string `json:"year_branch"`
	MonthStem   string `json:"month_stem"`
	MonthBranch string `json:"month_branch"`
	DayStem     string `json:"day_stem"`
	DayBranch   string `json:"day_branch"`
	HourStem    string `json:"hour_stem"`
	HourBranch  string `json:"hour_branch"`
	LunarMonth  string `json:"lunar_month"`
	LunarDay    string `json:"lunar_day"`
	Error       string `json:"error,omitempty"`
}
