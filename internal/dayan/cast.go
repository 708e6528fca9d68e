package dayan

import (
	"fmt"

	"yijing/internal/hexagram"
	"yijing/internal/model"
)

// Casting 六爻成卦的结果。
type Casting struct {
	Lines       []model.Line      `json:"lines"`
	Hexagram    hexagram.Hexagram `json:"hexagram"`
	Trigrams    hexagram.Pair     `json:"trigrams"`
	MovingLines []int             `json:"moving_lines,omitempty"`
	Changed     hexagram.Hexagram `json:"changed"`
	Groups      []model.StepGroup `json:"groups"`
	Invalid     []int             `json:"invalid,omitempty"` // 推演出错的爻位
}

// Values 按自下而上的顺序返回六个爻值。
func (c Casting) Values() []model.LineValue {
	out := make([]model.LineValue, len(c.Lines))
	for i, l := range c.Lines {
		out[i] = l.Value
	}
	return out
}

// GroupTitle 第 position 爻的推演标题。
func GroupTitle(position int) string {
	return fmt.Sprintf("大衍筮法第%d爻的计算过程", position)
}

// Cast 依次生成六爻并成卦。
func Cast(rng Rand) Casting {
	return CastWith(rng, nil)
}

// CastWith 同 Cast，每得一爻回调一次 observe（可为 nil）。
func CastWith(rng Rand, observe func(model.Line)) Casting {
	lines := make([]model.Line, 0, hexagram.LineCount)
	for pos := 1; pos <= hexagram.LineCount; pos++ {
		l := GenerateLine(rng, pos)
		lines = append(lines, l)
		if observe != nil {
			observe(l)
		}
	}
	return Assemble(lines)
}

// Assemble 由已按爻位排好的六爻组装卦；lines[0] 为初爻。
func Assemble(lines []model.Line) Casting {
	c := Casting{Lines: lines}
	for _, l := range lines {
		c.Groups = append(c.Groups, model.StepGroup{Title: GroupTitle(l.Position), Steps: l.Steps})
		if !l.Value.Valid() {
			c.Invalid = append(c.Invalid, l.Position)
		}
	}
	values := c.Values()
	h, err := hexagram.FromSixLines(values)
	if err != nil {
		return c
	}
	c.Hexagram = h
	c.Trigrams, _ = hexagram.ToTrigrams(h)
	c.MovingLines = hexagram.MovingLines(values)
	c.Changed, _ = hexagram.ChangedByMoving(h, values)
	return c
}
