// Package report 把一次起卦结果渲染为 Markdown（终端经 glamour 显示）或 HTML 页面。
package report

import (
	"fmt"
	"strings"

	"yijing/internal/divination"
	"yijing/internal/hexagram"
	"yijing/internal/meihua"
	"yijing/internal/model"
)

// 爻画：阳爻为整画，阴爻中间断开；老阳记 ○，老阴记 ×。
const (
	yangStroke   = "▅▅▅▅▅"
	yinStroke    = "▅▅ ▅▅"
	oldYangMark  = "○"
	oldYinMark   = "×"
	noMark       = " "
	titleDayan   = "大衍筮法"
	titleMeihua  = "梅花易数"
	titleProcess = "推演过程"
	titleRandom  = "随机卦象"
)

// Options 控制 Markdown 输出内容。
type Options struct {
	Steps bool // 附上逐步推演过程
}

// LineRow 一爻的画与标注。
type LineRow struct {
	Position int
	Stroke   string
	Mark     string
	Label    string
}

// Rows 自上而下排列的六爻。values 为空时按卦值画阴阳、moving 标注动爻。
func Rows(h hexagram.Hexagram, values []model.LineValue, moving []int) []LineRow {
	isMoving := make(map[int]bool, len(moving))
	for _, m := range moving {
		isMoving[m] = true
	}
	rows := make([]LineRow, 0, hexagram.LineCount)
	for pos := hexagram.LineCount; pos >= 1; pos-- {
		yang := h.Bit(pos)
		row := LineRow{Position: pos, Stroke: yinStroke, Mark: noMark, Label: "阴"}
		if yang {
			row.Stroke, row.Label = yangStroke, "阳"
		}
		if pos <= len(values) {
			v := values[pos-1]
			row.Label = fmt.Sprintf("%s %d", v.Name(), int(v))
		}
		if isMoving[pos] {
			if yang {
				row.Mark = oldYangMark
			} else {
				row.Mark = oldYinMark
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func title(h hexagram.Hexagram) string {
	p, ok := hexagram.ToTrigrams(h)
	if !ok {
		return hexagram.Name(h)
	}
	u, _ := hexagram.LookupTrigram(p.Upper)
	l, _ := hexagram.LookupTrigram(p.Lower)
	return fmt.Sprintf("%s（上%s%s 下%s%s）", hexagram.Name(h), p.Upper, u.Image, p.Lower, l.Image)
}

func positions(ns []int) string {
	if len(ns) == 0 {
		return "无"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("第%d爻", n)
	}
	return strings.Join(parts, "、")
}

func writeDrawing(b *strings.Builder, rows []LineRow) {
	b.WriteString("```\n")
	for _, r := range rows {
		fmt.Fprintf(b, "%s %s  %d  %s\n", r.Stroke, r.Mark, r.Position, r.Label)
	}
	b.WriteString("```\n\n")
}

// HexagramList 依次画出若干卦，用于随机抽卦。
func HexagramList(hs []hexagram.Hexagram) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", titleRandom)
	for i, h := range hs {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, title(h))
		writeDrawing(&b, Rows(h, nil, nil))
	}
	return b.String()
}

// Markdown 渲染整个 Reading。
func Markdown(r divination.Reading, opt Options) string {
	var b strings.Builder
	c := r.Casting
	fmt.Fprintf(&b, "# %s\n\n", titleDayan)
	fmt.Fprintf(&b, "- 本卦：%s\n", title(c.Hexagram))
	fmt.Fprintf(&b, "- 动爻：%s\n", positions(c.MovingLines))
	if len(c.MovingLines) > 0 {
		fmt.Fprintf(&b, "- 变卦：%s\n", title(c.Changed))
	}
	if len(c.Invalid) > 0 {
		fmt.Fprintf(&b, "- 推演出错：%s\n", positions(c.Invalid))
	}
	fmt.Fprintf(&b, "- 种子：%d\n\n", r.Seed)
	writeDrawing(&b, Rows(c.Hexagram, c.Values(), c.MovingLines))

	if r.Time != nil || r.TimeError != "" {
		writeTimeMarkdown(&b, r)
	}
	if opt.Steps {
		fmt.Fprintf(&b, "## %s\n\n", titleProcess)
		for _, g := range r.Groups {
			writeGroupMarkdown(&b, g)
		}
	}
	return b.String()
}

func writeTimeMarkdown(b *strings.Builder, r divination.Reading) {
	fmt.Fprintf(b, "# %s\n\n", titleMeihua)
	writeLunar(b, r.Lunar)
	if r.TimeError != "" {
		fmt.Fprintf(b, "- 时间起卦失败：%s\n\n", r.TimeError)
		return
	}
	writeTimeResult(b, *r.Time)
}

func writeLunar(b *strings.Builder, l *model.LunarInfo) {
	if l == nil {
		return
	}
	fmt.Fprintf(b, "- 农历：%s年 %s月 %s日 %s时（%s）\n",
		l.YearStem+l.YearBranch, l.LunarMonth, l.LunarDay, l.HourStem+l.HourBranch, l.Date)
}

func writeTimeResult(b *strings.Builder, t meihua.Result) {
	fmt.Fprintf(b, "- 上卦：%s（%d）\n", t.Upper, t.UpperSum)
	fmt.Fprintf(b, "- 下卦：%s（%d）\n", t.Lower, t.LowerSum)
	fmt.Fprintf(b, "- 本卦：%s\n", title(t.Hexagram))
	fmt.Fprintf(b, "- 动爻：第%d爻\n", t.ChangingLine)
	fmt.Fprintf(b, "- 变卦：%s\n\n", title(t.Changed))
	writeDrawing(b, Rows(t.Hexagram, nil, []int{t.ChangingLine}))
}

// TimeMarkdown 只渲染梅花易数时间起卦。
func TimeMarkdown(t meihua.Result, info model.LunarInfo, opt Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", titleMeihua)
	writeLunar(&b, &info)
	writeTimeResult(&b, t)
	if opt.Steps {
		fmt.Fprintf(&b, "## %s\n\n", titleProcess)
		writeGroupMarkdown(&b, t.Group())
	}
	return b.String()
}

func writeGroupMarkdown(b *strings.Builder, g model.StepGroup) {
	fmt.Fprintf(b, "### %s\n\n", g.Title)
	b.WriteString("| 步骤 | 结果 |\n|---|---|\n")
	for _, s := range g.Steps {
		fmt.Fprintf(b, "| %s | %s |\n", cell(s.Description), cell(s.Value))
	}
	b.WriteString("\n")
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}
