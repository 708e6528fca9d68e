package ai

import (
	"fmt"
	"strings"

	"yijing/internal/hexagram"
	"yijing/internal/model"
)

// Subject 解卦对象。时间起卦没有六爻数值，Lines 为空时按卦值取阴阳。
type Subject struct {
	Hexagram    hexagram.Hexagram
	Changed     hexagram.Hexagram
	MovingLines []int
	Lines       []model.LineValue
	Question    string
}

// HasChange 有动爻才有变卦。
func (s Subject) HasChange() bool {
	return len(s.MovingLines) > 0 && s.Changed != s.Hexagram
}

const plainOutputHint = "请直接输出解析内容，不要使用任何特殊标记或标签。"

const mindmapRules = `注意：
- 严格使用"-"作为列表标记
- 每个层级缩进两个空格
- 结构要清晰，层次分明
- 重点突出关键信息
- 使用简洁的语言
- 确保每个分支都有2-3个子节点`

// nature 形如“上震下坤（雷地）”。
func nature(h hexagram.Hexagram) string {
	p, ok := hexagram.ToTrigrams(h)
	if !ok {
		return "未知"
	}
	u, _ := hexagram.LookupTrigram(p.Upper)
	l, _ := hexagram.LookupTrigram(p.Lower)
	return fmt.Sprintf("上%s下%s（%s%s）", p.Upper, p.Lower, u.Image, l.Image)
}

func lineLabel(s Subject, position int) string {
	if position >= 1 && position <= len(s.Lines) {
		v := s.Lines[position-1]
		return fmt.Sprintf("%s（%d）", v.Name(), int(v))
	}
	if s.Hexagram.Bit(position) {
		return "阳爻"
	}
	return "阴爻"
}

func writeLines(b *strings.Builder, s Subject) {
	for pos := hexagram.LineCount; pos >= 1; pos-- {
		fmt.Fprintf(b, "第%d爻：%s\n", pos, lineLabel(s, pos))
	}
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("第%d爻", n)
	}
	return strings.Join(parts, "、")
}

func writeHeader(b *strings.Builder, s Subject) {
	fmt.Fprintf(b, "卦名：%s\n", hexagram.Name(s.Hexagram))
	fmt.Fprintf(b, "性质：%s\n", nature(s.Hexagram))
	if s.HasChange() {
		fmt.Fprintf(b, "动爻：%s\n", joinInts(s.MovingLines))
		fmt.Fprintf(b, "变卦：%s（%s）\n", hexagram.Name(s.Changed), nature(s.Changed))
	}
	if q := strings.TrimSpace(s.Question); q != "" {
		fmt.Fprintf(b, "所问之事：%s\n", q)
	}
}

// HexagramPrompt 整卦解析提示。
func HexagramPrompt(s Subject) string {
	var b strings.Builder
	b.WriteString("请对以下易经卦象进行全面解析：\n\n")
	writeHeader(&b, s)
	b.WriteString("\n六爻（自上而下）：\n")
	writeLines(&b, s)
	b.WriteString(`
请从以下几个方面进行详细分析：
1. 整体卦象的核心寓意
   - 本卦的基本含义
   - 卦象所反映的基本情势
2. 各爻之间的关系和变化
   - 六爻的相互关系
   - 关键爻位的特殊意义
3. 对当前情况的指导意义
   - 对所处形势的判断
   - 可能遇到的机遇和挑战
4. 未来发展的建议
   - 行动的指导原则
   - 需要避免的问题
5. 现代生活中的具体应用
   - 在事业方面的启示
   - 在人际关系中的运用

`)
	b.WriteString(plainOutputHint)
	b.WriteString("请用现代人易于理解的语言来解释，并结合具体的例子说明如何在实际生活中运用这些智慧。")
	return b.String()
}

// LinePrompt 单爻解析提示，position 为 1-6。
func LinePrompt(s Subject, position int) string {
	var b strings.Builder
	b.WriteString("请详细解释以下易经爻位的含义，包括其象征意义和现代启示：\n\n")
	writeHeader(&b, s)
	fmt.Fprintf(&b, "爻位：第%d爻，%s\n", position, lineLabel(s, position))
	b.WriteString(`
请从以下几个方面进行分析：
1. 具体寓意：详细解释这一爻在本卦中的具体含义
2. 象征含义：分析其象征和隐喻的深层意义
3. 现代生活的启示：如何将这一爻的智慧应用到现代生活中
4. 对个人发展的建议：基于这一爻，对个人成长和发展的具体建议

`)
	b.WriteString(plainOutputHint)
	return b.String()
}

// MindmapPrompt 生成 Markdown 多级列表形式的思维导图提示。
// history 非空时总结对话，否则总结卦象本身；changed 表示针对变卦。
func MindmapPrompt(s Subject, changed bool, history []Message) string {
	h := s.Hexagram
	suffix := ""
	if changed {
		h = s.Changed
		suffix = "变卦"
	}
	name := hexagram.Name(h)

	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("请根据以下易经卦象解析对话生成一个详细的思维导图，使用Markdown格式的多级列表（只使用\"-\"符号作为列表标记）。\n\n对话内容：\n")
		for i, m := range history {
			if i > 0 {
				b.WriteString("\n\n")
			}
			who := "答"
			if m.Role == RoleUser {
				who = "问"
			}
			fmt.Fprintf(&b, "%s：%s", who, m.Content)
		}
		fmt.Fprintf(&b, "\n\n请从以下几个方面进行分析，使用树状结构展开：\n\n- %s卦%s对话总结\n", name, suffix)
		b.WriteString("  - 关键问题\n  - 主要解析\n  - 重要启示\n  - 实践建议\n  - 补充说明\n\n")
		b.WriteString(mindmapRules)
		return b.String()
	}

	b.WriteString("请为以下易经卦象生成一个详细的思维导图，使用Markdown格式的多级列表（只使用\"-\"符号作为列表标记）：\n\n")
	fmt.Fprintf(&b, "卦名：%s", name)
	if changed {
		b.WriteString("（变卦）")
	}
	fmt.Fprintf(&b, "\n性质：%s\n", nature(h))
	if changed && len(s.MovingLines) > 0 {
		fmt.Fprintf(&b, "变爻：%s\n", joinInts(s.MovingLines))
	}
	fmt.Fprintf(&b, "\n请从以下几个方面进行分析，使用树状结构展开：\n\n- %s卦%s解析\n", name, suffix)
	b.WriteString("  - 基本信息\n  - 卦象含义\n  - 六爻详解\n")
	if changed {
		b.WriteString("  - 变爻影响\n  - 变化意义\n\n")
	} else {
		b.WriteString("  - 变化规律\n  - 现代启示\n\n")
	}
	b.WriteString(mindmapRules)
	return b.String()
}
