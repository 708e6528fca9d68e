package report

import (
	"fmt"
	"html"
	"strings"

	"yijing/internal/divination"
	"yijing/internal/model"
)

const pageStyle = `body{font-family:sans-serif;max-width:760px;margin:24px auto;padding:0 12px}` +
	`pre{font-size:20px;line-height:1.3}table{border-collapse:collapse;font-size:14px;margin-bottom:16px}` +
	`th,td{border:1px solid #ccc;padding:6px 10px;text-align:left}thead tr{background:#eee}`

// HTML 渲染为完整页面，推演过程按组列成表格。
func HTML(r divination.Reading) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"><title>易经起卦</title><style>`)
	b.WriteString(pageStyle)
	b.WriteString(`</style></head><body>`)

	c := r.Casting
	fmt.Fprintf(&b, "<h2>%s</h2>", titleDayan)
	fmt.Fprintf(&b, "<p>本卦：%s · 动爻：%s", esc(title(c.Hexagram)), esc(positions(c.MovingLines)))
	if len(c.MovingLines) > 0 {
		fmt.Fprintf(&b, " · 变卦：%s", esc(title(c.Changed)))
	}
	fmt.Fprintf(&b, " · 种子：%d</p>", r.Seed)
	writeDrawingHTML(&b, Rows(c.Hexagram, c.Values(), c.MovingLines))

	if r.Time != nil || r.TimeError != "" {
		fmt.Fprintf(&b, "<h2>%s</h2>", titleMeihua)
		if r.TimeError != "" {
			fmt.Fprintf(&b, `<p class="error">时间起卦失败：%s</p>`, esc(r.TimeError))
		} else {
			t := r.Time
			fmt.Fprintf(&b, "<p>本卦：%s · 动爻：第%d爻 · 变卦：%s</p>",
				esc(title(t.Hexagram)), t.ChangingLine, esc(title(t.Changed)))
			writeDrawingHTML(&b, Rows(t.Hexagram, nil, []int{t.ChangingLine}))
		}
	}

	fmt.Fprintf(&b, "<h2>%s</h2>", titleProcess)
	for _, g := range r.Groups {
		writeGroupHTML(&b, g)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func writeDrawingHTML(b *strings.Builder, rows []LineRow) {
	b.WriteString("<pre>")
	for _, r := range rows {
		fmt.Fprintf(b, "%s %s  %d  %s\n", r.Stroke, r.Mark, r.Position, esc(r.Label))
	}
	b.WriteString("</pre>")
}

func writeGroupHTML(b *strings.Builder, g model.StepGroup) {
	fmt.Fprintf(b, "<h3>%s</h3>", esc(g.Title))
	b.WriteString(`<table><thead><tr><th>步骤</th><th>结果</th></tr></thead><tbody>`)
	for _, s := range g.Steps {
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td></tr>", esc(s.Description), esc(s.Value))
	}
	b.WriteString("</tbody></table>")
}

func esc(s string) string {
	return html.EscapeString(s)
}
