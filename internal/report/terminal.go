package report

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const defaultWordWrap = 100

// NewRenderer 返回终端 Markdown 渲染函数；plain 为 true 时原样输出（重定向到文件或管道时用）。
func NewRenderer(plain bool) (func(string) (string, error), error) {
	if plain {
		return func(md string) (string, error) { return md, nil }, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(defaultWordWrap),
	)
	if err != nil {
		return nil, fmt.Errorf("report: terminal renderer: %w", err)
	}
	return r.Render, nil
}
