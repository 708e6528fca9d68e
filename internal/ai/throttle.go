package ai

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// 输出节流：距上次输出至少 minEmitInterval，且新增内容含句读或已满 minEmitChars 个字。
const (
	minEmitInterval = 100 * time.Millisecond
	minEmitChars    = 10
	breakPoints     = "。！？.!?\n"
	thinkOpen       = "<think>"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThink 去掉完整的 <think>…</think> 段；未闭合的 <think> 之后全部视为思考过程。
func stripThink(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	if i := strings.Index(s, thinkOpen); i >= 0 {
		s = s[:i]
	}
	return s
}

type throttle struct {
	raw      strings.Builder
	emitted  string
	lastEmit time.Time
	now      func() time.Time
}

func newThrottle() *throttle {
	t := &throttle{now: time.Now}
	t.lastEmit = t.now()
	return t
}

// add 追加一段增量，需要输出时返回当前完整文本。
func (t *throttle) add(delta string) (string, bool) {
	t.raw.WriteString(delta)
	clean := stripThink(t.raw.String())
	now := t.now()
	if now.Sub(t.lastEmit) < minEmitInterval {
		return "", false
	}
	var pending string
	if strings.HasPrefix(clean, t.emitted) {
		pending = clean[len(t.emitted):]
	}
	if pending == "" {
		return "", false
	}
	if !strings.ContainsAny(pending, breakPoints) && utf8.RuneCountInString(pending) < minEmitChars {
		return "", false
	}
	t.emitted = clean
	t.lastEmit = now
	return clean, true
}

// flush 流结束时输出最终文本（与上次输出相同时不重复）。
func (t *throttle) flush() (string, bool) {
	clean := stripThink(t.raw.String())
	if clean == "" || clean == t.emitted {
		return "", false
	}
	t.emitted = clean
	return clean, true
}
