// Package hexagram 实现卦的位运算：六位整数与上下卦互转、动爻翻转、由六爻成卦。
//
// 第 i 位（从 0 起，自下而上）为 1 表示阳爻，为 0 表示阴爻；上卦占高三位，下卦占低三位。
package hexagram

import (
	"errors"
	"fmt"

	"yijing/internal/model"
)

// Hexagram 六位卦值，合法范围 [0, 63]。
type Hexagram int

const (
	Min Hexagram = 0
	Max Hexagram = 0b111111

	// LineCount 一卦六爻
	LineCount = 6
)

var (
	ErrUnknownTrigram      = errors.New("hexagram: unknown trigram")
	ErrInvalidHexagram     = errors.New("hexagram: value out of range [0,63]")
	ErrInvalidChangingLine = errors.New("hexagram: changing line out of range [1,6]")
	ErrLineCount           = errors.New("hexagram: exactly six lines required")
)

// Pair 上卦、下卦。
type Pair struct {
	Upper string `json:"upper"`
	Lower string `json:"lower"`
}

func (h Hexagram) Valid() bool {
	return h >= Min && h <= Max
}

// Bit 第 line 爻（1-6，自下而上）是否为阳。
func (h Hexagram) Bit(line int) bool {
	if line < 1 || line > LineCount {
		return false
	}
	return h&(1<<(line-1)) != 0
}

func (h Hexagram) String() string {
	if !h.Valid() {
		return fmt.Sprintf("invalid(%d)", int(h))
	}
	return fmt.Sprintf("%06b", int(h))
}

// FromTrigrams 上卦 << 3 | 下卦；任一卦名未知时返回 0 与 ErrUnknownTrigram。
func FromTrigrams(upper, lower string) (Hexagram, error) {
	ub, ok := trigramBits[upper]
	if !ok {
		return 0, fmt.Errorf("%w: upper %q", ErrUnknownTrigram, upper)
	}
	lb, ok := trigramBits[lower]
	if !ok {
		return 0, fmt.Errorf("%w: lower %q", ErrUnknownTrigram, lower)
	}
	return Hexagram(ub<<3 | lb), nil
}

// ToTrigrams 拆出上下卦；超出范围返回 false。
func ToTrigrams(h Hexagram) (Pair, bool) {
	if !h.Valid() {
		return Pair{}, false
	}
	upper, uok := bitsTrigram[int(h>>3)&0b111]
	lower, lok := bitsTrigram[int(h)&0b111]
	if !uok || !lok {
		return Pair{}, false
	}
	return Pair{Upper: upper, Lower: lower}, true
}

// Validate 范围合法且能拆出上下卦。
func Validate(h Hexagram) bool {
	_, ok := ToTrigrams(h)
	return ok
}

// ToggleLine 翻转第 line 爻（1-6，自下而上）得到变卦；参数非法时原样返回并附带错误。
func ToggleLine(h Hexagram, line int) (Hexagram, error) {
	if !Validate(h) {
		return h, fmt.Errorf("%w: %d", ErrInvalidHexagram, int(h))
	}
	if line < 1 || line > LineCount {
		return h, fmt.Errorf("%w: %d", ErrInvalidChangingLine, line)
	}
	return h ^ (1 << (line - 1)), nil
}

// FromSixLines 由六爻成卦：lines[0] 为初爻（最先得出、最下）；奇数为阳。
func FromSixLines(lines []model.LineValue) (Hexagram, error) {
	if len(lines) != LineCount {
		return 0, fmt.Errorf("%w: got %d", ErrLineCount, len(lines))
	}
	var h Hexagram
	for i, v := range lines {
		if v%2 != 0 {
			h |= 1 << i
		}
	}
	return h, nil
}

// ChangedByMoving 把所有动爻（老阴、老阳）翻转，得到大衍筮法的变卦。
func ChangedByMoving(h Hexagram, lines []model.LineValue) (Hexagram, error) {
	if !Validate(h) {
		return h, fmt.Errorf("%w: %d", ErrInvalidHexagram, int(h))
	}
	if len(lines) != LineCount {
		return h, fmt.Errorf("%w: got %d", ErrLineCount, len(lines))
	}
	out := h
	for i, v := range lines {
		if v.IsMoving() {
			out ^= 1 << i
		}
	}
	return out, nil
}

// MovingLines 返回动爻位置（1-6）。
func MovingLines(lines []model.LineValue) []int {
	var out []int
	for i, v := range lines {
		if v.IsMoving() {
			out = append(out, i+1)
		}
	}
	return out
}

// LineName 爻值转爻名。
func LineName(v int) string {
	return model.LineValue(v).Name()
}

// Key 卦的查表键：上卦名 + 下卦名。
func Key(upper, lower string) string {
	return upper + lower
}

// Name 返回“上卦下卦”，非法卦值返回“未知”。
func Name(h Hexagram) string {
	p, ok := ToTrigrams(h)
	if !ok {
		return "未知"
	}
	return Key(p.Upper, p.Lower)
}
