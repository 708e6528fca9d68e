// Package dayan 实现大衍筮法：分二、挂一、揲四、归奇三变成一爻，六爻成卦。
//
// 随机源一律由调用方注入，便于用固定种子复现。
package dayan

import (
	"errors"
	"fmt"

	"yijing/internal/model"
)

const (
	// InitialSticks 大衍之数五十，其用四十有九
	InitialSticks = 49

	// MinSticks 三变中每一变至少剩 2 根可分：单变最多取走 9 根，故起始不少于 2+9+9
	MinSticks = 20

	roundsPerLine = 3
	pileModulus   = 4
)

var (
	ErrTooFewSticks = errors.New("dayan: too few sticks to divide")
)

// Rand 随机源，*math/rand.Rand 满足。
type Rand interface {
	Intn(n int) int
}

// Operation 一变的结果：取走的根数与推演过程。
type Operation struct {
	Left      int
	Right     int
	FromLeft  bool // 挂一取自左堆
	Remainder [2]int
	Result    int
	Steps     []model.Step
}

// Divide 一变：随机分两堆，任取一堆减一，两堆各除 4 取余（余 0 记 4），得 1 + 余数之和。
// sticks 必须不少于 2。
func Divide(rng Rand, sticks int) (Operation, error) {
	if sticks < 2 {
		return Operation{}, fmt.Errorf("%w: %d", ErrTooFewSticks, sticks)
	}
	a := rng.Intn(sticks-1) + 1
	b := sticks - a
	op := Operation{Left: a, Right: b}
	op.Steps = append(op.Steps,
		model.Step{Description: "随机分为两堆，左堆", Value: fmt.Sprint(a)},
		model.Step{Description: "右堆", Value: fmt.Sprint(b)},
	)

	var taken, other int
	if rng.Intn(2) == 0 {
		op.FromLeft = true
		taken, other = a-1, b
	} else {
		taken, other = b-1, a
	}
	side := "右堆"
	if op.FromLeft {
		side = "左堆"
	}
	op.Steps = append(op.Steps, model.Step{Description: "挂一：随机取一堆减一，" + side + "余", Value: fmt.Sprint(taken)})

	r1 := remainder(other)
	r2 := remainder(taken)
	op.Remainder = [2]int{r1, r2}
	op.Steps = append(op.Steps, model.Step{Description: "揲四：两堆各除以 4 取余（余 0 记 4）", Value: fmt.Sprintf("%d, %d", r1, r2)})

	op.Result = 1 + r1 + r2
	op.Steps = append(op.Steps, model.Step{Description: "归奇：1 + 两余数", Value: fmt.Sprint(op.Result)})
	return op, nil
}

func remainder(n int) int {
	r := n % pileModulus
	if r == 0 {
		return pileModulus
	}
	return r
}

// Reduction 三变的结果：三次取走的根数、剩余根数与 floor(剩余/4)。
type Reduction struct {
	Initial    int
	Operations [roundsPerLine]int
	Remaining  int
	Result     int
	Steps      []model.Step
}

// Reduce 三变：每变在上一变剩余的根数上进行，最后剩余根数除以 4 向下取整。
func Reduce(rng Rand, initialSticks int) (Reduction, error) {
	if initialSticks < MinSticks {
		return Reduction{}, fmt.Errorf("%w: start %d, need at least %d", ErrTooFewSticks, initialSticks, MinSticks)
	}
	red := Reduction{Initial: initialSticks}
	red.Steps = append(red.Steps, model.Step{Description: "起始根数", Value: fmt.Sprint(initialSticks)})

	sticks := initialSticks
	for i := 0; i < roundsPerLine; i++ {
		op, err := Divide(rng, sticks)
		if err != nil {
			return red, fmt.Errorf("round %d: %w", i+1, err)
		}
		red.Steps = append(red.Steps, model.Step{
			Description: fmt.Sprintf("第%d变", i+1),
			Value:       fmt.Sprintf("取走%d根，剩余%d根", op.Result, sticks-op.Result),
		})
		red.Steps = append(red.Steps, op.Steps...)
		red.Operations[i] = op.Result
		sticks -= op.Result
	}

	red.Remaining = sticks
	red.Result = floorDiv(sticks, pileModulus)
	red.Steps = append(red.Steps, model.Step{Description: "剩余根数除以 4", Value: fmt.Sprint(red.Result)})
	return red, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// GenerateLine 从 49 根起三变成一爻；结果不在 6-9 之内时返回 LineInvalid（正确实现不会出现）。
func GenerateLine(rng Rand, position int) model.Line {
	line := model.Line{Position: position}
	red, err := Reduce(rng, InitialSticks)
	line.Steps = red.Steps
	if err != nil {
		line.Value = model.LineInvalid
		line.Steps = append(line.Steps, model.Step{Description: "推演失败", Value: err.Error()})
		return line
	}
	switch v := model.LineValue(red.Result); v {
	case model.OldYin, model.YoungYang, model.YoungYin, model.OldYang:
		line.Value = v
	default:
		line.Value = model.LineInvalid
	}
	line.Steps = append(line.Steps, model.Step{Description: "定爻", Value: line.Value.Name()})
	return line
}
