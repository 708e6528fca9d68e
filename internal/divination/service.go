// Package divination 组合一次完整的起卦：大衍筮法六爻（worker 池并发推演）
// 与可选的梅花易数时间起卦（农历查询）同时进行，汇总为 Reading。
package divination

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"yijing/internal/ai"
	"yijing/internal/dayan"
	"yijing/internal/hexagram"
	"yijing/internal/meihua"
	"yijing/internal/metrics"
	"yijing/internal/model"
	"yijing/internal/trace"
	"yijing/internal/worker"
)

var ErrNoLunarSource = errors.New("divination: lunar lookup not configured")

// LunarSource 按时刻查农历干支，lunar.Client 满足。
type LunarSource interface {
	Lookup(ctx context.Context, t time.Time) (model.LunarInfo, error)
}

// Request Seed 为 0 时取当前时间；At 非空时同时做时间起卦。
type Request struct {
	Seed   int64
	At     *time.Time
	OnLine func(model.Line)
}

// Reading 一次起卦的全部结果。时间起卦失败不影响六爻结果，错误记在 TimeError。
type Reading struct {
	Seed      int64             `json:"seed"`
	Casting   dayan.Casting     `json:"casting"`
	Lunar     *model.LunarInfo  `json:"lunar,omitempty"`
	Time      *meihua.Result    `json:"time,omitempty"`
	TimeError string            `json:"time_error,omitempty"`
	Groups    []model.StepGroup `json:"groups"`
}

// Subject 六爻结果作为解卦对象。
func (r Reading) Subject(question string) ai.Subject {
	return ai.Subject{
		Hexagram:    r.Casting.Hexagram,
		Changed:     r.Casting.Changed,
		MovingLines: r.Casting.MovingLines,
		Lines:       r.Casting.Values(),
		Question:    question,
	}
}

// TimeSubject 时间起卦结果作为解卦对象；没有时间起卦结果时 ok 为 false。
func (r Reading) TimeSubject(question string) (ai.Subject, bool) {
	if r.Time == nil {
		return ai.Subject{}, false
	}
	return ai.Subject{
		Hexagram:    r.Time.Hexagram,
		Changed:     r.Time.Changed,
		MovingLines: []int{r.Time.ChangingLine},
		Question:    question,
	}, true
}

type Service struct {
	lunar   LunarSource
	metrics *metrics.Metrics
	worker  worker.Config
	now     func() time.Time
}

// NewService lunar 与 m 均可为 nil。
func NewService(lunar LunarSource, m *metrics.Metrics, cfg worker.Config) *Service {
	return &Service{lunar: lunar, metrics: m, worker: cfg, now: time.Now}
}

// LineSeed 第 position 爻的种子：seed*6+position 经 splitmix64 打散，相邻 seed 的各爻互不相干。
func LineSeed(seed int64, position int) int64 {
	return int64(splitmix64(uint64(seed)*hexagram.LineCount + uint64(position)))
}

// RandomHexagrams 随机抽取 count 个互不相同的卦，同一 seed 结果相同。
func RandomHexagrams(seed int64, count int) []hexagram.Hexagram {
	return hexagram.Random(rand.New(rand.NewSource(seed)), count)
}

func splitmix64(x uint64) uint64 {
	z := x + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Cast 起卦。只有六爻推演被取消时返回错误。
func (s *Service) Cast(ctx context.Context, req Request) (Reading, error) {
	seed := req.Seed
	if seed == 0 {
		seed = s.now().UnixNano()
	}
	r := Reading{Seed: seed}
	trace.Log(ctx, "divination: cast start seed=%d time=%v", seed, req.At != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.castLines(gctx, seed, req.OnLine)
		if err != nil {
			return err
		}
		r.Casting = c
		return nil
	})
	if req.At != nil {
		at := *req.At
		g.Go(func() error {
			res, info, err := s.Time(gctx, at)
			r.Lunar = &info
			if err != nil {
				trace.Log(ctx, "divination: time path err=%v", err)
				r.TimeError = err.Error()
				return nil
			}
			r.Time = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return r, fmt.Errorf("divination: cast: %w", err)
	}

	r.Groups = append(r.Groups, r.Casting.Groups...)
	if r.Time != nil {
		r.Groups = append(r.Groups, r.Time.Group())
	}
	trace.Log(ctx, "divination: cast done hexagram=%s changed=%s moving=%v",
		hexagram.Name(r.Casting.Hexagram), hexagram.Name(r.Casting.Changed), r.Casting.MovingLines)
	return r, nil
}

func (s *Service) castLines(ctx context.Context, seed int64, onLine func(model.Line)) (dayan.Casting, error) {
	jobs := make([]worker.Job, 0, hexagram.LineCount)
	for pos := 1; pos <= hexagram.LineCount; pos++ {
		jobs = append(jobs, worker.Job{Position: pos, Seed: LineSeed(seed, pos)})
	}
	lines, err := worker.Lines(ctx, s.worker, jobs, func(l model.Line) {
		s.metrics.ObserveLine(l.Value)
		if !l.Value.Valid() {
			trace.Log(ctx, "divination: invariant violated line=%d value=%d", l.Position, int(l.Value))
		}
		if onLine != nil {
			onLine(l)
		}
	})
	if err != nil {
		return dayan.Casting{}, err
	}
	ordered := make([]model.Line, hexagram.LineCount)
	for _, l := range lines {
		ordered[l.Position-1] = l
	}
	c := dayan.Assemble(ordered)
	s.metrics.ObserveCasting(metrics.MethodDayan)
	return c, nil
}

// Time 只做梅花易数时间起卦。查询失败时 info 为占位结果。
func (s *Service) Time(ctx context.Context, at time.Time) (meihua.Result, model.LunarInfo, error) {
	if s.lunar == nil {
		return meihua.Result{}, model.LunarInfo{Error: ErrNoLunarSource.Error()}, ErrNoLunarSource
	}
	info, err := s.lunar.Lookup(ctx, at)
	if err != nil {
		return meihua.Result{}, info, fmt.Errorf("divination: lunar lookup: %w", err)
	}
	res, err := meihua.Divine(info)
	if err != nil {
		trace.Log(ctx, "divination: meihua err=%v", err)
		return res, info, err
	}
	s.metrics.ObserveCasting(metrics.MethodMeihua)
	trace.Log(ctx, "divination: time hexagram=%s changing=%d", hexagram.Name(res.Hexagram), res.ChangingLine)
	return res, info, nil
}
