// Package worker 提供起卦任务池：每个任务推演一爻（大衍筮法），并发执行后写入 results。
package worker

import (
	"context"
	"math/rand"
	"sync"

	"yijing/internal/dayan"
	"yijing/internal/model"
	"yijing/internal/trace"
)

const defaultConcurrency = 6

// Job 推演第 Position 爻，Seed 决定该爻的全部随机抽取。
type Job struct {
	Position int
	Seed     int64
}

// Generator 由随机源推演一爻，默认 dayan.GenerateLine。
type Generator func(rng dayan.Rand, position int) model.Line

// Config 控制并发数、推演函数与每爻完成时的回调。
type Config struct {
	Concurrency int
	Generate    Generator
}

func DefaultConfig() Config {
	return Config{Concurrency: defaultConcurrency, Generate: dayan.GenerateLine}
}

// Pool 从 jobs 取任务，每个任务用独立的 *rand.Rand（非并发安全），结果写入 results。
type Pool struct {
	cfg  Config
	jobs <-chan Job
	out  chan<- model.Line
}

func NewPool(cfg Config, jobs <-chan Job, results chan<- model.Line) *Pool {
	if jobs == nil || results == nil {
		panic("worker: jobs and results channels must not be nil")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Generate == nil {
		cfg.Generate = dayan.GenerateLine
	}
	return &Pool{cfg: cfg, jobs: jobs, out: results}
}

// Run 阻塞直到 jobs 关闭或 ctx 取消，返回前关闭 results。
func (p *Pool) Run(ctx context.Context) {
	trace.Debug(ctx, "worker: Pool.Run start concurrency=%d", p.cfg.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
	wg.Wait()
	close(p.out)
	trace.Debug(ctx, "worker: Pool.Run done")
}

func (p *Pool) runWorker(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			line := p.cfg.Generate(rand.New(rand.NewSource(job.Seed)), job.Position)
			trace.Debug(ctx, "worker: %d line=%d value=%d", workerID, line.Position, int(line.Value))
			select {
			case <-ctx.Done():
				return
			case p.out <- line:
			}
		}
	}
}

// Lines 把 jobs 全部交给一个新池处理，按完成顺序回调 observe（可为 nil），
// 返回按完成顺序收集的爻。ctx 取消时返回已完成的部分与 ctx.Err()。
func Lines(ctx context.Context, cfg Config, jobs []Job, observe func(model.Line)) ([]model.Line, error) {
	in := make(chan Job, len(jobs))
	results := make(chan model.Line, len(jobs))
	for _, j := range jobs {
		in <- j
	}
	close(in)
	pool := NewPool(cfg, in, results)
	go pool.Run(ctx)

	out := make([]model.Line, 0, len(jobs))
	for l := range results {
		out = append(out, l)
		if observe != nil {
			observe(l)
		}
	}
	if len(out) < len(jobs) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
	}
	return out, nil
}
