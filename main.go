// Package main 是易经起卦程序的入口：命令行起卦（大衍筮法 / 梅花易数）、AI 解卦与 HTTP 服务。
// 配置先读 config.yaml（或 YIJING_CONFIG 指定的文件），再被 YIJING_* 环境变量覆盖。
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yijing/internal/ai"
	"yijing/internal/config"
	"yijing/internal/divination"
	"yijing/internal/lunar"
	"yijing/internal/metrics"
	"yijing/internal/trace"
	"yijing/internal/worker"
)

// 命令超时
const (
	castTimeout      = 30 * time.Second
	interpretTimeout = 5 * time.Minute
)

const timeNow = "now"

var (
	configPath string
	verbose    bool
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "yijing",
	Short:         "易经起卦：大衍筮法、梅花易数与 AI 解卦",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := trace.Init(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认 config.yaml 或 $YIJING_CONFIG）")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出 debug 日志")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app 各命令共用的依赖。
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	lunar   divination.LunarSource
	service *divination.Service
	ai      *ai.Client
	closers []func() error
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, metrics: metrics.New()}
	if cfg.Lunar.Enabled() {
		cache := lunar.NewCache(cfg.Lunar)
		if rc, ok := cache.(*lunar.RedisCache); ok {
			a.closers = append(a.closers, rc.Close)
		}
		a.lunar = lunar.NewClient(cfg.Lunar, cache, a.metrics)
	} else {
		trace.Debug(ctx, "main: lunar api key not set, time casting disabled")
	}
	if cfg.AI.Enabled() {
		a.ai = ai.NewClient(cfg.AI, a.metrics)
	}
	wc := worker.DefaultConfig()
	wc.Concurrency = cfg.Worker.Concurrency
	a.service = divination.NewService(a.lunar, a.metrics, wc)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

// parseAt 解析 --time：空串不做时间起卦，now 为当前时刻，其余按 RFC3339。
func parseAt(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil, nil
	case timeNow:
		now := time.Now()
		return &now, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid --time %q, want RFC3339 or %q", s, timeNow)
	}
	return &t, nil
}

// commandContext 每条命令一个 trace ID。
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := trace.WithTraceID(cmd.Context(), trace.NewTraceID())
	return context.WithTimeout(ctx, timeout)
}
