// Package metrics 汇总起卦次数、爻值分布、不变量破坏次数与外部接口耗时，供 /metrics 抓取。
// 所有方法对 nil *Metrics 安全，未启用指标时直接传 nil。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yijing/internal/model"
)

// 起卦方式
const (
	MethodDayan  = "dayan"
	MethodMeihua = "meihua"
)

// 外部接口
const (
	UpstreamLunar = "lunar"
	UpstreamAI    = "ai"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	namespace    = "yijing"
)

type Metrics struct {
	registry   *prometheus.Registry
	castings   *prometheus.CounterVec
	lineValues *prometheus.CounterVec
	violations prometheus.Counter
	upstream   *prometheus.HistogramVec
}

// New 使用独立 registry，便于测试与多实例共存。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		castings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "castings_total",
				Help:      "Total number of castings by method",
			},
			[]string{"method"},
		),
		lineValues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "line_values_total",
				Help:      "Generated line values",
			},
			[]string{"value"},
		),
		violations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invariant_violations_total",
				Help:      "Lines whose stalk count fell outside 6..9",
			},
		),
		upstream: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Duration of lunar and AI upstream calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"upstream", "outcome"},
		),
	}
	m.registry.MustRegister(
		m.castings, m.lineValues, m.violations, m.upstream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCasting(method string) {
	if m == nil {
		return
	}
	m.castings.WithLabelValues(method).Inc()
}

// ObserveLine 记录一爻；非法爻值同时计入不变量破坏。
func (m *Metrics) ObserveLine(v model.LineValue) {
	if m == nil {
		return
	}
	m.lineValues.WithLabelValues(strconv.Itoa(int(v))).Inc()
	if !v.Valid() {
		m.violations.Inc()
	}
}

// ObserveUpstream 记录一次外部调用耗时，err 非 nil 计为 error。
func (m *Metrics) ObserveUpstream(upstream string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	m.upstream.WithLabelValues(upstream, outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 导出本实例的指标；nil 时退回默认 registry。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
