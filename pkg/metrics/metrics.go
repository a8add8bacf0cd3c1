// Package metrics 在统一指标注册表之上定义策略计算、缓存与回退指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	wmetrics "github.com/wyfcoding/pkg/metrics"
)

// Metrics 业务指标集合。所有记录方法对 nil 接收者安全，未启用指标时可直接传 nil。
type Metrics struct {
	base *wmetrics.Metrics

	// 策略计算次数，按策略类型与数据来源分组
	CalculationsTotal *prometheus.CounterVec
	// 策略计算耗时（仅统计未命中缓存的计算）
	CalculationDuration *prometheus.HistogramVec
	// 结果缓存查询，result 取 hit / miss
	CacheLookups *prometheus.CounterVec
	// 单腿估算次数，按原因分组（no_quote / timeout / no_price）
	LegEstimates *prometheus.CounterVec
	// 整体回退次数
	FullFallbacks *prometheus.CounterVec
	// 行情获取耗时，按结果分组
	QuoteFetchDuration *prometheus.HistogramVec
}

// New 创建统一注册表并注册业务指标
func New(serviceName string) *Metrics {
	base := wmetrics.NewMetrics(serviceName)
	m := &Metrics{base: base}

	m.CalculationsTotal = base.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trading",
		Subsystem: serviceName,
		Name:      "strategy_calculations_total",
		Help:      "Total strategy calculations by strategy type and data source",
	}, []string{"strategy", "data_source"})

	m.CalculationDuration = base.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trading",
		Subsystem: serviceName,
		Name:      "strategy_calculation_duration_seconds",
		Help:      "Strategy calculation duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"strategy"})

	m.CacheLookups = base.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trading",
		Subsystem: serviceName,
		Name:      "strategy_cache_lookups_total",
		Help:      "Strategy result cache lookups by result",
	}, []string{"result"})

	m.LegEstimates = base.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trading",
		Subsystem: serviceName,
		Name:      "strategy_leg_estimates_total",
		Help:      "Legs priced by the model instead of a live quote",
	}, []string{"reason"})

	m.FullFallbacks = base.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trading",
		Subsystem: serviceName,
		Name:      "strategy_full_fallbacks_total",
		Help:      "Calculations recomputed with model estimates after a quote source failure",
	}, []string{"strategy"})

	m.QuoteFetchDuration = base.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trading",
		Subsystem: serviceName,
		Name:      "quote_fetch_duration_seconds",
		Help:      "Quote fetch latency by outcome",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	return m
}

// Base 返回统一注册表，供熔断器等公共组件注册指标；nil 接收者返回 nil
func (m *Metrics) Base() *wmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.base
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return m.base.Handler()
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.base.HttpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.base.HttpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCalculation 记录一次完成的策略计算
func (m *Metrics) RecordCalculation(strategy, dataSource string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CalculationsTotal.WithLabelValues(strategy, dataSource).Inc()
	m.CalculationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// RecordLegEstimate 记录单腿估算
func (m *Metrics) RecordLegEstimate(reason string) {
	if m == nil {
		return
	}
	m.LegEstimates.WithLabelValues(reason).Inc()
}

// RecordFullFallback 记录整体回退
func (m *Metrics) RecordFullFallback(strategy string) {
	if m == nil {
		return
	}
	m.FullFallbacks.WithLabelValues(strategy).Inc()
}

// RecordQuoteFetch 记录行情获取耗时
func (m *Metrics) RecordQuoteFetch(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.QuoteFetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
