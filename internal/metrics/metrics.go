// Package metrics 提供 Prometheus 监控指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cleannft"

// 投递指标
var (
	// WasteEventsTotal 投递事件总数
	WasteEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waste_events_total",
			Help:      "投递事件总数",
		},
		[]string{"source", "result"}, // result: created, duplicate, rejected
	)

	// WasteEventWeight 投递重量分布
	WasteEventWeight = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "waste_event_weight_grams",
			Help:      "单次投递重量(克)",
			Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000},
		},
	)

	// PointsAwardedTotal 发放积分总数
	PointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "发放积分总数",
		},
		[]string{"reason_code"},
	)
)

// NFT 指标
var (
	// NftClaimsTotal NFT 认领总数
	NftClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nft_claims_total",
			Help:      "NFT 认领总数",
		},
		[]string{"status"}, // pending, completed, failed
	)
)

// 结算指标
var (
	// OutboxEventsTotal 处理的 outbox 事件总数
	OutboxEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "处理的 outbox 事件总数",
		},
		[]string{"event_type", "result"}, // result: confirmed, failed
	)

	// OutboxPendingGauge 待处理 outbox 事件数量
	OutboxPendingGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_pending_total",
			Help:      "当前待处理 outbox 事件数量",
		},
	)

	// SettlementDuration 单事件结算耗时
	SettlementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "单事件结算耗时(秒)",
			Buckets:   []float64{0.1, 0.5, 1, 2, 3, 5, 10, 30},
		},
		[]string{"event_type"},
	)
)

// HTTP 指标
var (
	// HTTPRequestsTotal HTTP 请求总数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时(秒)",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)
)

// 任务指标
var (
	// JobRunsTotal 定时任务执行总数
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "定时任务执行总数",
		},
		[]string{"job", "result"}, // result: success, failed, skipped
	)

	// DevicesGauge 按状态统计的设备数
	DevicesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices_total",
			Help:      "按状态统计的设备数",
		},
		[]string{"status"},
	)
)
