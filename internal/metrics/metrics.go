package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 定价服务指标
var (
	HTTPDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_http_request_duration_seconds",
		Help:    "HTTP 请求耗时",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	HTTPActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_http_active_requests",
		Help: "处理中的 HTTP 请求数",
	})

	Calculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_calculations_total",
		Help: "价格计算次数",
	}, []string{"view", "channel_type"})

	IndexCacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_index_cache_total",
		Help: "规则索引缓存命中情况",
	}, []string{"result"})

	BatchItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_batch_items_total",
		Help: "批量保存明细处理结果",
	}, []string{"status"})
)

// Handler 返回 Prometheus 抓取端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCalculation 记录一次价格计算
func ObserveCalculation(view, channelType string) {
	if channelType == "" {
		channelType = "unknown"
	}
	Calculations.WithLabelValues(view, channelType).Inc()
}

// ObserveIndexCache 记录规则索引缓存命中或未命中
func ObserveIndexCache(hit bool) {
	if hit {
		IndexCacheOperations.WithLabelValues("hit").Inc()
		return
	}
	IndexCacheOperations.WithLabelValues("miss").Inc()
}
