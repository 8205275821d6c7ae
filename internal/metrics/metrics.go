// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/cityportal/internal/audience"
	"github.com/hitoshi/cityportal/internal/model"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア・ハンドラー・ワーカーから利用する。
type MetricsCollector interface {
	RecordPageView(pageType model.PageType)
	RecordVariant(variant audience.Variant)
	RecordPermissionDenied()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	pageViews        *prometheus.CounterVec
	variants         *prometheus.CounterVec
	permissionDenied prometheus.Counter
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	sessionsCleaned  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pageViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cityportal_page_views_total",
			Help: "ページ種別ごとの記録済み閲覧数",
		}, []string{"page_type"}),
		variants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cityportal_render_variant_total",
			Help: "描画バリアント別のレスポンス数",
		}, []string{"variant"}),
		permissionDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityportal_permission_denied_total",
			Help: "権限エラーで拒否したリクエスト数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cityportal_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cityportal_request_duration_seconds",
			Help:    "リクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityportal_sessions_cleaned_total",
			Help: "削除した期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.pageViews,
		c.variants,
		c.permissionDenied,
		c.httpStatus,
		c.requestLatency,
		c.sessionsCleaned,
	)

	return c
}

// RecordPageView はページビューの記録を数える。
func (c *Collector) RecordPageView(pageType model.PageType) {
	c.pageViews.WithLabelValues(strconv.Itoa(int(pageType))).Inc()
}

// RecordVariant は描画したバリアントを数える。
func (c *Collector) RecordVariant(variant audience.Variant) {
	c.variants.WithLabelValues(variant.String()).Inc()
}

// RecordPermissionDenied は権限エラーを数える。
func (c *Collector) RecordPermissionDenied() {
	c.permissionDenied.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSessionsCleaned は削除したセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
