// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー層から利用する。
type MetricsCollector interface {
	RecordRegistration(outcome string)
	RecordLogin(outcome string)
	RecordBookingCreated()
	RecordBookingCancelled()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// 成否ラベルの値。
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations     *prometheus.CounterVec
	logins            *prometheus.CounterVec
	bookingsCreated   prometheus.Counter
	bookingsCancelled prometheus.Counter
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursebook_registrations_total",
			Help: "ユーザー登録の合計数（成否別）",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursebook_logins_total",
			Help: "ログイン試行の合計数（成否別）",
		}, []string{"outcome"}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursebook_bookings_created_total",
			Help: "予約作成の合計数",
		}),
		bookingsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursebook_bookings_cancelled_total",
			Help: "予約取消の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursebook_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coursebook_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.bookingsCreated,
		c.bookingsCancelled,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordRegistration はユーザー登録の結果を記録する。
func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordBookingCreated は予約作成を記録する。
func (c *Collector) RecordBookingCreated() {
	c.bookingsCreated.Inc()
}

// RecordBookingCancelled は予約取消を記録する。
func (c *Collector) RecordBookingCancelled() {
	c.bookingsCancelled.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
