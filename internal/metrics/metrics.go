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
// 認証サービスやHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(result string)
	RecordExchange(result string)
	RecordSessionIssued()
	RecordSessionRevoked()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(route string, duration time.Duration)
	RecordSessionsSwept(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginTotal      *prometheus.CounterVec
	exchangeTotal   *prometheus.CounterVec
	sessionsIssued  prometheus.Counter
	sessionsRevoked prometheus.Counter
	sessionsSwept   prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digitaldelta_login_total",
			Help: "パスワードログインの試行数（結果別）",
		}, []string{"result"}),
		exchangeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digitaldelta_identity_exchange_total",
			Help: "外部IdPとのセッション交換の試行数（結果別）",
		}, []string{"result"}),
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "digitaldelta_sessions_issued_total",
			Help: "発行されたセッションの合計数",
		}),
		sessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "digitaldelta_sessions_revoked_total",
			Help: "失効させたセッションの合計数",
		}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "digitaldelta_sessions_swept_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digitaldelta_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digitaldelta_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.loginTotal,
		c.exchangeTotal,
		c.sessionsIssued,
		c.sessionsRevoked,
		c.sessionsSwept,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.loginTotal.WithLabelValues(result).Inc()
}

// RecordExchange は外部IdPとの交換結果を記録する。
func (c *Collector) RecordExchange(result string) {
	c.exchangeTotal.WithLabelValues(result).Inc()
}

// RecordSessionIssued はセッション発行を記録する。
func (c *Collector) RecordSessionIssued() {
	c.sessionsIssued.Inc()
}

// RecordSessionRevoked はセッション失効を記録する。
func (c *Collector) RecordSessionRevoked() {
	c.sessionsRevoked.Inc()
}

// RecordSessionsSwept はクリーンアップで削除したセッション数を記録する。
func (c *Collector) RecordSessionsSwept(count int64) {
	c.sessionsSwept.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はルートパターン別のリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(route string, duration time.Duration) {
	c.requestLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
