package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPMetrics はHTTPレスポンスの計測インターフェース。metrics.Collectorが満たす。
type HTTPMetrics interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(route string, duration time.Duration)
}

// NewMetricsMiddleware はステータスコードとルートパターン別の処理時間を記録するミドルウェアを返す。
// ラベルの種類を抑えるため、パスではなくchiのルートパターンを使う。
func NewMetricsMiddleware(m HTTPMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.RecordHTTPStatus(rec.statusCode)
			m.RecordRequestLatency(route, time.Since(start))
		})
	}
}
