package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily は指定名のメトリクスファミリーを返す。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLogin_CountsByResult はログイン結果ごとにカウントされることを検証する。
func TestRecordLogin_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin("success")
	c.RecordLogin("success")
	c.RecordLogin("invalid_credentials")

	mf := findMetricFamily(t, reg, "digitaldelta_login_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "result" {
				got[lp.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if got["success"] != 2 {
		t.Errorf("success = %v, want 2", got["success"])
	}
	if got["invalid_credentials"] != 1 {
		t.Errorf("invalid_credentials = %v, want 1", got["invalid_credentials"])
	}
}

// TestRecordSessionCounters はセッション発行・失効・掃除のカウンタを検証する。
func TestRecordSessionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionIssued()
	c.RecordSessionIssued()
	c.RecordSessionRevoked()
	c.RecordSessionsSwept(5)

	tests := map[string]float64{
		"digitaldelta_sessions_issued_total":  2,
		"digitaldelta_sessions_revoked_total": 1,
		"digitaldelta_sessions_swept_total":   5,
	}
	for name, want := range tests {
		mf := findMetricFamily(t, reg, name)
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はステータスコード別に記録されることを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)

	mf := findMetricFamily(t, reg, "digitaldelta_http_status_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label sets, got %d", len(mf.GetMetric()))
	}
}

// TestRecordRequestLatency_ObservesHistogram はヒストグラムに観測値が記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency("/api/assets", 120*time.Millisecond)

	mf := findMetricFamily(t, reg, "digitaldelta_http_request_duration_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetSampleCount())
	}
	if h.GetSampleSum() < 0.119 || h.GetSampleSum() > 0.121 {
		t.Errorf("sample sum = %v, want ~0.12", h.GetSampleSum())
	}
}

// TestMultipleCollectors_IndependentRegistries は別レジストリに重複登録できることを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	NewCollector(prometheus.NewRegistry())
	NewCollector(prometheus.NewRegistry())
}


// TestHandler_ServesMetrics はスクレイプ用ハンドラーがメトリクスを返すことを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSessionIssued()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "digitaldelta_sessions_issued_total") {
		t.Error("response should contain digitaldelta_sessions_issued_total metric")
	}
}
