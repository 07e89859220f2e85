package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/digitaldelta/internal/analytics"
)

// AnalyticsServiceInterface は集計ハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	Overview(ctx context.Context) (*analytics.Overview, error)
	MaintenanceForecast(ctx context.Context) ([]analytics.ForecastEntry, error)
}

// AnalyticsHandler はダッシュボード集計のHTTPハンドラー。
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

type overviewResponse struct {
	TotalAssets        int            `json:"total_assets"`
	ActiveAlerts       int            `json:"active_alerts"`
	AverageHealthScore float64        `json:"average_health_score"`
	StatusDistribution map[string]int `json:"status_distribution"`
	TypeDistribution   map[string]int `json:"type_distribution"`
}

type forecastEntryResponse struct {
	AssetID       string    `json:"asset_id"`
	AssetName     string    `json:"asset_name"`
	AssetType     string    `json:"asset_type"`
	ScheduledDate time.Time `json:"scheduled_date"`
	DaysUntil     int       `json:"days_until"`
	HealthScore   int       `json:"health_score"`
}

type forecastResponse struct {
	Forecast       []forecastEntryResponse `json:"forecast"`
	TotalScheduled int                     `json:"total_scheduled"`
}

// Overview はダッシュボードの概要集計を返す。
// GET /api/analytics/overview
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Overview(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := overviewResponse{
		TotalAssets:        o.TotalAssets,
		ActiveAlerts:       o.ActiveAlerts,
		AverageHealthScore: o.AverageHealthScore,
		StatusDistribution: make(map[string]int, len(o.StatusDistribution)),
		TypeDistribution:   make(map[string]int, len(o.TypeDistribution)),
	}
	for k, v := range o.StatusDistribution {
		resp.StatusDistribution[string(k)] = v
	}
	for k, v := range o.TypeDistribution {
		resp.TypeDistribution[string(k)] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

// MaintenanceForecast は今後90日間の保守予定を日付順に返す。
// GET /api/analytics/maintenance-forecast
func (h *AnalyticsHandler) MaintenanceForecast(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.MaintenanceForecast(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	forecast := make([]forecastEntryResponse, 0, len(entries))
	for _, e := range entries {
		forecast = append(forecast, forecastEntryResponse{
			AssetID:       e.AssetID,
			AssetName:     e.AssetName,
			AssetType:     string(e.AssetType),
			ScheduledDate: e.ScheduledDate,
			DaysUntil:     e.DaysUntil,
			HealthScore:   e.HealthScore,
		})
	}
	writeJSON(w, http.StatusOK, forecastResponse{
		Forecast:       forecast,
		TotalScheduled: len(forecast),
	})
}
