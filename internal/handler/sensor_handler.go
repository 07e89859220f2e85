package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/sensor"
)

// SensorServiceInterface はセンサーハンドラーが必要とするサービスインターフェース。
type SensorServiceInterface interface {
	Live(ctx context.Context, assetID string) (*model.SensorSnapshot, error)
	Ingest(ctx context.Context, in sensor.ReadingInput) (*sensor.IngestResult, error)
	History(ctx context.Context, assetID string, limit int) ([]*model.SensorReading, error)
}

// SensorHandler はセンサーデータのHTTPハンドラー。
type SensorHandler struct {
	service SensorServiceInterface
}

// NewSensorHandler はSensorHandlerを生成する。
func NewSensorHandler(service SensorServiceInterface) *SensorHandler {
	return &SensorHandler{service: service}
}

type sensorValueResponse struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Status string  `json:"status"`
}

type liveSensorResponse struct {
	AssetID   string                         `json:"asset_id"`
	Timestamp time.Time                      `json:"timestamp"`
	Sensors   map[string]sensorValueResponse `json:"sensors"`
}

type readingResponse struct {
	ReadingID  string    `json:"reading_id"`
	AssetID    string    `json:"asset_id"`
	Sensor     string    `json:"sensor"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

type ingestResponse struct {
	Reading readingResponse `json:"reading"`
	Alert   *alertResponse  `json:"alert"`
}

// Live は資産のセンサー計測値のスナップショットを返す。
// GET /api/sensors/live/{asset_id}
func (h *SensorHandler) Live(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Live(r.Context(), chi.URLParam(r, "asset_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	sensors := make(map[string]sensorValueResponse, len(snapshot.Sensors))
	for kind, v := range snapshot.Sensors {
		sensors[string(kind)] = sensorValueResponse{
			Value:  v.Value,
			Unit:   v.Unit,
			Status: string(v.Status),
		}
	}
	writeJSON(w, http.StatusOK, liveSensorResponse{
		AssetID:   snapshot.AssetID,
		Timestamp: snapshot.Timestamp,
		Sensors:   sensors,
	})
}

// IngestReading は計測値を受信する。
// POST /api/sensors/readings
func (h *SensorHandler) IngestReading(w http.ResponseWriter, r *http.Request) {
	var in sensor.ReadingInput
	if err := decodeJSON(r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Ingest(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := ingestResponse{Reading: toReadingResponse(result.Reading)}
	if result.Alert != nil {
		a := toAlertResponse(result.Alert)
		resp.Alert = &a
	}
	writeJSON(w, http.StatusCreated, resp)
}

// History は資産の計測値履歴を新しい順に返す。
// GET /api/sensors/{asset_id}/history?limit=50
func (h *SensorHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			handleServiceError(w, r, model.NewInvalidRequestError("limitは整数で指定してください"))
			return
		}
		limit = n
	}

	readings, err := h.service.History(r.Context(), chi.URLParam(r, "asset_id"), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]readingResponse, 0, len(readings))
	for _, rd := range readings {
		resp = append(resp, toReadingResponse(rd))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toReadingResponse(rd *model.SensorReading) readingResponse {
	return readingResponse{
		ReadingID:  rd.ID,
		AssetID:    rd.AssetID,
		Sensor:     string(rd.Sensor),
		Value:      rd.Value,
		Unit:       rd.Unit,
		Status:     string(rd.Status),
		RecordedAt: rd.RecordedAt,
	}
}
