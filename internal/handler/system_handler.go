package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/system"
)

// SystemServiceInterface はシステム系ハンドラーが必要とするサービスインターフェース。
type SystemServiceInterface interface {
	Info() system.Info
	Health(ctx context.Context) system.Health
	RecordStatusCheck(ctx context.Context, in system.StatusCheckInput) (*model.StatusCheck, error)
	ListStatusChecks(ctx context.Context) ([]*model.StatusCheck, error)
	CesiumToken() (string, error)
}

// SystemHandler はサービス情報、ヘルスチェック、疎通確認のHTTPハンドラー。
type SystemHandler struct {
	service SystemServiceInterface
}

// NewSystemHandler はSystemHandlerを生成する。
func NewSystemHandler(service SystemServiceInterface) *SystemHandler {
	return &SystemHandler{service: service}
}

type infoResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

type statusCheckResponse struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

type cesiumTokenResponse struct {
	Token string `json:"token"`
}

// Info はサービス名とバージョンを返す。
// GET /api/
func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	info := h.service.Info()
	writeJSON(w, http.StatusOK, infoResponse{
		Status:    info.Status,
		Service:   info.Service,
		Version:   info.Version,
		Timestamp: info.Timestamp,
	})
}

// Health はデータベースの疎通状況を返す。
// GET /api/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health(r.Context())
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    health.Status,
		Database:  health.Database,
		Timestamp: health.Timestamp,
	})
}

// CreateStatusCheck は疎通確認を記録する。
// POST /api/status
func (h *SystemHandler) CreateStatusCheck(w http.ResponseWriter, r *http.Request) {
	var in system.StatusCheckInput
	if err := decodeJSON(r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	check, err := h.service.RecordStatusCheck(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusCheckResponse(check))
}

// ListStatusChecks は疎通確認記録を返す。
// GET /api/status
func (h *SystemHandler) ListStatusChecks(w http.ResponseWriter, r *http.Request) {
	checks, err := h.service.ListStatusChecks(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]statusCheckResponse, 0, len(checks))
	for _, c := range checks {
		resp = append(resp, toStatusCheckResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CesiumToken は地図表示用のCesium Ionトークンを返す。
// GET /api/cesium/token
func (h *SystemHandler) CesiumToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.CesiumToken()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cesiumTokenResponse{Token: token})
}

func toStatusCheckResponse(c *model.StatusCheck) statusCheckResponse {
	return statusCheckResponse{
		ID:         c.ID,
		ClientName: c.ClientName,
		Timestamp:  c.Timestamp,
	}
}
