package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/digitaldelta/internal/alert"
	"github.com/hitoshi/digitaldelta/internal/model"
)

// AlertServiceInterface はアラートハンドラーが必要とするサービスインターフェース。
type AlertServiceInterface interface {
	List(ctx context.Context, status string) ([]*model.Alert, error)
	Create(ctx context.Context, in alert.CreateInput) (*model.Alert, error)
	Acknowledge(ctx context.Context, alertID, userID string) (*model.Alert, error)
	Resolve(ctx context.Context, alertID, userID string) (*model.Alert, error)
}

// AlertHandler はアラート管理のHTTPハンドラー。
type AlertHandler struct {
	service AlertServiceInterface
}

// NewAlertHandler はAlertHandlerを生成する。
func NewAlertHandler(service AlertServiceInterface) *AlertHandler {
	return &AlertHandler{service: service}
}

// ListAlerts はアラート一覧を返す。
// GET /api/alerts?status=active
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		resp = append(resp, toAlertResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateAlert はアラートを作成する。
// POST /api/alerts
func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var in alert.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	a, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAlertResponse(a))
}

// AcknowledgeAlert はアラートを確認済みにする。
// PUT /api/alerts/{id}/acknowledge
func (h *AlertHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Acknowledge)
}

// ResolveAlert はアラートを解決済みにする。
// PUT /api/alerts/{id}/resolve
func (h *AlertHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Resolve)
}

func (h *AlertHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, alertID, userID string) (*model.Alert, error),
) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	a, err := apply(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAlertResponse(a))
}
