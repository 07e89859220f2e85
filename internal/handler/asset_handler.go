package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/digitaldelta/internal/asset"
	"github.com/hitoshi/digitaldelta/internal/model"
)

// AssetServiceInterface は資産ハンドラーが必要とするサービスインターフェース。
type AssetServiceInterface interface {
	List(ctx context.Context, assetType, status string) ([]*model.Asset, error)
	Get(ctx context.Context, id string) (*model.Asset, error)
	Create(ctx context.Context, in asset.Input) (*model.Asset, error)
	Update(ctx context.Context, id string, in asset.Input) (*model.Asset, error)
	Delete(ctx context.Context, id string) error
}

// SeederInterface はデモデータ投入のインターフェース。
type SeederInterface interface {
	Seed(ctx context.Context) (*asset.SeedResult, error)
}

// AssetHandler は資産管理のHTTPハンドラー。
type AssetHandler struct {
	service AssetServiceInterface
	seeder  SeederInterface
}

// NewAssetHandler はAssetHandlerを生成する。
func NewAssetHandler(service AssetServiceInterface, seeder SeederInterface) *AssetHandler {
	return &AssetHandler{
		service: service,
		seeder:  seeder,
	}
}

type seedResponse struct {
	Message string `json:"message"`
	Assets  int    `json:"assets"`
	Alerts  int    `json:"alerts"`
}

// ListAssets は資産一覧を返す。
// GET /api/assets?type=bridge&status=warning
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assets, err := h.service.List(r.Context(), q.Get("type"), q.Get("status"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		resp = append(resp, toAssetResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAsset は資産を1件返す。
// GET /api/assets/{id}
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetResponse(a))
}

// CreateAsset は資産を作成する。
// POST /api/assets
func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var in asset.Input
	if err := decodeJSON(r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	a, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssetResponse(a))
}

// UpdateAsset は資産を更新する。
// PUT /api/assets/{id}
func (h *AssetHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var in asset.Input
	if err := decodeJSON(r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	a, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetResponse(a))
}

// DeleteAsset は資産を削除する。資産に紐づくアラートも削除される。
// DELETE /api/assets/{id}
func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Seed はデモ用の資産とアラートを投入する。
// POST /api/seed
func (h *AssetHandler) Seed(w http.ResponseWriter, r *http.Request) {
	result, err := h.seeder.Seed(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{
		Message: result.Message,
		Assets:  result.Assets,
		Alerts:  result.Alerts,
	})
}
