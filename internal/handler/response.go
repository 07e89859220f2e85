package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/digitaldelta/internal/middleware"
	"github.com/hitoshi/digitaldelta/internal/model"
)

// maxRequestBodyBytes はリクエストボディの読み込み上限。
const maxRequestBodyBytes = 1 << 20

// messageResponse は処理結果のメッセージのみを返すレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   *string   `json:"picture"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// assetResponse は資産情報のAPIレスポンス。
type assetResponse struct {
	AssetID         string     `json:"asset_id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Location        string     `json:"location"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	Status          string     `json:"status"`
	HealthScore     int        `json:"health_score"`
	LastInspection  *time.Time `json:"last_inspection"`
	NextMaintenance *time.Time `json:"next_maintenance"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// alertResponse はアラート情報のAPIレスポンス。
type alertResponse struct {
	AlertID        string     `json:"alert_id"`
	AssetID        string     `json:"asset_id"`
	AssetName      string     `json:"asset_name"`
	Type           string     `json:"type"`
	Severity       string     `json:"severity"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     *string    `json:"resolved_by,omitempty"`
}

// --- ヘルパー関数 ---

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをJSONとしてdstに読み込む。
// 空のボディや形式不正の場合は INVALID_REQUEST エラーを返す。
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewInvalidRequestError("リクエストボディが空です")
		}
		return model.NewInvalidRequestError("リクエストボディの形式が正しくありません")
	}
	return nil
}

// handleServiceError はサービス層から返されたエラーをレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// currentUser はセッションミドルウェアが注入したユーザーを返す。
// 存在しない場合は401を書き込みfalseを返す。
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, model.NewUnauthenticatedError())
		return nil, false
	}
	return user, true
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toAssetResponse(a *model.Asset) assetResponse {
	return assetResponse{
		AssetID:         a.ID,
		Name:            a.Name,
		Type:            string(a.Type),
		Location:        a.Location,
		Latitude:        a.Latitude,
		Longitude:       a.Longitude,
		Status:          string(a.Status),
		HealthScore:     a.HealthScore,
		LastInspection:  a.LastInspection,
		NextMaintenance: a.NextMaintenance,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toAlertResponse(a *model.Alert) alertResponse {
	return alertResponse{
		AlertID:        a.ID,
		AssetID:        a.AssetID,
		AssetName:      a.AssetName,
		Type:           string(a.Type),
		Severity:       string(a.Severity),
		Title:          a.Title,
		Description:    a.Description,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		AcknowledgedAt: a.AcknowledgedAt,
		AcknowledgedBy: a.AcknowledgedBy,
		ResolvedAt:     a.ResolvedAt,
		ResolvedBy:     a.ResolvedBy,
	}
}
