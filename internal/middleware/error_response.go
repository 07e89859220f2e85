package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Category string            `json:"category"`
	Action   string            `json:"action"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// statusByCode はエラーコードとHTTPステータスの対応。
var statusByCode = map[string]int{
	model.ErrCodeInvalidRequest:         http.StatusBadRequest,
	model.ErrCodeEmailTaken:             http.StatusConflict,
	model.ErrCodeInvalidCredentials:     http.StatusUnauthorized,
	model.ErrCodeUnauthenticated:        http.StatusUnauthorized,
	model.ErrCodeSessionExpired:         http.StatusUnauthorized,
	model.ErrCodeInvalidExchangeCode:    http.StatusUnauthorized,
	model.ErrCodeUserNotFound:           http.StatusNotFound,
	model.ErrCodeAssetNotFound:          http.StatusNotFound,
	model.ErrCodeAlertNotFound:          http.StatusNotFound,
	model.ErrCodeForbidden:              http.StatusForbidden,
	model.ErrCodeUpstreamUnavailable:    http.StatusBadGateway,
	model.ErrCodeValidationFailed:       http.StatusUnprocessableEntity,
	model.ErrCodeInvalidAlertTransition: http.StatusConflict,
	model.ErrCodeCesiumTokenMissing:     http.StatusInternalServerError,
}

// StatusForCode はエラーコードに対応するHTTPステータスを返す。未知のコードは500とする。
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Fields:   apiErr.Fields,
	})
}

// WriteError はサービス層のエラーをHTTPレスポンスに変換して書き込む。
// APIErrorでないエラーは詳細をログに記録し、500を返す。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteErrorResponse(w, StatusForCode(apiErr.Code), apiErr)
		return
	}
	slog.Error("unhandled service error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	WriteInternalServerError(w)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
