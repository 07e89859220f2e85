package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットでレスポンスが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	apiErr := &model.APIError{
		Code:     "TEST_ERROR",
		Message:  "テストエラーです。",
		Category: "validation",
		Action:   "正しい値を入力してください。",
	}

	WriteErrorResponse(w, http.StatusBadRequest, apiErr)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if body.Code != "TEST_ERROR" {
		t.Errorf("code = %q, want %q", body.Code, "TEST_ERROR")
	}
	if body.Message != "テストエラーです。" {
		t.Errorf("message = %q, want %q", body.Message, "テストエラーです。")
	}
	if body.Category != "validation" {
		t.Errorf("category = %q, want %q", body.Category, "validation")
	}
	if body.Action != "正しい値を入力してください。" {
		t.Errorf("action = %q, want %q", body.Action, "正しい値を入力してください。")
	}
}

// TestStatusForCode はエラーコードとHTTPステータスの対応を検証する。
func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeEmailTaken, http.StatusConflict},
		{model.ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{model.ErrCodeUnauthenticated, http.StatusUnauthorized},
		{model.ErrCodeSessionExpired, http.StatusUnauthorized},
		{model.ErrCodeInvalidExchangeCode, http.StatusUnauthorized},
		{model.ErrCodeUserNotFound, http.StatusNotFound},
		{model.ErrCodeAssetNotFound, http.StatusNotFound},
		{model.ErrCodeAlertNotFound, http.StatusNotFound},
		{model.ErrCodeForbidden, http.StatusForbidden},
		{model.ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{model.ErrCodeValidationFailed, http.StatusUnprocessableEntity},
		{model.ErrCodeInvalidAlertTransition, http.StatusConflict},
		{model.ErrCodeCesiumTokenMissing, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := StatusForCode(tt.code); got != tt.want {
				t.Errorf("StatusForCode(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

// TestWriteError_MapsWrappedAPIError はラップされたAPIErrorもコードに応じたステータスになることを検証する。
func TestWriteError_MapsWrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/assets/x", nil)

	WriteError(w, r, fmt.Errorf("lookup: %w", model.NewAssetNotFoundError("x")))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != model.ErrCodeAssetNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeAssetNotFound)
	}
}

// TestWriteError_IncludesValidationFields はバリデーションエラーのフィールド別メッセージが返ることを検証する。
func TestWriteError_IncludesValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)

	WriteError(w, r, model.NewValidationError(map[string]string{"email": "メールアドレスの形式が正しくありません"}))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if _, ok := body.Fields["email"]; !ok {
		t.Errorf("fields should contain email: %v", body.Fields)
	}
}

// TestWriteError_UnknownErrorIsInternal は未分類のエラーが詳細を伏せた500になることを検証する。
func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)

	WriteError(w, r, errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
}

// TestErrorResponseBody_AllFieldsPresent は全フィールドがJSONレスポンスに含まれることを検証する。
func TestErrorResponseBody_AllFieldsPresent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "CODE",
		Message:  "MSG",
		Category: "CAT",
		Action:   "ACT",
	})

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	requiredFields := []string{"code", "message", "category", "action"}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing required field: %s", field)
		}
	}
	if _, ok := raw["fields"]; ok {
		t.Error("fields should be omitted when empty")
	}
}
