// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, asset, alert, system
	Action   string // ユーザー向け対処方法

	// Fields はバリデーションエラー時のフィールド別メッセージ。
	Fields map[string]string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is はエラーコードが一致する場合にtrueを返す。
// errors.Is(err, model.ErrInvalidCredentials) のような比較を可能にする。
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeEmailTaken             = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	ErrCodeUnauthenticated        = "UNAUTHENTICATED"
	ErrCodeSessionExpired         = "SESSION_EXPIRED"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeInvalidExchangeCode    = "INVALID_EXCHANGE_CODE"
	ErrCodeUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeAssetNotFound          = "ASSET_NOT_FOUND"
	ErrCodeAlertNotFound          = "ALERT_NOT_FOUND"
	ErrCodeInvalidAlertTransition = "INVALID_ALERT_TRANSITION"
	ErrCodeCesiumTokenMissing     = "CESIUM_TOKEN_MISSING"
)

// errors.Is で比較するための番兵値。メッセージは比較に使用しない。
var (
	ErrInvalidRequest      = &APIError{Code: ErrCodeInvalidRequest}
	ErrEmailTaken          = &APIError{Code: ErrCodeEmailTaken}
	ErrInvalidCredentials  = &APIError{Code: ErrCodeInvalidCredentials}
	ErrUnauthenticated     = &APIError{Code: ErrCodeUnauthenticated}
	ErrSessionExpired      = &APIError{Code: ErrCodeSessionExpired}
	ErrUserNotFound        = &APIError{Code: ErrCodeUserNotFound}
	ErrForbidden           = &APIError{Code: ErrCodeForbidden}
	ErrInvalidExchangeCode = &APIError{Code: ErrCodeInvalidExchangeCode}
	ErrUpstreamUnavailable = &APIError{Code: ErrCodeUpstreamUnavailable}
	ErrValidationFailed    = &APIError{Code: ErrCodeValidationFailed}
)

// NewInvalidRequestError は不正な入力エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
func NewValidationError(fields map[string]string) *APIError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値の検証に失敗しました: %s", strings.Join(names, ", ")),
		Category: "validation",
		Action:   "各項目の入力内容を確認してください。",
		Fields:   fields,
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewSessionExpiredError はセッション期限切れエラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションの有効期限が切れています。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者に権限の付与を依頼してください。",
	}
}

// NewInvalidExchangeCodeError は外部IdPの交換コードが拒否された場合のエラーを生成する。
func NewInvalidExchangeCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidExchangeCode,
		Message:  "外部認証の交換コードが無効です。",
		Category: "auth",
		Action:   "もう一度ログインをやり直してください。",
	}
}

// NewUpstreamUnavailableError は外部IdPに到達できない場合のエラーを生成する。
func NewUpstreamUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  "外部認証サービスに接続できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewAssetNotFoundError は資産が見つからない場合のエラーを生成する。
func NewAssetNotFoundError(assetID string) *APIError {
	return &APIError{
		Code:     ErrCodeAssetNotFound,
		Message:  fmt.Sprintf("指定された資産が見つかりません: %s", assetID),
		Category: "asset",
		Action:   "資産IDを確認してください。",
	}
}

// NewAlertNotFoundError はアラートが見つからない場合のエラーを生成する。
func NewAlertNotFoundError(alertID string) *APIError {
	return &APIError{
		Code:     ErrCodeAlertNotFound,
		Message:  fmt.Sprintf("指定されたアラートが見つかりません: %s", alertID),
		Category: "alert",
		Action:   "アラートIDを確認してください。",
	}
}

// NewInvalidAlertTransitionError はアラートの状態遷移が許可されない場合のエラーを生成する。
func NewInvalidAlertTransitionError(from, to AlertStatus) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAlertTransition,
		Message:  fmt.Sprintf("アラートを %s から %s に変更できません。", from, to),
		Category: "alert",
		Action:   "アラートの現在の状態を確認してください。",
	}
}

// NewCesiumTokenMissingError はCesiumトークン未設定エラーを生成する。
func NewCesiumTokenMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeCesiumTokenMissing,
		Message:  "Cesiumトークンが設定されていません。",
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}
