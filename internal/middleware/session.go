// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/digitaldelta/internal/auth"
	"github.com/hitoshi/digitaldelta/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// UserResolver はセッショントークンからユーザーを解決するインターフェース。
// auth.Managerが満たす。
type UserResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// NewSessionMiddleware はsession_token Cookie、なければ Authorization: Bearer ヘッダーから
// トークンを読み取り、セッションを検証するミドルウェアを返す。
// 認証済みユーザーをリクエストコンテキストに注入する。
// トークンがない、または無効な場合は401、期限切れの場合は SESSION_EXPIRED の401を返す。
func NewSessionMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				WriteError(w, r, model.NewUnauthenticatedError())
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireRole は認証済みユーザーのロールが許可リストに含まれることを要求するミドルウェアを返す。
// SessionMiddlewareの後に配置する。許可されない場合は403を返す。
func RequireRole(allowed ...model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			if _, err := auth.Require(user, allowed...); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	user, ok := UserFromContext(ctx)
	if !ok || user.ID == "" {
		return "", errors.New("user not found in context")
	}
	return user.ID, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	if info := logInfoFromContext(ctx); info != nil && user != nil {
		info.userID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}
