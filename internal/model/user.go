// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
// ロール間に上下関係はなく、認可は許可ロール集合への所属で判定する。
type Role string

const (
	// RoleAdmin は管理者。ユーザー管理を含む全操作が可能。
	RoleAdmin Role = "admin"
	// RoleManager はマネージャー。資産・アラートの管理が可能。
	RoleManager Role = "manager"
	// RoleFieldWorker は現場作業員（veldwerker）。閲覧・確認・計測値の送信のみ可能。
	RoleFieldWorker Role = "veldwerker"
)

// AllRoles は定義済みの全ロールを返す。
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleFieldWorker}
}

// Valid はロールが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleFieldWorker:
		return true
	default:
		return false
	}
}

// ParseRole は文字列をRoleに変換する。未定義の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// User はダッシュボードの利用者を表す。
// PasswordHashは外部IdP経由で作成されたユーザーでは空になる。
type User struct {
	ID           string
	Email        string
	Name         string
	Picture      *string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// HasPassword はパスワードログインが可能なユーザーかどうかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Session はユーザーのログインセッションを表す。
// Tokenは発行直後のみ保持され、永続化されるのはTokenHashのみ。
type Session struct {
	Token     string
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt は指定時刻においてセッションが期限切れかどうかを返す。
// 有効期限ちょうどの時刻は期限切れとして扱う。
func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
