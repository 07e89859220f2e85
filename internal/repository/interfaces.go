// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合は ErrDuplicateEmail を返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile は表示名とアバター画像URLのみを更新する。IDとロールは変更しない。
	UpdateProfile(ctx context.Context, id, name string, picture *string) error

	// UpdateRole はユーザーのロールを更新する。該当ユーザーが存在しない場合はfalseを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (bool, error)

	// List は全ユーザーを作成日時の降順で返す。
	List(ctx context.Context) ([]*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションはトークンのSHA-256ハッシュをキーとして保存する。
type SessionRepository interface {
	// Create はセッションを作成する。session.TokenHashが設定されている必要がある。
	Create(ctx context.Context, session *model.Session) error

	// FindByTokenHash はトークンハッシュでセッションを取得する。見つからない場合はnilを返す。
	// 期限切れのセッションも返す。期限の判定は呼び出し側で行う。
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)

	// DeleteByTokenHash は指定セッションを削除する。存在しない場合も成功とする。
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired は指定時刻時点で期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AssetRepository はインフラ資産データの永続化インターフェース。
type AssetRepository interface {
	// FindByID は指定IDの資産を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Asset, error)

	// List は条件に一致する資産を名前順で返す。
	List(ctx context.Context, filter model.AssetFilter) ([]*model.Asset, error)

	// Create は資産を作成する。
	Create(ctx context.Context, asset *model.Asset) error

	// Update は資産を更新する。該当資産が存在しない場合はfalseを返す。
	Update(ctx context.Context, asset *model.Asset) (bool, error)

	// Delete は資産を削除する。該当資産が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// Count は資産の総数を返す。
	Count(ctx context.Context) (int, error)
}

// AlertRepository はアラートデータの永続化インターフェース。
type AlertRepository interface {
	// FindByID は指定IDのアラートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Alert, error)

	// List はアラートを作成日時の降順で返す。statusが空の場合は全件を返す。
	List(ctx context.Context, status model.AlertStatus) ([]*model.Alert, error)

	// Create はアラートを作成する。
	Create(ctx context.Context, alert *model.Alert) error

	// UpdateStatus はアラートの状態と確認・解決情報を更新する。
	// expectedの状態から変更された場合はfalseを返す。
	UpdateStatus(ctx context.Context, alert *model.Alert, expected model.AlertStatus) (bool, error)

	// CountByStatus は指定状態のアラート数を返す。
	CountByStatus(ctx context.Context, status model.AlertStatus) (int, error)
}

// SensorReadingRepository はセンサー計測値の永続化インターフェース。
type SensorReadingRepository interface {
	// Create は計測値を保存する。
	Create(ctx context.Context, reading *model.SensorReading) error

	// ListByAsset は資産の計測値を新しい順に最大limit件返す。
	ListByAsset(ctx context.Context, assetID string, limit int) ([]*model.SensorReading, error)
}

// ContactRepository は問い合わせデータの永続化インターフェース。
type ContactRepository interface {
	// Create は問い合わせを保存する。
	Create(ctx context.Context, req *model.ContactRequest) error

	// List は問い合わせを新しい順に返す。
	List(ctx context.Context) ([]*model.ContactRequest, error)
}

// StatusCheckRepository は疎通確認記録の永続化インターフェース。
type StatusCheckRepository interface {
	// Create は疎通確認記録を保存する。
	Create(ctx context.Context, check *model.StatusCheck) error

	// List は疎通確認記録を新しい順に返す。
	List(ctx context.Context) ([]*model.StatusCheck, error)
}
