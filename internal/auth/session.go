package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
)

const (
	// SessionCookieName はセッショントークンを保持するCookie名。
	SessionCookieName = "session_token"

	// DefaultSessionTTL はセッションの有効期間（7日間）。
	DefaultSessionTTL = 7 * 24 * time.Hour

	// sessionTokenBytes はセッショントークンの乱数バイト数（256ビット）。
	sessionTokenBytes = 32
)

// Metrics は認証イベントの計測インターフェース。
// metrics.Collectorが満たす。
type Metrics interface {
	RecordLogin(result string)
	RecordExchange(result string)
	RecordSessionIssued()
	RecordSessionRevoked()
}

type noopMetrics struct{}

func (noopMetrics) RecordLogin(string)    {}
func (noopMetrics) RecordExchange(string) {}
func (noopMetrics) RecordSessionIssued()  {}
func (noopMetrics) RecordSessionRevoked() {}

// Manager はセッションの発行、解決、失効を管理する。
// トークンは平文で保存せず、SHA-256ハッシュをキーとして永続化する。
type Manager struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	ttl      time.Duration
	now      func() time.Time
	metrics  Metrics
}

// ManagerOption はManagerのオプション設定。
type ManagerOption func(*Manager)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithMetrics はメトリクス収集を設定する。
func WithMetrics(metrics Metrics) ManagerOption {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// NewManager はManagerを生成する。ttlが0以下の場合はDefaultSessionTTLを使用する。
func NewManager(sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration, opts ...ManagerOption) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := &Manager{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      time.Now,
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL はセッションの有効期間を返す。
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// CreateSession は新しいトークンを生成してセッションを発行する。
// 返却されるSessionのTokenのみが平文トークンを保持する。
func (m *Manager) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	return m.issue(ctx, userID, token)
}

// issue は指定トークンでセッションを永続化する。
func (m *Manager) issue(ctx context.Context, userID, token string) (*model.Session, error) {
	now := m.now().UTC()
	session := &model.Session{
		Token:     token,
		TokenHash: HashToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	m.metrics.RecordSessionIssued()
	return session, nil
}

// Resolve はトークンから現在のユーザーを解決する。
// トークンが空または未知の場合は未認証エラー、期限切れの場合はセッション期限切れエラーを返す。
func (m *Manager) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthenticatedError()
	}

	session, err := m.sessions.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthenticatedError()
	}
	if session.ExpiredAt(m.now()) {
		return nil, model.NewSessionExpiredError()
	}

	user, err := m.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// セッションが存在しないユーザーを参照している
		slog.Error("session references missing user",
			slog.String("user_id", session.UserID),
		)
		return nil, model.NewUnauthenticatedError()
	}
	return user, nil
}

// Revoke はセッションを失効させる。存在しないトークンでも成功とする。
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.sessions.DeleteByTokenHash(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.metrics.RecordSessionRevoked()
	return nil
}

// RevokeAllForUser は指定ユーザーの全セッションを失効させる。
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := m.sessions.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// HashToken はセッショントークンの保存用ハッシュ（SHA-256の16進表現）を返す。
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// generateSessionToken は暗号的に安全なセッショントークンを生成する。
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// TokenFromRequest はリクエストからセッショントークンを取り出す。
// session_token Cookieを優先し、なければ Authorization: Bearer ヘッダーを参照する。
// どちらもない場合は空文字を返す。
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}
