package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// redisExpiryGrace は有効期限を過ぎたセッションキーを保持する猶予期間。
// 猶予期間中は期限切れとして識別でき、経過後はキー自体が消える。
const redisExpiryGrace = 24 * time.Hour

// RedisSessionRepo はRedisを使用したセッションリポジトリ。
// session:<token_hash> にセッション本体を、user_sessions:<user_id> に
// ユーザーごとのトークンハッシュ集合を保持する。
type RedisSessionRepo struct {
	client redis.Cmdable
}

// NewRedisSessionRepo はRedisSessionRepoを生成する。
func NewRedisSessionRepo(client redis.Cmdable) *RedisSessionRepo {
	return &RedisSessionRepo{client: client}
}

type redisSession struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func sessionKey(tokenHash string) string {
	return "session:" + tokenHash
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

// Create はセッションを作成する。
func (r *RedisSessionRepo) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(redisSession{
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt) + redisExpiryGrace
	if ttl < time.Second {
		ttl = time.Second
	}
	created, err := r.client.SetNX(ctx, sessionKey(session.TokenHash), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !created {
		return ErrDuplicateSession
	}

	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.TokenHash)
	// 最後に作成されたセッションが最も長く生存するため、集合のTTLはそれに合わせる
	pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}
	return nil
}

// FindByTokenHash はトークンハッシュでセッションを取得する。見つからない場合はnilを返す。
func (r *RedisSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &model.Session{
		TokenHash: tokenHash,
		UserID:    stored.UserID,
		ExpiresAt: stored.ExpiresAt.UTC(),
		CreatedAt: stored.CreatedAt.UTC(),
	}, nil
}

// DeleteByTokenHash は指定セッションを削除する。存在しない場合も成功とする。
func (r *RedisSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	session, err := r.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(tokenHash))
	pipe.SRem(ctx, userSessionsKey(session.UserID), tokenHash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *RedisSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	setKey := userSessionsKey(userID)
	hashes, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, sessionKey(h))
	}
	keys = append(keys, setKey)

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpired はRedisではキーのTTLで失効させるため何もしない。
func (r *RedisSessionRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// compile-time interface check
var _ SessionRepository = (*RedisSessionRepo)(nil)
