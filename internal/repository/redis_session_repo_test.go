package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/digitaldelta/internal/model"
)

func setupRedisSessionRepo(t *testing.T) (*RedisSessionRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionRepo(client), mr
}

func newRedisTestSession(tokenHash, userID string, expiresIn time.Duration) *model.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Session{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: now.Add(expiresIn),
		CreatedAt: now,
	}
}

func TestRedisSessionRepo_CreateAndFind(t *testing.T) {
	repo, mr := setupRedisSessionRepo(t)
	ctx := context.Background()
	session := newRedisTestSession("hash-1", "user-1", time.Hour)

	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hash-1", got.TokenHash)
	assert.Equal(t, "user-1", got.UserID)
	assert.True(t, got.ExpiresAt.Equal(session.ExpiresAt), "ExpiresAt = %v, want %v", got.ExpiresAt, session.ExpiresAt)
	assert.True(t, got.CreatedAt.Equal(session.CreatedAt))
	assert.Empty(t, got.Token, "plaintext token must never be stored")

	members, err := mr.SMembers(userSessionsKey("user-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"hash-1"}, members)
}

func TestRedisSessionRepo_Create_SetsTTLWithGrace(t *testing.T) {
	repo, mr := setupRedisSessionRepo(t)
	session := newRedisTestSession("hash-1", "user-1", time.Hour)

	require.NoError(t, repo.Create(context.Background(), session))

	want := time.Hour + redisExpiryGrace
	ttl := mr.TTL(sessionKey("hash-1"))
	assert.LessOrEqual(t, ttl, want)
	assert.Greater(t, ttl, want-time.Minute)
	assert.Greater(t, mr.TTL(userSessionsKey("user-1")), time.Duration(0))
}

func TestRedisSessionRepo_ExpiredSessionKeptDuringGrace(t *testing.T) {
	repo, mr := setupRedisSessionRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newRedisTestSession("hash-1", "user-1", time.Minute)))

	mr.FastForward(2 * time.Minute)
	got, err := repo.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got, "expired session should still be found within the grace period")
	assert.True(t, got.ExpiredAt(time.Now().Add(2*time.Minute)))

	mr.FastForward(redisExpiryGrace)
	got, err = repo.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionRepo_Create_DuplicateTokenHash(t *testing.T) {
	repo, mr := setupRedisSessionRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newRedisTestSession("hash-1", "user-1", time.Hour)))

	err := repo.Create(ctx, newRedisTestSession("hash-1", "user-2", time.Hour))
	assert.True(t, errors.Is(err, ErrDuplicateSession), "got %v", err)

	got, err := repo.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.False(t, mr.Exists(userSessionsKey("user-2")))
}

func TestRedisSessionRepo_FindByTokenHash_NotFound(t *testing.T) {
	repo, _ := setupRedisSessionRepo(t)

	got, err := repo.FindByTokenHash(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionRepo_FindByTokenHash_CorruptPayload(t *testing.T) {
	repo, mr := setupRedisSessionRepo(t)
	require.NoError(t, mr.Set(sessionKey("hash-1"), "not-json"))

	_, err := repo.FindByTokenHash(context.Background(), "hash-1")
	assert.Error(t, err)
}

func TestRedisSessionRepo_DeleteByTokenHash(t *testing.T) {
	repo, mr := setupRedisSessionRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newRedisTestSession("hash-1", "user-1", time.Hour)))
	require.NoError(t, repo.Create(ctx, newRedisTestSession("hash-2", "user-1", time.Hour)))

	require.NoError(t, repo.DeleteByTokenHash(ctx, "hash-1"))

	got, err := repo.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(sessionKey("hash-1")))

	members, err := mr.SMembers(userSessionsKey("user-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"hash-2"}, members)

	// 存在しないトークンの削除も成功する
	assert.NoError(t, repo.DeleteByTokenHash(ctx, "hash-1"))
	assert.NoError(t, repo.DeleteByTokenHash(ctx, "never-existed"))
}

func TestRedisSessionRepo_DeleteByUserID_RemovesOnlyThatUser(t *testing.T) {
	repo, mr := setupRedisSessionRepo(t)
	ctx := context.Background()
	for _, s := range []*model.Session{
		newRedisTestSession("hash-1", "user-1", time.Hour),
		newRedisTestSession("hash-2", "user-1", time.Hour),
		newRedisTestSession("hash-3", "user-2", time.Hour),
	} {
		require.NoError(t, repo.Create(ctx, s))
	}

	require.NoError(t, repo.DeleteByUserID(ctx, "user-1"))

	for _, h := range []string{"hash-1", "hash-2"} {
		got, err := repo.FindByTokenHash(ctx, h)
		require.NoError(t, err)
		assert.Nil(t, got, "session %s should be deleted", h)
	}
	assert.False(t, mr.Exists(userSessionsKey("user-1")))

	other, err := repo.FindByTokenHash(ctx, "hash-3")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, "user-2", other.UserID)

	// セッションを持たないユーザーでも成功する
	assert.NoError(t, repo.DeleteByUserID(ctx, "user-without-sessions"))
}

func TestRedisSessionRepo_DeleteExpired_IsNoOp(t *testing.T) {
	repo, _ := setupRedisSessionRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newRedisTestSession("hash-1", "user-1", -time.Minute)))

	n, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err := repo.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
