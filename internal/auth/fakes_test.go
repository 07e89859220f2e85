package auth

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
)

// --- インメモリ実装 ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, id, name string, picture *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Name = name
		u.Picture = picture
	}
	return nil
}

func (r *memUserRepo) UpdateRole(_ context.Context, id string, role model.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return false, nil
	}
	u.Role = role
	return true, nil
}

func (r *memUserRepo) List(_ context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, u := range r.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.TokenHash]; ok {
		return repository.ErrDuplicateSession
	}
	// 永続化されるのはハッシュのみ
	r.sessions[session.TokenHash] = &model.Session{
		TokenHash: session.TokenHash,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	}
	return nil
}

func (r *memSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[tokenHash]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (r *memSessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

func (r *memSessionRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, h)
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for h, s := range r.sessions {
		if s.ExpiredAt(now) {
			delete(r.sessions, h)
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) countForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

// --- モック定義 ---

type mockIdentityProvider struct {
	fetchFn func(ctx context.Context, code string) (*ExternalIdentity, error)
	calls   int
}

func (m *mockIdentityProvider) FetchSessionData(ctx context.Context, code string) (*ExternalIdentity, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, code)
	}
	return nil, nil
}

// countingHasher は照合に渡されたダイジェストを記録する。
type countingHasher struct {
	Hasher
	mu      sync.Mutex
	digests []string
}

func (h *countingHasher) Verify(plaintext, digest string) bool {
	h.mu.Lock()
	h.digests = append(h.digests, digest)
	h.mu.Unlock()
	return h.Hasher.Verify(plaintext, digest)
}

func (h *countingHasher) verified() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.digests...)
}

// fastHasher はテスト高速化のため最小コストのbcryptを使う。
func fastHasher() *BcryptHasher {
	return &BcryptHasher{cost: 4}
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*memUserRepo)(nil)
var _ repository.SessionRepository = (*memSessionRepo)(nil)
var _ IdentityProvider = (*mockIdentityProvider)(nil)
