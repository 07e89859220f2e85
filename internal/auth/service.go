// Package auth はパスワード認証、外部IdPとのセッション交換、セッション管理、
// ロールによる認可判定を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	// Role は空の場合に現場作業員（veldwerker）となる。
	Role string
}

// Result はログイン成功時の結果。Tokenは平文のセッショントークン。
type Result struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	sessions *Manager
	hasher   Hasher
	provider IdentityProvider
	validate *validator.Validate

	// dummyDigest はユーザー不在時の照合に使うダイジェスト。初回のログイン失敗時に生成する。
	dummyOnce   sync.Once
	dummyDigest string
}

// dummyPassword はdummyDigestの生成元。どのユーザーのパスワードとも照合されない。
const dummyPassword = "digitaldelta-unknown-account"

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	sessions *Manager,
	hasher Hasher,
	provider IdentityProvider,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		provider: provider,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Sessions はセッションマネージャーを返す。
func (s *Service) Sessions() *Manager {
	return s.sessions
}

// normalizeEmail はメールアドレスを比較用に正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register はパスワードでログインするユーザーを登録する。
// メールアドレスが登録済みの場合は ErrEmailTaken に一致するエラーを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, model.NewInvalidRequestError("メールアドレスの形式が正しくありません")
	}
	if len([]rune(in.Password)) < MinPasswordLength {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("パスワードは%d文字以上で入力してください", MinPasswordLength))
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("パスワードは%dバイト以下で入力してください", MaxPasswordBytes))
	}
	if name == "" {
		return nil, model.NewInvalidRequestError("名前を入力してください")
	}

	role := model.RoleFieldWorker
	if in.Role != "" {
		r, ok := model.ParseRole(in.Role)
		if !ok {
			return nil, model.NewInvalidRequestError(fmt.Sprintf("不明なロールです: %s", in.Role))
		}
		role = r
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: digest,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 事前確認と作成の間に同じメールアドレスが登録された場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login はメールアドレスとパスワードで認証し、セッションを発行する。
// ユーザー不在とパスワード不一致はどちらも同一の ErrInvalidCredentials を返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	// ユーザー不在やパスワード未設定でも同じコストの照合を行い、応答時間を揃える
	var digest string
	if user != nil && user.PasswordHash != "" {
		digest = user.PasswordHash
	} else {
		digest = s.unknownAccountDigest()
	}
	if !s.hasher.Verify(password, digest) || user == nil || user.PasswordHash == "" {
		s.sessions.metrics.RecordLogin("invalid_credentials")
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.sessions.metrics.RecordLogin("success")
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return &Result{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *Service) unknownAccountDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			slog.Error("failed to prepare dummy password digest", slog.String("error", err.Error()))
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}

// Exchange は外部IdPの交換コードを本人情報に解決し、ローカルユーザーを作成または更新して
// セッションを発行する。既存のセッションはすべて失効させる。
func (s *Service) Exchange(ctx context.Context, code string) (*Result, error) {
	if strings.TrimSpace(code) == "" {
		return nil, model.NewInvalidRequestError("session_idが指定されていません")
	}

	identity, err := s.provider.FetchSessionData(ctx, code)
	if err != nil {
		s.sessions.metrics.RecordExchange(exchangeResultLabel(err))
		return nil, err
	}

	user, err := s.upsertExternalUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		return nil, err
	}

	var session *model.Session
	if identity.SessionToken != "" {
		session, err = s.sessions.issue(ctx, user.ID, identity.SessionToken)
		if errors.Is(err, repository.ErrDuplicateSession) {
			// IdPのトークンが他のセッションと衝突した場合はローカルで発行し直す
			slog.Warn("provider session token already in use, issuing local token",
				slog.String("user_id", user.ID),
			)
			session, err = s.sessions.CreateSession(ctx, user.ID)
		}
	} else {
		session, err = s.sessions.CreateSession(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}

	s.sessions.metrics.RecordExchange("success")
	slog.Info("user logged in via identity provider", slog.String("user_id", user.ID))
	return &Result{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// upsertExternalUser はメールアドレスでユーザーを検索し、存在すれば表示名と画像を更新し、
// 存在しなければ現場作業員として作成する。IDとロールは変更しない。
func (s *Service) upsertExternalUser(ctx context.Context, identity *ExternalIdentity) (*model.User, error) {
	email := normalizeEmail(identity.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user != nil {
		if err := s.users.UpdateProfile(ctx, user.ID, identity.Name, identity.Picture); err != nil {
			return nil, fmt.Errorf("failed to update user profile: %w", err)
		}
		user.Name = identity.Name
		user.Picture = identity.Picture
		return user, nil
	}

	user = &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      identity.Name,
		Picture:   identity.Picture,
		Role:      model.RoleFieldWorker,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// 同時に同じメールアドレスで交換された場合は作成済みのユーザーを使う
			existing, findErr := s.users.FindByEmail(ctx, email)
			if findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created via identity provider", slog.String("user_id", user.ID))
	return user, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return err
	}
	slog.Info("session revoked")
	return nil
}

// Resolve はトークンから現在のユーザーを解決する。
func (s *Service) Resolve(ctx context.Context, token string) (*model.User, error) {
	return s.sessions.Resolve(ctx, token)
}

func exchangeResultLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidExchangeCode):
		return "invalid_code"
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "error"
	}
}
