// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
)

// Service はユーザー管理のサービス層。
// 管理者によるユーザー一覧の取得とロール変更を提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// ChangeRole はユーザーのロールを変更し、変更後のユーザーを返す。
// 未定義のロールの場合は不正な入力エラー、ユーザーが存在しない場合は USER_NOT_FOUND を返す。
func (s *Service) ChangeRole(ctx context.Context, userID, role string) (*model.User, error) {
	newRole, ok := model.ParseRole(role)
	if !ok {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("不明なロールです: %s", role))
	}

	updated, err := s.userRepo.UpdateRole(ctx, userID, newRole)
	if err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewUserNotFoundError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("ユーザーのロールを変更しました",
		slog.String("user_id", userID),
		slog.String("role", string(newRole)),
	)
	return user, nil
}
