package auth

import (
	"slices"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// Require はユーザーが許可ロールのいずれかを持つかを判定する。
// userがnilの場合は未認証エラー、ロールが許可集合に含まれない場合は権限不足エラーを返す。
// 許可された場合はuserをそのまま返す。
func Require(user *model.User, allowed ...model.Role) (*model.User, error) {
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}
	if !slices.Contains(allowed, user.Role) {
		return nil, model.NewForbiddenError()
	}
	return user, nil
}
