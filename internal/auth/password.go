package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/digitaldelta/internal/model"
)

const (
	// DefaultBcryptCost はパスワードハッシュのデフォルトのコスト。
	DefaultBcryptCost = 12

	// MaxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
	MaxPasswordBytes = 72
)

// Hasher はパスワードのハッシュ化と照合を行う。
type Hasher interface {
	// Hash は平文パスワードからソルト付きのダイジェストを生成する。
	Hash(plaintext string) (string, error)
	// Verify は平文パスワードがダイジェストと一致するかを返す。
	// ダイジェストが不正な形式の場合もfalseを返す。
	Verify(plaintext, digest string) bool
}

// BcryptHasher はbcryptによるHasher実装。
// ソルトは呼び出しごとに生成され、照合は定数時間で行われる。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costがbcryptの許容範囲外の場合はDefaultBcryptCostを使用する。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文パスワードをbcryptでハッシュ化する。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", model.NewInvalidRequestError(fmt.Sprintf("パスワードは%dバイト以下で入力してください", MaxPasswordBytes))
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文パスワードとbcryptダイジェストを照合する。
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// compile-time interface check
var _ Hasher = (*BcryptHasher)(nil)
