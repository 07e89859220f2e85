package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `user_id, email, name, picture, role, password_hash, created_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user         model.User
		picture      sql.NullString
		passwordHash sql.NullString
		role         string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &picture, &role, &passwordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Picture = stringPtr(picture)
	user.PasswordHash = passwordHash.String
	user.Role = model.Role(role)
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// メールアドレスの一意制約違反は ErrDuplicateEmail として返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	var passwordHash sql.NullString
	if user.PasswordHash != "" {
		passwordHash = sql.NullString{String: user.PasswordHash, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, name, picture, role, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Name, nullString(user.Picture), string(user.Role), passwordHash, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateProfile は表示名とアバター画像URLのみを更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id, name string, picture *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, picture = $3 WHERE user_id = $1`,
		id, name, nullString(picture),
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// UpdateRole はユーザーのロールを更新する。該当ユーザーが存在しない場合はfalseを返す。
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $2 WHERE user_id = $1`,
		id, string(role),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update user role: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// List は全ユーザーを作成日時の降順で返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
