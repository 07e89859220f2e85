package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// PostgresContactRepo はPostgreSQLを使用した問い合わせリポジトリ。
type PostgresContactRepo struct {
	db *sql.DB
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

// Create は問い合わせを保存する。
func (r *PostgresContactRepo) Create(ctx context.Context, req *model.ContactRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_requests (id, name, email, organization, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.Name, req.Email, nullString(req.Organization), req.Message, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact request: %w", err)
	}
	return nil
}

// List は問い合わせを新しい順に返す。
func (r *PostgresContactRepo) List(ctx context.Context) ([]*model.ContactRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, organization, message, status, created_at
		 FROM contact_requests ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact requests: %w", err)
	}
	defer rows.Close()

	var reqs []*model.ContactRequest
	for rows.Next() {
		var (
			req          model.ContactRequest
			organization sql.NullString
		)
		if err := rows.Scan(&req.ID, &req.Name, &req.Email, &organization, &req.Message, &req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact request: %w", err)
		}
		req.Organization = stringPtr(organization)
		req.CreatedAt = req.CreatedAt.UTC()
		reqs = append(reqs, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact requests: %w", err)
	}
	return reqs, nil
}

// PostgresStatusCheckRepo はPostgreSQLを使用した疎通確認リポジトリ。
type PostgresStatusCheckRepo struct {
	db *sql.DB
}

// NewPostgresStatusCheckRepo はPostgresStatusCheckRepoを生成する。
func NewPostgresStatusCheckRepo(db *sql.DB) *PostgresStatusCheckRepo {
	return &PostgresStatusCheckRepo{db: db}
}

// Create は疎通確認記録を保存する。
func (r *PostgresStatusCheckRepo) Create(ctx context.Context, check *model.StatusCheck) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO status_checks (id, client_name, timestamp) VALUES ($1, $2, $3)`,
		check.ID, check.ClientName, check.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert status check: %w", err)
	}
	return nil
}

// List は疎通確認記録を新しい順に最大1000件返す。
func (r *PostgresStatusCheckRepo) List(ctx context.Context) ([]*model.StatusCheck, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_name, timestamp FROM status_checks ORDER BY timestamp DESC LIMIT 1000`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list status checks: %w", err)
	}
	defer rows.Close()

	var checks []*model.StatusCheck
	for rows.Next() {
		var c model.StatusCheck
		if err := rows.Scan(&c.ID, &c.ClientName, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan status check: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		checks = append(checks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status checks: %w", err)
	}
	return checks, nil
}

// compile-time interface checks
var (
	_ ContactRepository     = (*PostgresContactRepo)(nil)
	_ StatusCheckRepository = (*PostgresStatusCheckRepo)(nil)
)
