package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// PostgresAlertRepo はPostgreSQLを使用したアラートリポジトリ。
type PostgresAlertRepo struct {
	db *sql.DB
}

// NewPostgresAlertRepo はPostgresAlertRepoを生成する。
func NewPostgresAlertRepo(db *sql.DB) *PostgresAlertRepo {
	return &PostgresAlertRepo{db: db}
}

const alertColumns = `alert_id, asset_id, asset_name, type, severity, title, description, status,
	created_at, acknowledged_at, acknowledged_by, resolved_at, resolved_by`

func scanAlert(row rowScanner) (*model.Alert, error) {
	var (
		a                   model.Alert
		alertType, severity string
		status              string
		acknowledgedAt      sql.NullTime
		acknowledgedBy      sql.NullString
		resolvedAt          sql.NullTime
		resolvedBy          sql.NullString
	)
	err := row.Scan(&a.ID, &a.AssetID, &a.AssetName, &alertType, &severity, &a.Title, &a.Description,
		&status, &a.CreatedAt, &acknowledgedAt, &acknowledgedBy, &resolvedAt, &resolvedBy)
	if err != nil {
		return nil, err
	}
	a.Type = model.AlertType(alertType)
	a.Severity = model.AlertSeverity(severity)
	a.Status = model.AlertStatus(status)
	a.CreatedAt = a.CreatedAt.UTC()
	a.AcknowledgedAt = timePtr(acknowledgedAt)
	a.AcknowledgedBy = stringPtr(acknowledgedBy)
	a.ResolvedAt = timePtr(resolvedAt)
	a.ResolvedBy = stringPtr(resolvedBy)
	return &a, nil
}

// FindByID は指定IDのアラートを取得する。見つからない場合はnilを返す。
func (r *PostgresAlertRepo) FindByID(ctx context.Context, id string) (*model.Alert, error) {
	alert, err := scanAlert(r.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE alert_id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アラートの取得に失敗しました: %w", err)
	}
	return alert, nil
}

// List はアラートを作成日時の降順で返す。statusが空の場合は全件を返す。
func (r *PostgresAlertRepo) List(ctx context.Context, status model.AlertStatus) ([]*model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("アラート一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var alerts []*model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("アラートのスキャンに失敗しました: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アラート一覧の走査に失敗しました: %w", err)
	}
	return alerts, nil
}

// Create はアラートを作成する。
func (r *PostgresAlertRepo) Create(ctx context.Context, a *model.Alert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (`+alertColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.AssetID, a.AssetName, string(a.Type), string(a.Severity), a.Title, a.Description,
		string(a.Status), a.CreatedAt, nullTime(a.AcknowledgedAt), nullString(a.AcknowledgedBy),
		nullTime(a.ResolvedAt), nullString(a.ResolvedBy),
	)
	if err != nil {
		return fmt.Errorf("アラートの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus はアラートの状態と確認・解決情報を更新する。
// 現在の状態がexpectedと異なる場合は更新せずfalseを返す。
func (r *PostgresAlertRepo) UpdateStatus(ctx context.Context, a *model.Alert, expected model.AlertStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE alerts
		 SET status = $2, acknowledged_at = $3, acknowledged_by = $4, resolved_at = $5, resolved_by = $6
		 WHERE alert_id = $1 AND status = $7`,
		a.ID, string(a.Status), nullTime(a.AcknowledgedAt), nullString(a.AcknowledgedBy),
		nullTime(a.ResolvedAt), nullString(a.ResolvedBy), string(expected),
	)
	if err != nil {
		return false, fmt.Errorf("アラートの状態更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// CountByStatus は指定状態のアラート数を返す。
func (r *PostgresAlertRepo) CountByStatus(ctx context.Context, status model.AlertStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE status = $1`,
		string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("アラート数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ AlertRepository = (*PostgresAlertRepo)(nil)
