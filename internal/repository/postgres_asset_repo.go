package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// PostgresAssetRepo はPostgreSQLを使用した資産リポジトリ。
type PostgresAssetRepo struct {
	db *sql.DB
}

// NewPostgresAssetRepo はPostgresAssetRepoを生成する。
func NewPostgresAssetRepo(db *sql.DB) *PostgresAssetRepo {
	return &PostgresAssetRepo{db: db}
}

const assetColumns = `asset_id, name, type, location, latitude, longitude, status, health_score,
	last_inspection, next_maintenance, created_at, updated_at`

func scanAsset(row rowScanner) (*model.Asset, error) {
	var (
		a               model.Asset
		assetType       string
		status          string
		lastInspection  sql.NullTime
		nextMaintenance sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Name, &assetType, &a.Location, &a.Latitude, &a.Longitude, &status,
		&a.HealthScore, &lastInspection, &nextMaintenance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = model.AssetType(assetType)
	a.Status = model.AssetStatus(status)
	a.LastInspection = timePtr(lastInspection)
	a.NextMaintenance = timePtr(nextMaintenance)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

// FindByID は指定IDの資産を取得する。見つからない場合はnilを返す。
func (r *PostgresAssetRepo) FindByID(ctx context.Context, id string) (*model.Asset, error) {
	asset, err := scanAsset(r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE asset_id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("資産の取得に失敗しました: %w", err)
	}
	return asset, nil
}

// List は条件に一致する資産を名前順で返す。
func (r *PostgresAssetRepo) List(ctx context.Context, filter model.AssetFilter) ([]*model.Asset, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + assetColumns + ` FROM assets`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("資産一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var assets []*model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("資産のスキャンに失敗しました: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("資産一覧の走査に失敗しました: %w", err)
	}
	return assets, nil
}

// Create は資産を作成する。
func (r *PostgresAssetRepo) Create(ctx context.Context, a *model.Asset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assets (`+assetColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.Name, string(a.Type), a.Location, a.Latitude, a.Longitude, string(a.Status), a.HealthScore,
		nullTime(a.LastInspection), nullTime(a.NextMaintenance), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("資産の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は資産を更新する。該当資産が存在しない場合はfalseを返す。
func (r *PostgresAssetRepo) Update(ctx context.Context, a *model.Asset) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE assets
		 SET name = $2, type = $3, location = $4, latitude = $5, longitude = $6, status = $7,
		     health_score = $8, last_inspection = $9, next_maintenance = $10, updated_at = $11
		 WHERE asset_id = $1`,
		a.ID, a.Name, string(a.Type), a.Location, a.Latitude, a.Longitude, string(a.Status), a.HealthScore,
		nullTime(a.LastInspection), nullTime(a.NextMaintenance), a.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("資産の更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// Delete は資産を削除する。関連するアラートと計測値はCASCADE削除される。
func (r *PostgresAssetRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE asset_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("資産の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// Count は資産の総数を返す。
func (r *PostgresAssetRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("資産数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ AssetRepository = (*PostgresAssetRepo)(nil)
