package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// PostgresSensorReadingRepo はPostgreSQLを使用したセンサー計測値リポジトリ。
type PostgresSensorReadingRepo struct {
	db *sql.DB
}

// NewPostgresSensorReadingRepo はPostgresSensorReadingRepoを生成する。
func NewPostgresSensorReadingRepo(db *sql.DB) *PostgresSensorReadingRepo {
	return &PostgresSensorReadingRepo{db: db}
}

// Create は計測値を保存する。
func (r *PostgresSensorReadingRepo) Create(ctx context.Context, reading *model.SensorReading) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sensor_readings (reading_id, asset_id, sensor, value, unit, status, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reading.ID, reading.AssetID, string(reading.Sensor), reading.Value, reading.Unit,
		string(reading.Status), reading.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sensor reading: %w", err)
	}
	return nil
}

// ListByAsset は資産の計測値を新しい順に最大limit件返す。
func (r *PostgresSensorReadingRepo) ListByAsset(ctx context.Context, assetID string, limit int) ([]*model.SensorReading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT reading_id, asset_id, sensor, value, unit, status, recorded_at
		 FROM sensor_readings
		 WHERE asset_id = $1
		 ORDER BY recorded_at DESC
		 LIMIT $2`,
		assetID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensor readings: %w", err)
	}
	defer rows.Close()

	var readings []*model.SensorReading
	for rows.Next() {
		var (
			rd             model.SensorReading
			sensor, status string
		)
		if err := rows.Scan(&rd.ID, &rd.AssetID, &sensor, &rd.Value, &rd.Unit, &status, &rd.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sensor reading: %w", err)
		}
		rd.Sensor = model.SensorKind(sensor)
		rd.Status = model.SensorStatus(status)
		rd.RecordedAt = rd.RecordedAt.UTC()
		readings = append(readings, &rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensor readings: %w", err)
	}
	return readings, nil
}

// compile-time interface check
var _ SensorReadingRepository = (*PostgresSensorReadingRepo)(nil)
