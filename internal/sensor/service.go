// Package sensor はセンサー計測値のシミュレーション、受信、履歴参照を提供する。
package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
	"github.com/hitoshi/digitaldelta/internal/validation"
)

const (
	// DefaultHistoryLimit は履歴取得の件数が指定されなかった場合の値。
	DefaultHistoryLimit = 50
	// MaxHistoryLimit は履歴取得の件数の上限。
	MaxHistoryLimit = 500
)

// AlertRaiser はアラートを発行するインターフェース。alert.Serviceが満たす。
type AlertRaiser interface {
	Raise(ctx context.Context, asset *model.Asset, alertType model.AlertType, severity model.AlertSeverity, title, description string) (*model.Alert, error)
}

// ReadingInput は計測値送信の入力。
type ReadingInput struct {
	AssetID string   `json:"asset_id" validate:"required"`
	Sensor  string   `json:"sensor" validate:"required,oneof=water_level pressure temperature vibration wind_speed"`
	Value   *float64 `json:"value" validate:"required"`
}

// IngestResult は計測値受信の結果。計測値がcriticalの場合のみAlertが設定される。
type IngestResult struct {
	Reading *model.SensorReading
	Alert   *model.Alert
}

// Service はセンサーデータのサービス層。
type Service struct {
	readings repository.SensorReadingRepository
	assets   repository.AssetRepository
	alerts   AlertRaiser
	// random は[0, 1)の一様乱数を返す。
	random func() float64
	now    func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(readings repository.SensorReadingRepository, assets repository.AssetRepository, alerts AlertRaiser) *Service {
	return &Service{
		readings: readings,
		assets:   assets,
		alerts:   alerts,
		random:   rand.Float64,
		now:      time.Now,
	}
}

// Live は資産の全センサーについて、各センサーの値域内で一様に生成した計測値を返す。
func (s *Service) Live(ctx context.Context, assetID string) (*model.SensorSnapshot, error) {
	if _, err := s.findAsset(ctx, assetID); err != nil {
		return nil, err
	}

	snapshot := &model.SensorSnapshot{
		AssetID:   assetID,
		Timestamp: s.now().UTC(),
		Sensors:   make(map[model.SensorKind]model.SensorValue, len(model.SensorKinds())),
	}
	for _, kind := range model.SensorKinds() {
		profile, _ := kind.Profile()
		value := round2(profile.Min + s.random()*(profile.Max-profile.Min))
		snapshot.Sensors[kind] = model.SensorValue{
			Value:  value,
			Unit:   profile.Unit,
			Status: profile.StatusOf(value),
		}
	}
	return snapshot, nil
}

// Ingest は計測値を保存する。状態がcriticalと判定された場合は資産に対するcriticalアラートを発行する。
func (s *Service) Ingest(ctx context.Context, in ReadingInput) (*IngestResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	asset, err := s.findAsset(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}

	kind := model.SensorKind(in.Sensor)
	profile, _ := kind.Profile()
	reading := &model.SensorReading{
		ID:         uuid.New().String(),
		AssetID:    asset.ID,
		Sensor:     kind,
		Value:      *in.Value,
		Unit:       profile.Unit,
		Status:     profile.StatusOf(*in.Value),
		RecordedAt: s.now().UTC(),
	}
	if err := s.readings.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("計測値の保存に失敗しました: %w", err)
	}

	result := &IngestResult{Reading: reading}
	if reading.Status != model.SensorStatusCritical {
		return result, nil
	}

	title := fmt.Sprintf("Kritieke meting: %s", kind)
	description := fmt.Sprintf("%s gemeten op %.2f %s (drempel %.2f %s).",
		kind, reading.Value, profile.Unit, profile.Critical, profile.Unit)
	alert, err := s.alerts.Raise(ctx, asset, model.AlertTypeCritical, model.SeverityCritical, title, description)
	if err != nil {
		return nil, fmt.Errorf("アラートの発行に失敗しました: %w", err)
	}
	result.Alert = alert

	slog.Warn("critical sensor reading",
		slog.String("asset_id", asset.ID),
		slog.String("sensor", string(kind)),
		slog.Float64("value", reading.Value),
	)
	return result, nil
}

// History は資産の計測値を新しい順に返す。limitは1から MaxHistoryLimit の範囲に丸める。
func (s *Service) History(ctx context.Context, assetID string, limit int) ([]*model.SensorReading, error) {
	if _, err := s.findAsset(ctx, assetID); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	readings, err := s.readings.ListByAsset(ctx, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("計測値履歴の取得に失敗しました: %w", err)
	}
	return readings, nil
}

func (s *Service) findAsset(ctx context.Context, assetID string) (*model.Asset, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("資産の取得に失敗しました: %w", err)
	}
	if asset == nil {
		return nil, model.NewAssetNotFoundError(assetID)
	}
	return asset, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
