// Package analytics は資産とアラートの集計を提供する。
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
)

// ForecastWindow は保守予測の対象期間。
const ForecastWindow = 90 * 24 * time.Hour

// Overview はダッシュボードの概要集計。
type Overview struct {
	TotalAssets        int
	ActiveAlerts       int
	AverageHealthScore float64
	StatusDistribution map[model.AssetStatus]int
	TypeDistribution   map[model.AssetType]int
}

// ForecastEntry は保守予定の1件。
type ForecastEntry struct {
	AssetID       string
	AssetName     string
	AssetType     model.AssetType
	ScheduledDate time.Time
	DaysUntil     int
	HealthScore   int
}

// Service は集計のサービス層。
type Service struct {
	assetRepo repository.AssetRepository
	alertRepo repository.AlertRepository
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(assetRepo repository.AssetRepository, alertRepo repository.AlertRepository) *Service {
	return &Service{
		assetRepo: assetRepo,
		alertRepo: alertRepo,
		now:       time.Now,
	}
}

// Overview は資産数、未対応アラート数、平均健全度、状態別と種別別の内訳を返す。
// 平均健全度は小数第1位に丸め、資産がない場合は0とする。
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	assets, err := s.assetRepo.List(ctx, model.AssetFilter{})
	if err != nil {
		return nil, fmt.Errorf("資産一覧の取得に失敗しました: %w", err)
	}
	active, err := s.alertRepo.CountByStatus(ctx, model.AlertStatusActive)
	if err != nil {
		return nil, fmt.Errorf("アラート件数の取得に失敗しました: %w", err)
	}

	ov := &Overview{
		TotalAssets:  len(assets),
		ActiveAlerts: active,
		StatusDistribution: map[model.AssetStatus]int{
			model.AssetStatusOperational: 0,
			model.AssetStatusMaintenance: 0,
			model.AssetStatusWarning:     0,
			model.AssetStatusCritical:    0,
		},
		TypeDistribution: map[model.AssetType]int{
			model.AssetTypeBarrier: 0,
			model.AssetTypeLock:    0,
			model.AssetTypeBridge:  0,
			model.AssetTypeRoad:    0,
		},
	}

	total := 0
	for _, a := range assets {
		total += a.HealthScore
		ov.StatusDistribution[a.Status]++
		ov.TypeDistribution[a.Type]++
	}
	if len(assets) > 0 {
		ov.AverageHealthScore = math.Round(float64(total)/float64(len(assets))*10) / 10
	}
	return ov, nil
}

// MaintenanceForecast は現在から ForecastWindow 以内に保守予定のある資産を予定日の昇順で返す。
func (s *Service) MaintenanceForecast(ctx context.Context) ([]ForecastEntry, error) {
	assets, err := s.assetRepo.List(ctx, model.AssetFilter{})
	if err != nil {
		return nil, fmt.Errorf("資産一覧の取得に失敗しました: %w", err)
	}

	now := s.now().UTC()
	horizon := now.Add(ForecastWindow)

	forecast := make([]ForecastEntry, 0)
	for _, a := range assets {
		if a.NextMaintenance == nil {
			continue
		}
		due := a.NextMaintenance.UTC()
		if due.Before(now) || due.After(horizon) {
			continue
		}
		forecast = append(forecast, ForecastEntry{
			AssetID:       a.ID,
			AssetName:     a.Name,
			AssetType:     a.Type,
			ScheduledDate: due,
			DaysUntil:     int(due.Sub(now) / (24 * time.Hour)),
			HealthScore:   a.HealthScore,
		})
	}

	sort.SliceStable(forecast, func(i, j int) bool {
		if forecast[i].ScheduledDate.Equal(forecast[j].ScheduledDate) {
			return forecast[i].AssetName < forecast[j].AssetName
		}
		return forecast[i].ScheduledDate.Before(forecast[j].ScheduledDate)
	})
	return forecast, nil
}
