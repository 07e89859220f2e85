// Package asset はインフラ資産の管理とデモデータ投入のドメインロジックを提供する。
package asset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
	"github.com/hitoshi/digitaldelta/internal/validation"
)

// defaultHealthScore は健全度が指定されなかった場合の値。
const defaultHealthScore = 100

// Input は資産の作成・更新の入力。
type Input struct {
	Name            string     `json:"name" validate:"required,max=200"`
	Type            string     `json:"type" validate:"required,oneof=barrier lock bridge road"`
	Location        string     `json:"location" validate:"required,max=200"`
	Latitude        float64    `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64    `json:"longitude" validate:"gte=-180,lte=180"`
	Status          string     `json:"status" validate:"omitempty,oneof=operational maintenance warning critical"`
	HealthScore     *int       `json:"health_score" validate:"omitempty,gte=0,lte=100"`
	LastInspection  *time.Time `json:"last_inspection"`
	NextMaintenance *time.Time `json:"next_maintenance"`
}

// Service は資産管理のサービス層。
type Service struct {
	assetRepo repository.AssetRepository
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(assetRepo repository.AssetRepository) *Service {
	return &Service{assetRepo: assetRepo, now: time.Now}
}

// List は条件に一致する資産を返す。未定義の種別・状態が指定された場合は不正な入力エラーを返す。
func (s *Service) List(ctx context.Context, assetType, status string) ([]*model.Asset, error) {
	filter := model.AssetFilter{Type: model.AssetType(assetType), Status: model.AssetStatus(status)}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("不明な資産種別です: %s", assetType))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("不明な資産状態です: %s", status))
	}

	assets, err := s.assetRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("資産一覧の取得に失敗しました: %w", err)
	}
	return assets, nil
}

// Get は指定IDの資産を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Asset, error) {
	a, err := s.assetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("資産の取得に失敗しました: %w", err)
	}
	if a == nil {
		return nil, model.NewAssetNotFoundError(id)
	}
	return a, nil
}

// Create は資産を作成する。
func (s *Service) Create(ctx context.Context, in Input) (*model.Asset, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &model.Asset{
		ID:        uuid.New().String(),
		CreatedAt: now,
	}
	apply(a, in, now)

	if err := s.assetRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("資産の作成に失敗しました: %w", err)
	}

	slog.Info("asset created",
		slog.String("asset_id", a.ID),
		slog.String("type", string(a.Type)),
	)
	return a, nil
}

// Update は資産を更新する。作成日時とIDは変更しない。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Asset, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(a, in, s.now().UTC())

	updated, err := s.assetRepo.Update(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("資産の更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewAssetNotFoundError(id)
	}

	slog.Info("asset updated", slog.String("asset_id", id))
	return a, nil
}

// Delete は資産を削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.assetRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("資産の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewAssetNotFoundError(id)
	}

	slog.Info("asset deleted", slog.String("asset_id", id))
	return nil
}

// apply は入力値を資産に反映する。
func apply(a *model.Asset, in Input, now time.Time) {
	a.Name = in.Name
	a.Type = model.AssetType(in.Type)
	a.Location = in.Location
	a.Latitude = in.Latitude
	a.Longitude = in.Longitude
	a.Status = model.AssetStatusOperational
	if in.Status != "" {
		a.Status = model.AssetStatus(in.Status)
	}
	a.HealthScore = defaultHealthScore
	if in.HealthScore != nil {
		a.HealthScore = *in.HealthScore
	}
	a.LastInspection = utcPtr(in.LastInspection)
	a.NextMaintenance = utcPtr(in.NextMaintenance)
	a.UpdatedAt = now
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
