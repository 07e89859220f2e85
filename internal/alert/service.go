// Package alert はアラートの作成と対応状況の遷移を管理する。
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
	"github.com/hitoshi/digitaldelta/internal/security"
	"github.com/hitoshi/digitaldelta/internal/validation"
)

// CreateInput はアラート作成の入力。
type CreateInput struct {
	AssetID     string `json:"asset_id" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=predictive warning critical"`
	Severity    string `json:"severity" validate:"required,oneof=critical high medium low"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Service はアラート管理のサービス層。
type Service struct {
	alertRepo repository.AlertRepository
	assetRepo repository.AssetRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(alertRepo repository.AlertRepository, assetRepo repository.AssetRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		alertRepo: alertRepo,
		assetRepo: assetRepo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List はアラートを新しい順に返す。statusが空の場合は全件を返す。
func (s *Service) List(ctx context.Context, status string) ([]*model.Alert, error) {
	st := model.AlertStatus(status)
	if st != "" && !st.Valid() {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("不明なアラート状態です: %s", status))
	}
	alerts, err := s.alertRepo.List(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("アラート一覧の取得に失敗しました: %w", err)
	}
	return alerts, nil
}

// Create は資産に対するアラートを作成する。資産名は作成時点の値を保持する。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Alert, error) {
	in.Title = s.sanitizer.SanitizeText(in.Title)
	in.Description = s.sanitizer.SanitizeText(in.Description)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	asset, err := s.assetRepo.FindByID(ctx, in.AssetID)
	if err != nil {
		return nil, fmt.Errorf("資産の取得に失敗しました: %w", err)
	}
	if asset == nil {
		return nil, model.NewAssetNotFoundError(in.AssetID)
	}

	return s.Raise(ctx, asset, model.AlertType(in.Type), model.AlertSeverity(in.Severity), in.Title, in.Description)
}

// Raise は資産に対するactiveなアラートを発行する。
// センサー計測値の判定など、システム内部からも呼び出される。
func (s *Service) Raise(ctx context.Context, asset *model.Asset, alertType model.AlertType, severity model.AlertSeverity, title, description string) (*model.Alert, error) {
	a := &model.Alert{
		ID:          uuid.New().String(),
		AssetID:     asset.ID,
		AssetName:   asset.Name,
		Type:        alertType,
		Severity:    severity,
		Title:       title,
		Description: description,
		Status:      model.AlertStatusActive,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.alertRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("アラートの作成に失敗しました: %w", err)
	}

	slog.Info("alert raised",
		slog.String("alert_id", a.ID),
		slog.String("asset_id", a.AssetID),
		slog.String("severity", string(a.Severity)),
	)
	return a, nil
}

// Acknowledge はアラートを確認済みにする。activeのアラートのみ確認できる。
func (s *Service) Acknowledge(ctx context.Context, alertID, userID string) (*model.Alert, error) {
	return s.transition(ctx, alertID, userID, model.AlertStatusAcknowledged)
}

// Resolve はアラートを解決済みにする。activeまたはacknowledgedのアラートのみ解決できる。
func (s *Service) Resolve(ctx context.Context, alertID, userID string) (*model.Alert, error) {
	return s.transition(ctx, alertID, userID, model.AlertStatusResolved)
}

func (s *Service) transition(ctx context.Context, alertID, userID string, next model.AlertStatus) (*model.Alert, error) {
	a, err := s.alertRepo.FindByID(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("アラートの取得に失敗しました: %w", err)
	}
	if a == nil {
		return nil, model.NewAlertNotFoundError(alertID)
	}

	current := a.Status
	if !current.CanTransitionTo(next) {
		return nil, model.NewInvalidAlertTransitionError(current, next)
	}

	now := s.now().UTC()
	by := userID
	a.Status = next
	switch next {
	case model.AlertStatusAcknowledged:
		a.AcknowledgedAt = &now
		a.AcknowledgedBy = &by
	case model.AlertStatusResolved:
		a.ResolvedAt = &now
		a.ResolvedBy = &by
	}

	updated, err := s.alertRepo.UpdateStatus(ctx, a, current)
	if err != nil {
		return nil, fmt.Errorf("アラートの状態更新に失敗しました: %w", err)
	}
	if !updated {
		// 取得後に他の利用者が状態を変更した
		return nil, model.NewInvalidAlertTransitionError(current, next)
	}

	slog.Info("alert status changed",
		slog.String("alert_id", a.ID),
		slog.String("from", string(current)),
		slog.String("to", string(next)),
		slog.String("user_id", userID),
	)
	return a, nil
}
