// Package system はサービス情報、ヘルスチェック、疎通確認記録、地図トークンの配布を提供する。
package system

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

const (
	// ServiceName はサービス情報で返すサービス名。
	ServiceName = "Digital Delta Platform"
	// Version はAPIのバージョン。
	Version = "1.0.0"

	pingTimeout = 2 * time.Second
)

// Pinger はデータベースへの疎通を確認するインターフェース。*sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Info はサービス情報。
type Info struct {
	Status    string
	Service   string
	Version   string
	Timestamp time.Time
}

// Health はヘルスチェックの結果。
type Health struct {
	Status    string
	Database  string
	Timestamp time.Time
}

// StatusCheckInput は疎通確認記録の入力。
type StatusCheckInput struct {
	ClientName string `json:"client_name" validate:"required,max=200"`
}

// Service はシステム系エンドポイントのサービス層。
type Service struct {
	db          Pinger
	statusRepo  repository.StatusCheckRepository
	cesiumToken string
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(db Pinger, statusRepo repository.StatusCheckRepository, cesiumToken string) *Service {
	return &Service{
		db:          db,
		statusRepo:  statusRepo,
		cesiumToken: cesiumToken,
		now:         time.Now,
	}
}

// Info はサービス名とバージョンを返す。
func (s *Service) Info() Info {
	return Info{
		Status:    "operational",
		Service:   ServiceName,
		Version:   Version,
		Timestamp: s.now().UTC(),
	}
}

// Health はデータベースへの疎通を確認する。
// プロセス自体は応答しているため、疎通に失敗してもStatusは "healthy" のままとする。
func (s *Service) Health(ctx context.Context) Health {
	h := Health{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: s.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		slog.Warn("database ping failed", slog.String("error", err.Error()))
		h.Database = "disconnected"
	}
	return h
}

// RecordStatusCheck は疎通確認を記録する。
func (s *Service) RecordStatusCheck(ctx context.Context, in StatusCheckInput) (*model.StatusCheck, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	check := &model.StatusCheck{
		ID:         uuid.New().String(),
		ClientName: in.ClientName,
		Timestamp:  s.now().UTC(),
	}
	if err := s.statusRepo.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to create status check: %w", err)
	}
	return check, nil
}

// ListStatusChecks は疎通確認記録を返す。
func (s *Service) ListStatusChecks(ctx context.Context) ([]*model.StatusCheck, error) {
	checks, err := s.statusRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list status checks: %w", err)
	}
	return checks, nil
}

// CesiumToken は地図表示用のCesium Ionトークンを返す。
// 設定されていない場合は CESIUM_TOKEN_MISSING エラーを返す。
func (s *Service) CesiumToken() (string, error) {
	if s.cesiumToken == "" {
		return "", model.NewCesiumTokenMissingError()
	}
	return s.cesiumToken, nil
}
