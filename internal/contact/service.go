// Package contact はランディングページの問い合わせフォームを扱う。
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
	"github.com/hitoshi/digitaldelta/internal/security"
	"github.com/hitoshi/digitaldelta/internal/validation"
)

// SubmitInput は問い合わせ送信の入力。
type SubmitInput struct {
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	Email        string  `json:"email" validate:"required,email"`
	Organization *string `json:"organization" validate:"omitempty,max=200"`
	Message      string  `json:"message" validate:"required,min=10,max=2000"`
}

// Service は問い合わせのサービス層。
type Service struct {
	repo      repository.ContactRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ContactRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Submit は問い合わせを無害化、検証したうえで pending として保存する。
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*model.ContactRequest, error) {
	in.Name = s.sanitizer.SanitizeText(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = s.sanitizer.SanitizeText(in.Message)
	if in.Organization != nil {
		org := s.sanitizer.SanitizeText(*in.Organization)
		if org == "" {
			in.Organization = nil
		} else {
			in.Organization = &org
		}
	}

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	req := &model.ContactRequest{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		Organization: in.Organization,
		Message:      in.Message,
		Status:       model.ContactStatusPending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("問い合わせの保存に失敗しました: %w", err)
	}

	slog.Info("contact request submitted", slog.String("contact_id", req.ID))
	return req, nil
}

// List は問い合わせを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.ContactRequest, error) {
	reqs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("問い合わせ一覧の取得に失敗しました: %w", err)
	}
	return reqs, nil
}
