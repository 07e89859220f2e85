package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/digitaldelta/internal/contact"
	"github.com/hitoshi/digitaldelta/internal/model"
)

// ContactServiceInterface は問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	Submit(ctx context.Context, in contact.SubmitInput) (*model.ContactRequest, error)
	List(ctx context.Context) ([]*model.ContactRequest, error)
}

// ContactHandler はランディングページの問い合わせフォームのHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

type contactResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Organization *string   `json:"organization"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Submit は問い合わせを受け付ける。認証不要。
// POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in contact.SubmitInput
	if err := decodeJSON(r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	req, err := h.service.Submit(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactResponse(req))
}

// List は問い合わせ一覧を返す。
// GET /api/contact
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]contactResponse, 0, len(reqs))
	for _, req := range reqs {
		resp = append(resp, toContactResponse(req))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toContactResponse(c *model.ContactRequest) contactResponse {
	return contactResponse{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Organization: c.Organization,
		Message:      c.Message,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
	}
}
