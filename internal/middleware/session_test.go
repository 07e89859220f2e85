package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// --- モック定義 ---

type mockUserResolver struct {
	resolveFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockUserResolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, token)
	}
	return nil, model.NewUnauthenticatedError()
}

func validTokenResolver() *mockUserResolver {
	return &mockUserResolver{
		resolveFn: func(ctx context.Context, token string) (*model.User, error) {
			if token == "valid-token" {
				return &model.User{ID: "user-123", Role: model.RoleManager}, nil
			}
			return nil, model.NewUnauthenticatedError()
		},
	}
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Code
}

// --- テスト ---

func TestSessionMiddleware_ValidCookie_InjectsUser(t *testing.T) {
	mw := NewSessionMiddleware(validTokenResolver())

	var captured *model.User
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Error("expected user in context")
		}
		captured = user
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "valid-token"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if captured == nil || captured.ID != "user-123" {
		t.Errorf("user = %+v, want user-123", captured)
	}
}

func TestSessionMiddleware_BearerToken_InjectsUser(t *testing.T) {
	mw := NewSessionMiddleware(validTokenResolver())

	var capturedID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedID, "user-123")
	}
}

func TestSessionMiddleware_NoToken_Returns401(t *testing.T) {
	mw := NewSessionMiddleware(validTokenResolver())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeUnauthenticated {
		t.Errorf("code = %q, want %q", code, model.ErrCodeUnauthenticated)
	}
}

func TestSessionMiddleware_UnknownToken_Returns401(t *testing.T) {
	mw := NewSessionMiddleware(validTokenResolver())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "forged"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_ExpiredSession_ReturnsSessionExpired(t *testing.T) {
	resolver := &mockUserResolver{
		resolveFn: func(ctx context.Context, token string) (*model.User, error) {
			return nil, model.NewSessionExpiredError()
		},
	}
	mw := NewSessionMiddleware(resolver)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "old-token"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeSessionExpired {
		t.Errorf("code = %q, want %q", code, model.ErrCodeSessionExpired)
	}
}

func TestSessionMiddleware_StoreError_Returns500(t *testing.T) {
	resolver := &mockUserResolver{
		resolveFn: func(ctx context.Context, token string) (*model.User, error) {
			return nil, context.DeadlineExceeded
		},
	}
	mw := NewSessionMiddleware(resolver)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "some-token"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		user    *model.User
		allowed []model.Role
		want    int
	}{
		{"admin allowed", &model.User{ID: "u1", Role: model.RoleAdmin}, []model.Role{model.RoleAdmin}, http.StatusOK},
		{"manager in set", &model.User{ID: "u2", Role: model.RoleManager}, []model.Role{model.RoleAdmin, model.RoleManager}, http.StatusOK},
		{"field worker denied", &model.User{ID: "u3", Role: model.RoleFieldWorker}, []model.Role{model.RoleAdmin, model.RoleManager}, http.StatusForbidden},
		{"no user", nil, []model.Role{model.RoleAdmin}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodDelete, "/api/assets/a1", nil)
			if tt.user != nil {
				req = req.WithContext(ContextWithUser(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestUserIDFromContext_NoValue_ReturnsError(t *testing.T) {
	_, err := UserIDFromContext(context.Background())
	if err == nil {
		t.Error("expected error for missing user in context")
	}
}

func TestUserIDFromContext_ValidValue_ReturnsUserID(t *testing.T) {
	ctx := ContextWithUser(context.Background(), &model.User{ID: "user-456"})
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if userID != "user-456" {
		t.Errorf("userID = %q, want %q", userID, "user-456")
	}
}
