package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/digitaldelta/internal/alert"
	"github.com/hitoshi/digitaldelta/internal/analytics"
	"github.com/hitoshi/digitaldelta/internal/asset"
	"github.com/hitoshi/digitaldelta/internal/auth"
	"github.com/hitoshi/digitaldelta/internal/contact"
	"github.com/hitoshi/digitaldelta/internal/middleware"
	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/sensor"
	"github.com/hitoshi/digitaldelta/internal/system"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn    func(ctx context.Context, email, password string) (*auth.Result, error)
	exchangeFn func(ctx context.Context, code string) (*auth.Result, error)
	logoutFn   func(ctx context.Context, token string) error
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Result, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Exchange(ctx context.Context, code string) (*auth.Result, error) {
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, code)
	}
	return nil, model.NewInvalidExchangeCodeError()
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

type mockUserService struct {
	listFn       func(ctx context.Context) ([]*model.User, error)
	changeRoleFn func(ctx context.Context, userID, role string) (*model.User, error)
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) ChangeRole(ctx context.Context, userID, role string) (*model.User, error) {
	if m.changeRoleFn != nil {
		return m.changeRoleFn(ctx, userID, role)
	}
	return nil, model.NewUserNotFoundError()
}

type mockAssetService struct {
	listFn   func(ctx context.Context, assetType, status string) ([]*model.Asset, error)
	getFn    func(ctx context.Context, id string) (*model.Asset, error)
	createFn func(ctx context.Context, in asset.Input) (*model.Asset, error)
	updateFn func(ctx context.Context, id string, in asset.Input) (*model.Asset, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockAssetService) List(ctx context.Context, assetType, status string) ([]*model.Asset, error) {
	if m.listFn != nil {
		return m.listFn(ctx, assetType, status)
	}
	return nil, nil
}

func (m *mockAssetService) Get(ctx context.Context, id string) (*model.Asset, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewAssetNotFoundError(id)
}

func (m *mockAssetService) Create(ctx context.Context, in asset.Input) (*model.Asset, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAssetService) Update(ctx context.Context, id string, in asset.Input) (*model.Asset, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return nil, model.NewAssetNotFoundError(id)
}

func (m *mockAssetService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockSeeder struct {
	seedFn func(ctx context.Context) (*asset.SeedResult, error)
}

func (m *mockSeeder) Seed(ctx context.Context) (*asset.SeedResult, error) {
	if m.seedFn != nil {
		return m.seedFn(ctx)
	}
	return &asset.SeedResult{Message: "Demo data already present"}, nil
}

type mockAlertService struct {
	listFn        func(ctx context.Context, status string) ([]*model.Alert, error)
	createFn      func(ctx context.Context, in alert.CreateInput) (*model.Alert, error)
	acknowledgeFn func(ctx context.Context, alertID, userID string) (*model.Alert, error)
	resolveFn     func(ctx context.Context, alertID, userID string) (*model.Alert, error)
}

func (m *mockAlertService) List(ctx context.Context, status string) ([]*model.Alert, error) {
	if m.listFn != nil {
		return m.listFn(ctx, status)
	}
	return nil, nil
}

func (m *mockAlertService) Create(ctx context.Context, in alert.CreateInput) (*model.Alert, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAlertService) Acknowledge(ctx context.Context, alertID, userID string) (*model.Alert, error) {
	if m.acknowledgeFn != nil {
		return m.acknowledgeFn(ctx, alertID, userID)
	}
	return nil, model.NewAlertNotFoundError(alertID)
}

func (m *mockAlertService) Resolve(ctx context.Context, alertID, userID string) (*model.Alert, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, alertID, userID)
	}
	return nil, model.NewAlertNotFoundError(alertID)
}

type mockSensorService struct {
	liveFn    func(ctx context.Context, assetID string) (*model.SensorSnapshot, error)
	ingestFn  func(ctx context.Context, in sensor.ReadingInput) (*sensor.IngestResult, error)
	historyFn func(ctx context.Context, assetID string, limit int) ([]*model.SensorReading, error)
}

func (m *mockSensorService) Live(ctx context.Context, assetID string) (*model.SensorSnapshot, error) {
	if m.liveFn != nil {
		return m.liveFn(ctx, assetID)
	}
	return nil, model.NewAssetNotFoundError(assetID)
}

func (m *mockSensorService) Ingest(ctx context.Context, in sensor.ReadingInput) (*sensor.IngestResult, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, in)
	}
	return nil, nil
}

func (m *mockSensorService) History(ctx context.Context, assetID string, limit int) ([]*model.SensorReading, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, assetID, limit)
	}
	return nil, nil
}

type mockAnalyticsService struct {
	overviewFn func(ctx context.Context) (*analytics.Overview, error)
	forecastFn func(ctx context.Context) ([]analytics.ForecastEntry, error)
}

func (m *mockAnalyticsService) Overview(ctx context.Context) (*analytics.Overview, error) {
	if m.overviewFn != nil {
		return m.overviewFn(ctx)
	}
	return &analytics.Overview{}, nil
}

func (m *mockAnalyticsService) MaintenanceForecast(ctx context.Context) ([]analytics.ForecastEntry, error) {
	if m.forecastFn != nil {
		return m.forecastFn(ctx)
	}
	return nil, nil
}

type mockContactService struct {
	submitFn func(ctx context.Context, in contact.SubmitInput) (*model.ContactRequest, error)
	listFn   func(ctx context.Context) ([]*model.ContactRequest, error)
}

func (m *mockContactService) Submit(ctx context.Context, in contact.SubmitInput) (*model.ContactRequest, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, in)
	}
	return nil, nil
}

func (m *mockContactService) List(ctx context.Context) ([]*model.ContactRequest, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockSystemService struct {
	healthFn      func(ctx context.Context) system.Health
	recordFn      func(ctx context.Context, in system.StatusCheckInput) (*model.StatusCheck, error)
	listFn        func(ctx context.Context) ([]*model.StatusCheck, error)
	cesiumTokenFn func() (string, error)
}

func (m *mockSystemService) Info() system.Info {
	return system.Info{
		Status:    "operational",
		Service:   system.ServiceName,
		Version:   system.Version,
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockSystemService) Health(ctx context.Context) system.Health {
	if m.healthFn != nil {
		return m.healthFn(ctx)
	}
	return system.Health{Status: "healthy", Database: "connected"}
}

func (m *mockSystemService) RecordStatusCheck(ctx context.Context, in system.StatusCheckInput) (*model.StatusCheck, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, in)
	}
	return nil, nil
}

func (m *mockSystemService) ListStatusChecks(ctx context.Context) ([]*model.StatusCheck, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockSystemService) CesiumToken() (string, error) {
	if m.cesiumTokenFn != nil {
		return m.cesiumTokenFn()
	}
	return "", model.NewCesiumTokenMissingError()
}

// --- テストヘルパー ---

// withUser はテスト用にリクエストコンテキストへユーザーを注入するヘルパー。
func withUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorCode はエラーレスポンスのcodeを返す。
func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body.Code
}

func testUser(id string, role model.Role) *model.User {
	return &model.User{
		ID:        id,
		Email:     id + "@rws.nl",
		Name:      "Test " + id,
		Role:      role,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
