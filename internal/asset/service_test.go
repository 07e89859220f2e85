package asset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// --- モック ---

type mockAssetRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Asset, error)
	listFn     func(ctx context.Context, filter model.AssetFilter) ([]*model.Asset, error)
	createFn   func(ctx context.Context, a *model.Asset) error
	updateFn   func(ctx context.Context, a *model.Asset) (bool, error)
	deleteFn   func(ctx context.Context, id string) (bool, error)
	countFn    func(ctx context.Context) (int, error)
}

func (m *mockAssetRepo) FindByID(ctx context.Context, id string) (*model.Asset, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockAssetRepo) List(ctx context.Context, filter model.AssetFilter) ([]*model.Asset, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}
func (m *mockAssetRepo) Create(ctx context.Context, a *model.Asset) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}
func (m *mockAssetRepo) Update(ctx context.Context, a *model.Asset) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, a)
	}
	return true, nil
}
func (m *mockAssetRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}
func (m *mockAssetRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockAlertRepo struct {
	created []*model.Alert
}

func (m *mockAlertRepo) FindByID(ctx context.Context, id string) (*model.Alert, error) {
	return nil, nil
}
func (m *mockAlertRepo) List(ctx context.Context, status model.AlertStatus) ([]*model.Alert, error) {
	return m.created, nil
}
func (m *mockAlertRepo) Create(ctx context.Context, a *model.Alert) error {
	m.created = append(m.created, a)
	return nil
}
func (m *mockAlertRepo) UpdateStatus(ctx context.Context, a *model.Alert, expected model.AlertStatus) (bool, error) {
	return true, nil
}
func (m *mockAlertRepo) CountByStatus(ctx context.Context, status model.AlertStatus) (int, error) {
	return 0, nil
}

func validInput() Input {
	return Input{
		Name:      "Maeslantkering",
		Type:      "barrier",
		Location:  "Hoek van Holland",
		Latitude:  51.95,
		Longitude: 4.16,
	}
}

// --- テスト ---

func TestCreate_AppliesDefaults(t *testing.T) {
	var saved *model.Asset
	repo := &mockAssetRepo{createFn: func(ctx context.Context, a *model.Asset) error {
		saved = a
		return nil
	}}
	svc := NewService(repo)

	a, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil || saved.ID != a.ID {
		t.Fatal("asset should be persisted")
	}
	if a.Status != model.AssetStatusOperational {
		t.Errorf("status = %q, want operational", a.Status)
	}
	if a.HealthScore != 100 {
		t.Errorf("health_score = %d, want 100", a.HealthScore)
	}
	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Error("id and created_at should be set")
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
		field  string
	}{
		{"missing name", func(in *Input) { in.Name = "" }, "name"},
		{"unknown type", func(in *Input) { in.Type = "tunnel" }, "type"},
		{"unknown status", func(in *Input) { in.Status = "broken" }, "status"},
		{"latitude out of range", func(in *Input) { in.Latitude = 91 }, "latitude"},
		{"health score over 100", func(in *Input) { v := 101; in.HealthScore = &v }, "health_score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockAssetRepo{createFn: func(ctx context.Context, a *model.Asset) error {
				t.Fatal("create must not be called")
				return nil
			}})
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
				t.Fatalf("expected VALIDATION_FAILED, got %v", err)
			}
			if _, ok := apiErr.Fields[tt.field]; !ok {
				t.Errorf("expected field %q in %v", tt.field, apiErr.Fields)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(&mockAssetRepo{})
	_, err := svc.Get(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAssetNotFound {
		t.Fatalf("expected ASSET_NOT_FOUND, got %v", err)
	}
}

func TestList_RejectsUnknownFilter(t *testing.T) {
	svc := NewService(&mockAssetRepo{})
	if _, err := svc.List(context.Background(), "tunnel", ""); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST for type, got %v", err)
	}
	if _, err := svc.List(context.Background(), "", "broken"); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST for status, got %v", err)
	}
}

func TestList_PassesFilter(t *testing.T) {
	var got model.AssetFilter
	svc := NewService(&mockAssetRepo{listFn: func(ctx context.Context, filter model.AssetFilter) ([]*model.Asset, error) {
		got = filter
		return nil, nil
	}})
	if _, err := svc.List(context.Background(), "bridge", "warning"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != model.AssetTypeBridge || got.Status != model.AssetStatusWarning {
		t.Errorf("filter = %+v", got)
	}
}

func TestUpdate_PreservesIdentity(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockAssetRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Asset, error) {
			return &model.Asset{ID: id, Name: "Old", CreatedAt: created}, nil
		},
	}
	svc := NewService(repo)

	in := validInput()
	in.Status = "maintenance"
	a, err := svc.Update(context.Background(), "asset-1", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != "asset-1" || !a.CreatedAt.Equal(created) {
		t.Errorf("identity changed: %+v", a)
	}
	if a.Name != "Maeslantkering" || a.Status != model.AssetStatusMaintenance {
		t.Errorf("fields not applied: %+v", a)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := NewService(&mockAssetRepo{deleteFn: func(ctx context.Context, id string) (bool, error) {
		return false, nil
	}})
	err := svc.Delete(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAssetNotFound {
		t.Fatalf("expected ASSET_NOT_FOUND, got %v", err)
	}
}

func TestSeed_EmptyCollection(t *testing.T) {
	var assets []*model.Asset
	assetRepo := &mockAssetRepo{createFn: func(ctx context.Context, a *model.Asset) error {
		assets = append(assets, a)
		return nil
	}}
	alertRepo := &mockAlertRepo{}
	seeder := NewSeeder(assetRepo, alertRepo)

	result, err := seeder.Seed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Assets != len(demoAssets) || len(assets) != len(demoAssets) {
		t.Errorf("assets = %d, want %d", result.Assets, len(demoAssets))
	}
	if result.Alerts != len(demoAlerts) || len(alertRepo.created) != len(demoAlerts) {
		t.Errorf("alerts = %d, want %d", result.Alerts, len(demoAlerts))
	}

	ids := make(map[string]bool)
	for _, a := range assets {
		ids[a.ID] = true
	}
	for _, al := range alertRepo.created {
		if !ids[al.AssetID] {
			t.Errorf("alert %q references unknown asset %q", al.Title, al.AssetID)
		}
		if al.Status != model.AlertStatusActive {
			t.Errorf("seeded alert status = %q, want active", al.Status)
		}
	}
}

func TestSeed_SkipsWhenAssetsExist(t *testing.T) {
	assetRepo := &mockAssetRepo{
		countFn: func(ctx context.Context) (int, error) { return 3, nil },
		createFn: func(ctx context.Context, a *model.Asset) error {
			t.Fatal("create must not be called")
			return nil
		},
	}
	seeder := NewSeeder(assetRepo, &mockAlertRepo{})

	result, err := seeder.Seed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Assets != 0 || result.Alerts != 0 {
		t.Errorf("result = %+v, want zero counts", result)
	}
}
