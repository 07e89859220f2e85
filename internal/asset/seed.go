package asset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/digitaldelta/internal/model"
	"github.com/hitoshi/digitaldelta/internal/repository"
)

// SeedResult はデモデータ投入の結果。
type SeedResult struct {
	Message string
	Assets  int
	Alerts  int
}

type demoAsset struct {
	name              string
	assetType         model.AssetType
	location          string
	lat, lng          float64
	status            model.AssetStatus
	health            int
	inspectedDaysAgo  int
	maintenanceInDays int
}

// demoAssets はデモ用のオランダの水利・交通インフラ資産。
var demoAssets = []demoAsset{
	{"Maeslantkering", model.AssetTypeBarrier, "Hoek van Holland", 51.9542, 4.1622, model.AssetStatusOperational, 94, 21, 45},
	{"Oosterscheldekering", model.AssetTypeBarrier, "Zeeland", 51.6506, 3.7181, model.AssetStatusOperational, 88, 35, 60},
	{"Haringvlietdam", model.AssetTypeBarrier, "Hellevoetsluis", 51.8317, 4.0372, model.AssetStatusWarning, 67, 60, 12},
	{"Prinses Beatrixsluis", model.AssetTypeLock, "Nieuwegein", 52.0125, 5.0958, model.AssetStatusMaintenance, 72, 10, 5},
	{"Zeesluis IJmuiden", model.AssetTypeLock, "IJmuiden", 52.4636, 4.5969, model.AssetStatusOperational, 91, 14, 80},
	{"Erasmusbrug", model.AssetTypeBridge, "Rotterdam", 51.9094, 4.4868, model.AssetStatusOperational, 85, 40, 30},
	{"Van Brienenoordbrug", model.AssetTypeBridge, "Rotterdam", 51.9011, 4.5369, model.AssetStatusCritical, 41, 90, 3},
	{"Zeelandbrug", model.AssetTypeBridge, "Zierikzee", 51.5970, 3.9130, model.AssetStatusWarning, 63, 75, 20},
	{"Afsluitdijk A7", model.AssetTypeRoad, "Den Oever", 53.0736, 5.3325, model.AssetStatusOperational, 79, 50, 120},
	{"A12 Gouda-Utrecht", model.AssetTypeRoad, "Gouda", 52.0435, 4.7330, model.AssetStatusOperational, 83, 28, 95},
}

type demoAlert struct {
	assetName   string
	alertType   model.AlertType
	severity    model.AlertSeverity
	title       string
	description string
}

var demoAlerts = []demoAlert{
	{"Van Brienenoordbrug", model.AlertTypeCritical, model.SeverityCritical,
		"Verhoogde trillingen brugdek", "Trillingsniveau boven kritieke drempel gemeten op het beweegbare deel."},
	{"Haringvlietdam", model.AlertTypePredictive, model.SeverityHigh,
		"Voorspeld onderhoud spuisluizen", "Model voorspelt slijtage van de schuifafdichtingen binnen 30 dagen."},
	{"Zeelandbrug", model.AlertTypeWarning, model.SeverityMedium,
		"Corrosie op pijlers", "Inspectie toont beginnende corrosie bij pijlers 12 tot en met 15."},
	{"Prinses Beatrixsluis", model.AlertTypeWarning, model.SeverityLow,
		"Vertraagde sluisdeurbeweging", "Sluitingstijd van de noorddeur is 8% langer dan gemiddeld."},
	{"Maeslantkering", model.AlertTypePredictive, model.SeverityMedium,
		"Stormseizoen nadert", "Controle van de kogelgewrichten aanbevolen voor het stormseizoen."},
}

// Seeder はデモデータを投入する。
type Seeder struct {
	assetRepo repository.AssetRepository
	alertRepo repository.AlertRepository
	now       func() time.Time
}

// NewSeeder はSeederを生成する。
func NewSeeder(assetRepo repository.AssetRepository, alertRepo repository.AlertRepository) *Seeder {
	return &Seeder{assetRepo: assetRepo, alertRepo: alertRepo, now: time.Now}
}

// Seed は資産が1件も存在しない場合にデモ用の資産とアラートを投入する。
// 既に資産が存在する場合は何も投入しない。
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	count, err := s.assetRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("資産数の取得に失敗しました: %w", err)
	}
	if count > 0 {
		return &SeedResult{Message: "Demo data already present"}, nil
	}

	now := s.now().UTC()
	byName := make(map[string]*model.Asset, len(demoAssets))
	for _, d := range demoAssets {
		inspected := now.AddDate(0, 0, -d.inspectedDaysAgo)
		maintenance := now.AddDate(0, 0, d.maintenanceInDays)
		a := &model.Asset{
			ID:              uuid.New().String(),
			Name:            d.name,
			Type:            d.assetType,
			Location:        d.location,
			Latitude:        d.lat,
			Longitude:       d.lng,
			Status:          d.status,
			HealthScore:     d.health,
			LastInspection:  &inspected,
			NextMaintenance: &maintenance,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.assetRepo.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("デモ資産の作成に失敗しました: %w", err)
		}
		byName[a.Name] = a
	}

	alerts := 0
	for i, d := range demoAlerts {
		a, ok := byName[d.assetName]
		if !ok {
			continue
		}
		alert := &model.Alert{
			ID:          uuid.New().String(),
			AssetID:     a.ID,
			AssetName:   a.Name,
			Type:        d.alertType,
			Severity:    d.severity,
			Title:       d.title,
			Description: d.description,
			Status:      model.AlertStatusActive,
			// 一覧で並びが安定するよう作成日時をずらす
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		}
		if err := s.alertRepo.Create(ctx, alert); err != nil {
			return nil, fmt.Errorf("デモアラートの作成に失敗しました: %w", err)
		}
		alerts++
	}

	slog.Info("demo data seeded",
		slog.Int("assets", len(byName)),
		slog.Int("alerts", alerts),
	)
	return &SeedResult{
		Message: "Demo data seeded successfully",
		Assets:  len(byName),
		Alerts:  alerts,
	}, nil
}
