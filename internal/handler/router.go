package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/digitaldelta/internal/middleware"
	"github.com/hitoshi/digitaldelta/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPMetrics       middleware.HTTPMetrics
	// MetricsHandler は/metricsのハンドラー。nilの場合はルートを登録しない。
	MetricsHandler http.Handler
	// CSRF はnilの場合にCSRF検証を行わない。
	CSRF *middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	UserService      UserServiceInterface
	AssetService     AssetServiceInterface
	Seeder           SeederInterface
	AlertService     AlertServiceInterface
	SensorService    SensorServiceInterface
	AnalyticsService AnalyticsServiceInterface
	ContactService   ContactServiceInterface
	SystemService    SystemServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → CORS → SecurityHeaders → Recovery → Logging → Metrics
//
// 認証が必要なルートにはさらに以下を適用する:
//
//	Session → (CSRF) → RateLimit(General) → RequireRole
//
// 認証ルート（/api/auth/register, login, session）はIPアドレス単位のレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	assetHandler := NewAssetHandler(deps.AssetService, deps.Seeder)
	alertHandler := NewAlertHandler(deps.AlertService)
	sensorHandler := NewSensorHandler(deps.SensorService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)
	contactHandler := NewContactHandler(deps.ContactService)
	systemHandler := NewSystemHandler(deps.SystemService)

	session := middleware.NewSessionMiddleware(deps.UserResolver)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	adminOrManager := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	r.Route("/api", func(r chi.Router) {
		// --- 認証不要のルート ---
		r.Get("/", systemHandler.Info)
		r.Get("/health", systemHandler.Health)
		r.Get("/status", systemHandler.ListStatusChecks)
		r.Post("/status", systemHandler.CreateStatusCheck)
		r.Get("/cesium/token", systemHandler.CesiumToken)
		r.Post("/contact", contactHandler.Submit)
		if deps.CSRF != nil {
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(*deps.CSRF))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.AuthMiddleware())
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/session", authHandler.Session)
			})
			// 無効なセッションでもCookieをクリアできるよう認証を要求しない
			r.Post("/logout", authHandler.Logout)
			r.With(session).Get("/me", authHandler.Me)
		})

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(session)
			if deps.CSRF != nil {
				r.Use(middleware.NewCSRFMiddleware(*deps.CSRF))
			}
			r.Use(deps.RateLimiter.GeneralMiddleware())

			// ユーザー管理
			r.Route("/users", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", userHandler.ListUsers)
				r.Put("/{id}/role", userHandler.ChangeRole)
			})

			// 資産管理
			r.Route("/assets", func(r chi.Router) {
				r.Get("/", assetHandler.ListAssets)
				r.With(adminOrManager).Post("/", assetHandler.CreateAsset)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", assetHandler.GetAsset)
					r.With(adminOrManager).Put("/", assetHandler.UpdateAsset)
					r.With(adminOnly).Delete("/", assetHandler.DeleteAsset)
				})
			})

			// アラート管理
			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", alertHandler.ListAlerts)
				r.With(adminOrManager).Post("/", alertHandler.CreateAlert)
				r.Put("/{id}/acknowledge", alertHandler.AcknowledgeAlert)
				r.With(adminOrManager).Put("/{id}/resolve", alertHandler.ResolveAlert)
			})

			// センサーデータ
			r.Route("/sensors", func(r chi.Router) {
				r.Get("/live/{asset_id}", sensorHandler.Live)
				r.Post("/readings", sensorHandler.IngestReading)
				r.Get("/{asset_id}/history", sensorHandler.History)
			})

			// 集計
			r.Get("/analytics/overview", analyticsHandler.Overview)
			r.Get("/analytics/maintenance-forecast", analyticsHandler.MaintenanceForecast)

			r.With(adminOnly).Get("/contact", contactHandler.List)
			r.With(adminOnly).Post("/seed", assetHandler.Seed)
		})
	})

	return r
}
