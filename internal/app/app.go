package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/digitaldelta/internal/alert"
	"github.com/hitoshi/digitaldelta/internal/analytics"
	"github.com/hitoshi/digitaldelta/internal/asset"
	"github.com/hitoshi/digitaldelta/internal/auth"
	"github.com/hitoshi/digitaldelta/internal/config"
	"github.com/hitoshi/digitaldelta/internal/contact"
	"github.com/hitoshi/digitaldelta/internal/database"
	"github.com/hitoshi/digitaldelta/internal/handler"
	"github.com/hitoshi/digitaldelta/internal/logger"
	"github.com/hitoshi/digitaldelta/internal/metrics"
	"github.com/hitoshi/digitaldelta/internal/middleware"
	"github.com/hitoshi/digitaldelta/internal/repository"
	"github.com/hitoshi/digitaldelta/internal/security"
	"github.com/hitoshi/digitaldelta/internal/sensor"
	"github.com/hitoshi/digitaldelta/internal/system"
	"github.com/hitoshi/digitaldelta/internal/user"
	"github.com/hitoshi/digitaldelta/internal/worker/cleanup"
)

const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込んでLOG_LEVELを反映する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ログレベルの反映
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// SIGINTまたはSIGTERMでキャンセルされるコンテキストでRunContextを呼び出す。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, w, args)
}

// RunContext はコマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// serveとworkerはctxがキャンセルされるまでブロックする。
func RunContext(ctx context.Context, w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(ctx, "http://localhost:"+port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("session_store", cfg.SessionStore),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)
	return db, nil
}

// openSessionStore はSESSION_STOREに応じたセッションリポジトリを返す。
// 返却するclose関数はRedis接続を閉じる。Postgresの場合は何もしない。
func openSessionStore(ctx context.Context, cfg *config.Config, db *sql.DB) (repository.SessionRepository, func() error, error) {
	if cfg.SessionStore != config.SessionStoreRedis {
		return repository.NewPostgresSessionRepo(db), func() error { return nil }, nil
	}

	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis session store connected", slog.String("addr", opts.Addr))
	return repository.NewRedisSessionRepo(client), client.Close, nil
}

// newRegistry はGo/プロセスのメトリクスを含むPrometheusレジストリを生成する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. ストア
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sessionRepo, closeSessions, err := openSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	assetRepo := repository.NewPostgresAssetRepo(db)
	alertRepo := repository.NewPostgresAlertRepo(db)
	readingRepo := repository.NewPostgresSensorReadingRepo(db)
	contactRepo := repository.NewPostgresContactRepo(db)
	statusRepo := repository.NewPostgresStatusCheckRepo(db)

	// 3. メトリクス
	registry := newRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 認証コア
	sessions := auth.NewManager(sessionRepo, userRepo, cfg.SessionTTL, auth.WithMetrics(collector))
	provider := auth.NewEmergentProvider(auth.EmergentProviderConfig{Timeout: cfg.IdentityTimeout})
	authService := auth.NewService(userRepo, sessions, auth.NewBcryptHasher(cfg.BcryptCost), provider)

	// 5. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	alertService := alert.NewService(alertRepo, assetRepo, sanitizer)

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		UserResolver:      sessions,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		HTTPMetrics:       collector,
		MetricsHandler:    metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge(),
		},

		UserService:      user.NewService(userRepo),
		AssetService:     asset.NewService(assetRepo),
		Seeder:           asset.NewSeeder(assetRepo, alertRepo),
		AlertService:     alertService,
		SensorService:    sensor.NewService(readingRepo, assetRepo, alertService),
		AnalyticsService: analytics.NewService(assetRepo, alertRepo),
		ContactService:   contact.NewService(contactRepo, sanitizer),
		SystemService:    system.NewService(db, statusRepo, cfg.CesiumIonToken),
	}
	if cfg.CSRFEnabled {
		deps.CSRF = &middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		}
	}

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの削除ジョブをCLEANUP_INTERVALごとに実行し、ctxのキャンセルで停止する。
// Redisストアでは期限切れキーがTTLで消えるため、ジョブは何も削除しない。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sessionRepo, closeSessions, err := openSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()

	collector := metrics.NewCollector(newRegistry())
	job := cleanup.NewJob(sessionRepo, slog.Default(), collector)

	slog.Info("worker starting", slog.Duration("cleanup_interval", cfg.CleanupInterval))
	job.Start(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// baseURLの/api/healthにHTTPリクエストを送り、200以外をエラーとする。
func runHealthcheck(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
