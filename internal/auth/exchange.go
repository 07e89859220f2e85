package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hitoshi/digitaldelta/internal/model"
)

// emergentSessionDataURL は外部IdPのセッションデータ取得エンドポイント。
// 交換コードの送信先であるため設定で差し替えられないようにしている。
const emergentSessionDataURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"

// sessionIDHeader は交換コードを渡すヘッダー名。
const sessionIDHeader = "X-Session-ID"

// maxSessionDataBytes はレスポンスボディの読み込み上限。
const maxSessionDataBytes = 1 << 20

// ExternalIdentity は外部IdPから取得した本人情報を表す。
type ExternalIdentity struct {
	ProviderUserID string
	Email          string
	Name           string
	Picture        *string
	// SessionToken はIdPが発行したセッショントークン。発行されない場合は空。
	SessionToken string
}

// IdentityProvider は交換コードを本人情報に解決する外部IdPのインターフェース。
type IdentityProvider interface {
	// FetchSessionData は交換コードに対応する本人情報を取得する。
	// コードが拒否された場合は ErrInvalidExchangeCode、
	// IdPに到達できない場合は ErrUpstreamUnavailable に一致するエラーを返す。
	FetchSessionData(ctx context.Context, code string) (*ExternalIdentity, error)
}

// EmergentProviderConfig はEmergentProviderの設定。
type EmergentProviderConfig struct {
	// Timeout は1回の問い合わせのタイムアウト。
	Timeout time.Duration
	// Transport はHTTPトランスポート。nilの場合はhttp.DefaultTransportを使用する。
	Transport http.RoundTripper
	// BreakerTimeout はサーキットブレーカーがOpenに留まる時間。
	BreakerTimeout time.Duration
	// BreakerFailures はOpenに遷移する連続失敗回数。
	BreakerFailures uint32
}

// EmergentProvider はEmergent認証サービスを使ったIdentityProvider実装。
// 交換コードは使い捨てのため再試行は行わない。
type EmergentProvider struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*ExternalIdentity]
}

// NewEmergentProvider はEmergentProviderを生成する。
func NewEmergentProvider(cfg EmergentProviderConfig) *EmergentProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	failures := cfg.BreakerFailures
	settings := gobreaker.Settings{
		Name:        "identity-provider",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// 交換コードの拒否はIdPの正常応答であり、障害として数えない
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, model.ErrInvalidExchangeCode)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &EmergentProvider{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			// リダイレクト先に交換コードを送らない
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		breaker: gobreaker.NewCircuitBreaker[*ExternalIdentity](settings),
	}
}

// emergentSessionData はセッションデータエンドポイントのレスポンス。
type emergentSessionData struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// FetchSessionData は交換コードを本人情報に解決する。
func (p *EmergentProvider) FetchSessionData(ctx context.Context, code string) (*ExternalIdentity, error) {
	identity, err := p.breaker.Execute(func() (*ExternalIdentity, error) {
		return p.fetch(ctx, code)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		slog.Warn("identity provider circuit open", slog.String("error", err.Error()))
		return nil, model.NewUpstreamUnavailableError()
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (p *EmergentProvider) fetch(ctx context.Context, code string) (*ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, emergentSessionDataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session data request: %w", err)
	}
	req.Header.Set(sessionIDHeader, code)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Error("identity provider request failed", slog.String("error", err.Error()))
		return nil, model.NewUpstreamUnavailableError()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Info("identity provider rejected exchange code", slog.Int("status", resp.StatusCode))
		return nil, model.NewInvalidExchangeCodeError()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSessionDataBytes))
	if err != nil {
		slog.Error("failed to read identity provider response", slog.String("error", err.Error()))
		return nil, model.NewUpstreamUnavailableError()
	}

	var data emergentSessionData
	if err := json.Unmarshal(body, &data); err != nil {
		slog.Warn("identity provider returned malformed payload", slog.String("error", err.Error()))
		return nil, model.NewInvalidExchangeCodeError()
	}
	if data.Email == "" || data.Name == "" {
		slog.Warn("identity provider payload missing email or name")
		return nil, model.NewInvalidExchangeCodeError()
	}

	identity := &ExternalIdentity{
		ProviderUserID: data.ID,
		Email:          data.Email,
		Name:           data.Name,
		SessionToken:   data.SessionToken,
	}
	if data.Picture != "" {
		picture := data.Picture
		identity.Picture = &picture
	}
	return identity, nil
}

// compile-time interface check
var _ IdentityProvider = (*EmergentProvider)(nil)
