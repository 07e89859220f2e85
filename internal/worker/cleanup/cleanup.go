// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// 期限切れのセッションは解決時に SESSION_EXPIRED として扱われるため、
// 削除の有無は利用者から観測できる挙動に影響しない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionSweeper は期限切れセッションを削除するインターフェース。
// repository.SessionRepositoryが満たす。
type SessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweepMetrics は削除件数の計測インターフェース。metrics.Collectorが満たす。
type SweepMetrics interface {
	RecordSessionsSwept(count int64)
}

type noopMetrics struct{}

func (noopMetrics) RecordSessionsSwept(int64) {}

// Job は期限切れセッションの削除ジョブ。冪等であり、削除対象がなくてもエラーにならない。
type Job struct {
	sessions SessionSweeper
	logger   *slog.Logger
	metrics  SweepMetrics
	now      func() time.Time
}

// NewJob はJobを生成する。metricsがnilの場合は計測しない。
func NewJob(sessions SessionSweeper, logger *slog.Logger, metrics SweepMetrics) *Job {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Job{
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Run は現在時刻の時点で期限切れのセッションを削除する。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	j.metrics.RecordSessionsSwept(deleted)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回、その後intervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。実行の失敗はログに記録して継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	j.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *Job) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("次回の実行間隔で再試行します", slog.String("error", err.Error()))
	}
}
