package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/api/handler"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/api/router"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/config"
	redisinfra "github.com/sanosuguru/go-concert-ticket-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/infrastructure/rabbitmq"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/worker"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.App.Env, cfg.App.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Fatal("サーバー起動エラー", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Init()

	// 永続化
	st, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	checks := st.checks
	var (
		concertOpts     = []application.ConcertOption{application.WithConcertMetrics(m)}
		reservationOpts = []application.ReservationOption{application.WithReservationMetrics(m)}
	)

	// Redis（任意）: 空席キャッシュと予約ロック
	if cfg.Redis.Enabled {
		rc, err := redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("Redis接続に失敗: %w", err)
		}
		defer rc.Close()
		logger.Info("Redisに接続", zap.String("addr", cfg.Redis.Addr()))

		checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) }
		concertOpts = append(concertOpts,
			application.WithAvailabilityCache(redisinfra.NewAvailabilityCache(rc), cfg.Reservation.AvailabilityCacheTTL))
		reservationOpts = append(reservationOpts,
			application.WithLockManager(redisinfra.NewLockManager(rc), application.LockOptions{
				TTL:           cfg.Reservation.LockTTL,
				MaxRetries:    cfg.Reservation.LockRetries,
				RetryInterval: cfg.Reservation.LockRetryInterval,
			}))
	}

	// RabbitMQ（任意）: 予約イベント配信
	if cfg.RabbitMQ.Enabled() {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return fmt.Errorf("RabbitMQ接続に失敗: %w", err)
		}
		defer pub.Close()
		logger.Info("RabbitMQに接続", zap.String("queue", cfg.RabbitMQ.Queue))
		reservationOpts = append(reservationOpts, application.WithEventPublisher(pub))
	}

	// サービス
	concertService := application.NewConcertService(st.txManager, st.concerts, st.reservations, concertOpts...)
	reservationService := application.NewReservationService(st.txManager, st.reservations, st.users, concertService, reservationOpts...)
	userService := application.NewUserService(st.users, st.reservations, concertService)

	// ワーカー（任意）
	if cfg.Worker.ReconcileInterval > 0 {
		reconciler := worker.NewSeatCountReconciler(concertService, cfg.Worker.ReconcileInterval)
		go reconciler.Start(ctx)
		defer reconciler.Stop()
	}

	e := router.New(router.Handlers{
		Concert:     handler.NewConcertHandler(concertService),
		Reservation: handler.NewReservationHandler(reservationService),
		User:        handler.NewUserHandler(userService),
		Health:      handler.NewHealthHandler(checks),
	}, router.Options{
		CORSAllowOrigins: cfg.Server.CORSAllowOrigins,
		Metrics:          m,
		MetricsAuth:      cfg.Metrics,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバー起動",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", string(cfg.Storage)),
			zap.String("env", cfg.App.Env),
		)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// シグナル待機
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("サーバーをシャットダウンしています...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}

	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}
