package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/api/handler"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/config"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/infrastructure/memory"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/logger"
)

// storage は選択した永続化ドライバーのリポジトリ一式
type storage struct {
	txManager    transaction.Manager
	concerts     concert.Repository
	reservations reservation.Repository
	users        user.Repository
	checks       map[string]handler.HealthCheck
	close        func()
}

func openStorage(cfg *config.Config) (*storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("インメモリストアで起動します。再起動でデータは失われます")
		store := memory.NewStore()
		return &storage{
			txManager:    memory.NewTxManager(store),
			concerts:     memory.NewConcertRepository(store),
			reservations: memory.NewReservationRepository(store),
			users:        memory.NewUserRepository(store),
			checks:       map[string]handler.HealthCheck{},
			close:        func() {},
		}, nil

	case config.StoragePostgres:
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("DB接続に失敗: %w", err)
		}
		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
		}
		logger.Info("DBに接続", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
		return &storage{
			txManager:    postgres.NewTxManager(db),
			concerts:     postgres.NewConcertRepository(db),
			reservations: postgres.NewReservationRepository(db),
			users:        postgres.NewUserRepository(db),
			checks: map[string]handler.HealthCheck{
				"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			},
			close: func() {
				if err := db.Close(); err != nil {
					logger.Warn("DBクローズエラー", zap.Error(err))
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("未対応の STORAGE_DRIVER: %q", cfg.Storage)
}
