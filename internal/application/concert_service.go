package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-concert-ticket-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/metrics"
)

const defaultAvailabilityCacheTTL = 30 * time.Second

type ConcertService struct {
	txManager       transaction.Manager
	concertRepo     concert.Repository
	reservationRepo reservation.Repository
	cache           redisinfra.AvailabilityCacheInterface
	cacheTTL        time.Duration
	metrics         *metrics.Metrics
}

// ConcertOption は ConcertService の任意設定
type ConcertOption func(*ConcertService)

// WithAvailabilityCache は空席状況キャッシュを設定する
func WithAvailabilityCache(cache redisinfra.AvailabilityCacheInterface, ttl time.Duration) ConcertOption {
	return func(s *ConcertService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithConcertMetrics はメトリクスを設定する
func WithConcertMetrics(m *metrics.Metrics) ConcertOption {
	return func(s *ConcertService) { s.metrics = m }
}

func NewConcertService(txm transaction.Manager, cr concert.Repository, rr reservation.Repository, opts ...ConcertOption) *ConcertService {
	s := &ConcertService{
		txManager:       txm,
		concertRepo:     cr,
		reservationRepo: rr,
		cacheTTL:        defaultAvailabilityCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateConcertInput struct {
	Name        string
	Description string
	TotalSeats  int
}

func (s *ConcertService) Create(ctx context.Context, input CreateConcertInput) (*concert.Concert, error) {
	c := concert.NewConcert(input.Name, input.Description, input.TotalSeats)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.concertRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("コンサート作成に失敗しました: %w", err)
	}
	c.Reservations = []*reservation.Reservation{}
	logger.Info("コンサートを作成", zap.Int64("concert_id", c.ID), zap.Int("total_seats", c.TotalSeats))
	return c, nil
}

// FindAll は予約を付与したコンサート一覧を新しい順に返す
func (s *ConcertService) FindAll(ctx context.Context) ([]*concert.Concert, error) {
	concerts, err := s.concertRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.attachReservations(ctx, concerts); err != nil {
		return nil, err
	}
	return concerts, nil
}

// FindOne は予約を付与したコンサートを返す
func (s *ConcertService) FindOne(ctx context.Context, id int64) (*concert.Concert, error) {
	c, err := s.concertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachReservations(ctx, []*concert.Concert{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByIDs は予約を付与せずにコンサートをID引きで返す
func (s *ConcertService) FindByIDs(ctx context.Context, ids []int64) (map[int64]*concert.Concert, error) {
	out := make(map[int64]*concert.Concert, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	concerts, err := s.concertRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range concerts {
		out[c.ID] = c
	}
	return out, nil
}

func (s *ConcertService) attachReservations(ctx context.Context, concerts []*concert.Concert) error {
	if len(concerts) == 0 {
		return nil
	}
	ids := make([]int64, len(concerts))
	for i, c := range concerts {
		ids[i] = c.ID
	}
	rs, err := s.reservationRepo.ListByConcertIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("予約取得に失敗: %w", err)
	}
	grouped := groupByConcert(rs)
	for _, c := range concerts {
		c.Reservations = grouped[c.ID]
		if c.Reservations == nil {
			c.Reservations = []*reservation.Reservation{}
		}
	}
	return nil
}

// Remove は有効な予約がないコンサートを、付随する予約ごと削除する
func (s *ConcertService) Remove(ctx context.Context, id int64) error {
	c, err := s.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if c.HasActiveReservations() {
		return concert.ErrConcertHasActiveReservations
	}

	var purged int
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		// 行ロック後に再確認し、並行して作られた予約を消さない
		if _, err := s.concertRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		active, err := s.reservationRepo.CountActiveByConcertID(ctx, tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return concert.ErrConcertHasActiveReservations
		}
		if purged, err = s.reservationRepo.DeleteByConcertID(ctx, tx, id); err != nil {
			return err
		}
		return s.concertRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.InvalidateAvailability(ctx, id)
	logger.Info("コンサートを削除", zap.Int64("concert_id", id), zap.Int("purged_reservations", purged))
	return nil
}

// IncrementReservedSeats は呼び出し元のトランザクション内で予約数を1増やす
// 満席なら concert.ErrConcertFullyBooked
func (s *ConcertService) IncrementReservedSeats(ctx context.Context, tx transaction.Tx, id int64) error {
	return s.concertRepo.IncrementReservedSeats(ctx, tx, id)
}

// DecrementReservedSeats は呼び出し元のトランザクション内で予約数を1減らす
func (s *ConcertService) DecrementReservedSeats(ctx context.Context, tx transaction.Tx, id int64) error {
	return s.concertRepo.DecrementReservedSeats(ctx, tx, id)
}

// Availability は空席状況を返す。キャッシュ障害時はDBにフォールバックする
func (s *ConcertService) Availability(ctx context.Context, id int64) (*concert.Availability, error) {
	if s.cache != nil {
		a, err := s.cache.Get(ctx, id)
		if err == nil {
			s.countCache("hit")
			logger.Debug("キャッシュヒット", zap.Int64("concert_id", id))
			return a, nil
		}
		if errors.Is(err, redisinfra.ErrCacheMiss) {
			s.countCache("miss")
		} else {
			s.countCache("error")
			logger.Warn("キャッシュ取得エラー", zap.Int64("concert_id", id), zap.Error(err))
		}
	}

	c, err := s.concertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a := c.Availability()

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, a, s.cacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Int64("concert_id", id), zap.Error(cacheErr))
		}
	}
	return &a, nil
}

// InvalidateAvailability はコンサートの空席キャッシュを破棄する
func (s *ConcertService) InvalidateAvailability(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.Int64("concert_id", id), zap.Error(err))
	}
}

// ReconcileReservedSeats は予約数を有効な予約の件数に揃え、修正したコンサート数を返す
func (s *ConcertService) ReconcileReservedSeats(ctx context.Context) (int, error) {
	ids, err := s.concertRepo.SyncReservedSeats(ctx)
	if err != nil {
		return 0, fmt.Errorf("予約数の補正に失敗: %w", err)
	}
	for _, id := range ids {
		s.InvalidateAvailability(ctx, id)
	}
	if s.metrics != nil && len(ids) > 0 {
		s.metrics.ReservedSeatsReconciledTotal.Add(float64(len(ids)))
	}
	return len(ids), nil
}

func (s *ConcertService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.AvailabilityCacheTotal.WithLabelValues(result).Inc()
	}
}
