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
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
	redisinfra "github.com/sanosuguru/go-concert-ticket-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/metrics"
)

// EventPublisher は予約ドメインイベントの配信先
type EventPublisher interface {
	Publish(ctx context.Context, event reservation.Event) error
}

// LockOptions は予約ロックの取得設定
type LockOptions struct {
	TTL           time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

var defaultLockOptions = LockOptions{
	TTL:           10 * time.Second,
	MaxRetries:    3,
	RetryInterval: 100 * time.Millisecond,
}

type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	userRepo        user.Repository
	concerts        *ConcertService
	lockManager     redisinfra.LockManagerInterface
	lockOpts        LockOptions
	publisher       EventPublisher
	metrics         *metrics.Metrics
}

// ReservationOption は ReservationService の任意設定
type ReservationOption func(*ReservationService)

// WithLockManager はユーザー・コンサート単位の分散ロックを設定する
func WithLockManager(lm redisinfra.LockManagerInterface, opts LockOptions) ReservationOption {
	return func(s *ReservationService) {
		s.lockManager = lm
		if opts.TTL > 0 {
			s.lockOpts.TTL = opts.TTL
		}
		if opts.MaxRetries > 0 {
			s.lockOpts.MaxRetries = opts.MaxRetries
		}
		if opts.RetryInterval > 0 {
			s.lockOpts.RetryInterval = opts.RetryInterval
		}
	}
}

// WithEventPublisher は予約イベントの配信先を設定する
func WithEventPublisher(p EventPublisher) ReservationOption {
	return func(s *ReservationService) { s.publisher = p }
}

// WithReservationMetrics はメトリクスを設定する
func WithReservationMetrics(m *metrics.Metrics) ReservationOption {
	return func(s *ReservationService) { s.metrics = m }
}

func NewReservationService(txm transaction.Manager, rr reservation.Repository, ur user.Repository, cs *ConcertService, opts ...ReservationOption) *ReservationService {
	s := &ReservationService{
		txManager:       txm,
		reservationRepo: rr,
		userRepo:        ur,
		concerts:        cs,
		lockOpts:        defaultLockOptions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateReservationInput struct {
	UserID    int64
	ConcertID int64
}

// Create は有効な予約を1件作成し、コンサート・ユーザーを付与して返す
func (s *ReservationService) Create(ctx context.Context, input CreateReservationInput) (*ReservationDetail, error) {
	res, err := s.create(ctx, input)
	s.countReservation(err)
	if err != nil {
		return nil, err
	}

	s.concerts.InvalidateAvailability(ctx, res.ConcertID)
	s.publish(ctx, reservation.EventCreated, res)
	logger.Info("予約を作成",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", res.UserID),
		zap.Int64("concert_id", res.ConcertID),
	)

	return s.detail(ctx, res.ID, true)
}

func (s *ReservationService) create(ctx context.Context, input CreateReservationInput) (*reservation.Reservation, error) {
	res := reservation.NewReservation(input.UserID, input.ConcertID)
	if err := res.Validate(); err != nil {
		return nil, err
	}

	// 同一ユーザー・コンサートの同時リクエストを直列化
	if s.lockManager != nil {
		lock, err := s.acquireLock(ctx, redisinfra.ReservationLockKey(input.UserID, input.ConcertID))
		if err != nil {
			return nil, err
		}
		defer s.releaseLock(ctx, lock)
	}

	c, err := s.concerts.FindOne(ctx, input.ConcertID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}
	if c.IsFullyBooked() {
		return nil, concert.ErrConcertFullyBooked
	}

	existing, err := s.reservationRepo.FindActive(ctx, input.UserID, input.ConcertID)
	if err == nil && existing != nil {
		return nil, reservation.ErrDuplicateReservation
	}
	if err != nil && !errors.Is(err, reservation.ErrReservationNotFound) {
		return nil, fmt.Errorf("重複チェックに失敗: %w", err)
	}

	// 座席数の条件付き加算と予約作成は同一トランザクション
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		if err := s.concerts.IncrementReservedSeats(ctx, tx, input.ConcertID); err != nil {
			return err
		}
		return s.reservationRepo.Create(ctx, tx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ReservationService) acquireLock(ctx context.Context, key string) (redisinfra.Lock, error) {
	start := time.Now()
	lock, err := s.lockManager.AcquireLockWithRetry(ctx, key, s.lockOpts.TTL, s.lockOpts.MaxRetries, s.lockOpts.RetryInterval)
	s.observeLock("acquire", start, err)
	if err != nil {
		if errors.Is(err, redisinfra.ErrLockNotAcquired) {
			return nil, reservation.ErrReservationInProgress
		}
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	return lock, nil
}

func (s *ReservationService) releaseLock(ctx context.Context, lock redisinfra.Lock) {
	start := time.Now()
	err := lock.Release(ctx)
	s.observeLock("release", start, err)
	if err != nil {
		logger.Warn("ロック解放エラー", zap.Error(err))
	}
}

// FindAll は全予約をコンサート・ユーザー付きで新しい順に返す
func (s *ReservationService) FindAll(ctx context.Context) ([]*ReservationDetail, error) {
	rs, err := s.reservationRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, rs, true)
}

// FindByUser はユーザーの全予約をコンサート付きで新しい順に返す
func (s *ReservationService) FindByUser(ctx context.Context, userID int64) ([]*ReservationDetail, error) {
	rs, err := s.reservationRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, rs, false)
}

type CancelReservationInput struct {
	ReservationID int64
	UserID        int64
}

// Cancel は本人の有効な予約をキャンセルし、予約数を戻す
func (s *ReservationService) Cancel(ctx context.Context, input CancelReservationInput) (*ReservationDetail, error) {
	res, err := s.cancel(ctx, input)
	s.countCancellation(err)
	if err != nil {
		return nil, err
	}

	s.concerts.InvalidateAvailability(ctx, res.ConcertID)
	s.publish(ctx, reservation.EventCancelled, res)
	logger.Info("予約をキャンセル",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", res.UserID),
		zap.Int64("concert_id", res.ConcertID),
	)

	return s.detail(ctx, res.ID, false)
}

func (s *ReservationService) cancel(ctx context.Context, input CancelReservationInput) (*reservation.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, input.ReservationID)
	if err != nil {
		return nil, err
	}
	if !res.IsOwnedBy(input.UserID) {
		return nil, reservation.ErrNotReservationOwner
	}
	if err := res.Cancel(); err != nil {
		return nil, err
	}

	// 状態の条件付き更新と座席数の減算は同一トランザクション
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		if err := s.reservationRepo.Cancel(ctx, tx, res); err != nil {
			return err
		}
		return s.concerts.DecrementReservedSeats(ctx, tx, res.ConcertID)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ReservationService) detail(ctx context.Context, id int64, withUser bool) (*ReservationDetail, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ds, err := s.details(ctx, []*reservation.Reservation{res}, withUser)
	if err != nil {
		return nil, err
	}
	return ds[0], nil
}

func (s *ReservationService) details(ctx context.Context, rs []*reservation.Reservation, withUser bool) ([]*ReservationDetail, error) {
	out := make([]*ReservationDetail, 0, len(rs))
	if len(rs) == 0 {
		return out, nil
	}
	concerts, err := s.concerts.FindByIDs(ctx, uniqueConcertIDs(rs))
	if err != nil {
		return nil, fmt.Errorf("コンサート取得に失敗: %w", err)
	}
	users := map[int64]*user.User{}
	if withUser {
		us, err := s.userRepo.GetByIDs(ctx, uniqueUserIDs(rs))
		if err != nil {
			return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
		}
		for _, u := range us {
			users[u.ID] = u
		}
	}
	for _, r := range rs {
		out = append(out, &ReservationDetail{
			Reservation: r,
			Concert:     concerts[r.ConcertID],
			User:        users[r.UserID],
		})
	}
	return out, nil
}

// publish はコミット後のイベント配信。失敗はログのみ
func (s *ReservationService) publish(ctx context.Context, t reservation.EventType, res *reservation.Reservation) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, reservation.NewEvent(t, res)); err != nil {
		logger.Warn("予約イベント配信エラー",
			zap.String("type", string(t)),
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
	}
}

func (s *ReservationService) observeLock(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	s.metrics.DistributedLockDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

func (s *ReservationService) countReservation(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ReservationsTotal.WithLabelValues(reservationStatus(err)).Inc()
}

func (s *ReservationService) countCancellation(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.CancellationsTotal.WithLabelValues(cancellationStatus(err)).Inc()
}

func reservationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, reservation.ErrDuplicateReservation):
		return "duplicate"
	case errors.Is(err, concert.ErrConcertFullyBooked):
		return "fully_booked"
	case errors.Is(err, concert.ErrConcertNotFound), errors.Is(err, user.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, reservation.ErrReservationInProgress):
		return "lock_failed"
	default:
		return "error"
	}
}

func cancellationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, reservation.ErrNotReservationOwner):
		return "forbidden"
	case errors.Is(err, reservation.ErrReservationAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, reservation.ErrReservationNotFound):
		return "not_found"
	default:
		return "error"
	}
}
