package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/logger"
)

type UserService struct {
	userRepo        user.Repository
	reservationRepo reservation.Repository
	concerts        *ConcertService
}

func NewUserService(ur user.Repository, rr reservation.Repository, cs *ConcertService) *UserService {
	return &UserService{userRepo: ur, reservationRepo: rr, concerts: cs}
}

type CreateUserInput struct {
	Name    string
	Email   string
	IsAdmin bool
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*user.User, error) {
	u := user.NewUser(input.Name, input.Email, input.IsAdmin)
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Info("ユーザーを作成", zap.Int64("user_id", u.ID))
	return u, nil
}

// FindAll は予約（コンサート付き）を付与したユーザー一覧を返す
func (s *UserService) FindAll(ctx context.Context) ([]*UserDetail, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	rs, err := s.reservationRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return s.attach(ctx, users, rs)
}

// FindOne は予約（コンサート付き）を付与したユーザーを返す
func (s *UserService) FindOne(ctx context.Context, id int64) (*UserDetail, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rs, err := s.reservationRepo.ListByUserID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	ds, err := s.attach(ctx, []*user.User{u}, rs)
	if err != nil {
		return nil, err
	}
	return ds[0], nil
}

// Remove は予約を持たないユーザーを削除する
// 予約はコンサート削除時にのみ消えるため、予約があれば拒否する
func (s *UserService) Remove(ctx context.Context, id int64) error {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.reservationRepo.CountByUserID(ctx, id)
	if err != nil {
		return fmt.Errorf("予約数の取得に失敗: %w", err)
	}
	if n > 0 {
		return user.ErrUserHasReservations
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("ユーザーを削除", zap.Int64("user_id", id))
	return nil
}

func (s *UserService) attach(ctx context.Context, users []*user.User, rs []*reservation.Reservation) ([]*UserDetail, error) {
	concerts, err := s.concerts.FindByIDs(ctx, uniqueConcertIDs(rs))
	if err != nil {
		return nil, fmt.Errorf("コンサート取得に失敗: %w", err)
	}
	byUser := make(map[int64][]*ReservationDetail)
	for _, r := range rs {
		byUser[r.UserID] = append(byUser[r.UserID], &ReservationDetail{
			Reservation: r,
			Concert:     concerts[r.ConcertID],
		})
	}
	out := make([]*UserDetail, 0, len(users))
	for _, u := range users {
		ds := byUser[u.ID]
		if ds == nil {
			ds = []*ReservationDetail{}
		}
		out = append(out, &UserDetail{User: u, Reservations: ds})
	}
	return out, nil
}
