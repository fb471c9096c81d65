package memory

import (
	"context"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

// ReservationRepository は予約リポジトリのメモリ実装
type ReservationRepository struct {
	store *Store
}

var _ reservation.Repository = (*ReservationRepository)(nil)

func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

func reservationOrder(r *reservation.Reservation) (int64, int64) {
	return r.CreatedAt.UnixNano(), r.ID
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	st, err := unwrap(r.store, tx)
	if err != nil {
		return err
	}
	// 外部キー相当
	if _, ok := st.concerts[res.ConcertID]; !ok {
		return concert.ErrConcertNotFound
	}
	if _, ok := st.users[res.UserID]; !ok {
		return user.ErrUserNotFound
	}
	// 部分ユニークインデックス (user_id, concert_id) WHERE status = 'active' 相当
	if res.Status == reservation.StatusActive {
		for _, existing := range st.reservations {
			if existing.IsActive() && existing.UserID == res.UserID && existing.ConcertID == res.ConcertID {
				return reservation.ErrDuplicateReservation
			}
		}
	}
	st.reservationSeq++
	res.ID = st.reservationSeq
	st.reservations[res.ID] = *res
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var (
		out *reservation.Reservation
		err error
	)
	r.store.read(func(st *state) {
		res, ok := st.reservations[id]
		if !ok {
			err = reservation.ErrReservationNotFound
			return
		}
		out = &res
	})
	return out, err
}

func (r *ReservationRepository) FindActive(ctx context.Context, userID, concertID int64) (*reservation.Reservation, error) {
	var out *reservation.Reservation
	r.store.read(func(st *state) {
		for _, res := range st.reservations {
			if res.IsActive() && res.UserID == userID && res.ConcertID == concertID {
				res := res
				out = &res
				return
			}
		}
	})
	if out == nil {
		return nil, reservation.ErrReservationNotFound
	}
	return out, nil
}

func (r *ReservationRepository) filter(keep func(reservation.Reservation) bool) []*reservation.Reservation {
	out := []*reservation.Reservation{}
	r.store.read(func(st *state) {
		for _, res := range st.reservations {
			if keep(res) {
				res := res
				out = append(out, &res)
			}
		}
	})
	sortNewestFirst(out, reservationOrder)
	return out
}

func (r *ReservationRepository) List(ctx context.Context) ([]*reservation.Reservation, error) {
	return r.filter(func(reservation.Reservation) bool { return true }), nil
}

func (r *ReservationRepository) ListByUserID(ctx context.Context, userID int64) ([]*reservation.Reservation, error) {
	return r.filter(func(res reservation.Reservation) bool { return res.UserID == userID }), nil
}

func (r *ReservationRepository) ListByConcertIDs(ctx context.Context, concertIDs []int64) ([]*reservation.Reservation, error) {
	ids := make(map[int64]struct{}, len(concertIDs))
	for _, id := range concertIDs {
		ids[id] = struct{}{}
	}
	return r.filter(func(res reservation.Reservation) bool {
		_, ok := ids[res.ConcertID]
		return ok
	}), nil
}

func (r *ReservationRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var n int
	r.store.read(func(st *state) {
		for _, res := range st.reservations {
			if res.UserID == userID {
				n++
			}
		}
	})
	return n, nil
}

func (r *ReservationRepository) CountActiveByConcertID(ctx context.Context, tx transaction.Tx, concertID int64) (int, error) {
	st, err := unwrap(r.store, tx)
	if err != nil {
		return 0, err
	}
	var n int
	for _, res := range st.reservations {
		if res.IsActive() && res.ConcertID == concertID {
			n++
		}
	}
	return n, nil
}

func (r *ReservationRepository) Cancel(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	st, err := unwrap(r.store, tx)
	if err != nil {
		return err
	}
	current, ok := st.reservations[res.ID]
	if !ok {
		return reservation.ErrReservationNotFound
	}
	// WHERE status = 'active' 相当
	if !current.IsActive() {
		return reservation.ErrReservationAlreadyCancelled
	}
	current.Status = reservation.StatusCancelled
	current.UpdatedAt = res.UpdatedAt
	st.reservations[res.ID] = current
	return nil
}

func (r *ReservationRepository) DeleteByConcertID(ctx context.Context, tx transaction.Tx, concertID int64) (int, error) {
	st, err := unwrap(r.store, tx)
	if err != nil {
		return 0, err
	}
	var n int
	for id, res := range st.reservations {
		if res.ConcertID == concertID {
			delete(st.reservations, id)
			n++
		}
	}
	return n, nil
}
