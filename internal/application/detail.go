package application

import (
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

// ReservationDetail は関連するコンサート・ユーザーを付与した予約
// Concert / User は取得経路によって nil になりうる
type ReservationDetail struct {
	*reservation.Reservation
	Concert *concert.Concert
	User    *user.User
}

// UserDetail は予約一覧を付与したユーザー
type UserDetail struct {
	*user.User
	Reservations []*ReservationDetail
}

func uniqueConcertIDs(rs []*reservation.Reservation) []int64 {
	seen := make(map[int64]struct{}, len(rs))
	ids := make([]int64, 0, len(rs))
	for _, r := range rs {
		if _, ok := seen[r.ConcertID]; ok {
			continue
		}
		seen[r.ConcertID] = struct{}{}
		ids = append(ids, r.ConcertID)
	}
	return ids
}

func uniqueUserIDs(rs []*reservation.Reservation) []int64 {
	seen := make(map[int64]struct{}, len(rs))
	ids := make([]int64, 0, len(rs))
	for _, r := range rs {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}
	return ids
}

// groupByConcert はコンサートIDごとに予約をまとめる（順序は維持）
func groupByConcert(rs []*reservation.Reservation) map[int64][]*reservation.Reservation {
	out := make(map[int64][]*reservation.Reservation)
	for _, r := range rs {
		out[r.ConcertID] = append(out[r.ConcertID], r)
	}
	return out
}
