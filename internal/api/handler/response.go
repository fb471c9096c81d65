package handler

import (
	"time"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

type ConcertResponse struct {
	ID             int64     `json:"id" example:"1"`
	Name           string    `json:"name" example:"Summer Live 2025"`
	Description    string    `json:"description" example:"野外ステージ"`
	TotalSeats     int       `json:"totalSeats" example:"100"`
	ReservedSeats  int       `json:"reservedSeats" example:"12"`
	AvailableSeats int       `json:"availableSeats" example:"88"`
	IsFullyBooked  bool      `json:"isFullyBooked" example:"false"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ConcertDetailResponse は予約一覧付きのコンサート。reservations は常に配列
type ConcertDetailResponse struct {
	ConcertResponse
	Reservations []ReservationResponse `json:"reservations"`
}

type ReservationResponse struct {
	ID        int64            `json:"id" example:"1"`
	UserID    int64            `json:"userId" example:"1"`
	ConcertID int64            `json:"concertId" example:"1"`
	Status    string           `json:"status" example:"active"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Concert   *ConcertResponse `json:"concert,omitempty"`
	User      *UserResponse    `json:"user,omitempty"`
}

type UserResponse struct {
	ID        int64     `json:"id" example:"1"`
	Name      string    `json:"name" example:"山田太郎"`
	Email     string    `json:"email" example:"taro@example.com"`
	IsAdmin   bool      `json:"isAdmin" example:"false"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserDetailResponse は予約一覧付きのユーザー
type UserDetailResponse struct {
	UserResponse
	Reservations []ReservationResponse `json:"reservations"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func toConcertResponse(c *concert.Concert) ConcertResponse {
	return ConcertResponse{
		ID: c.ID, Name: c.Name, Description: c.Description,
		TotalSeats: c.TotalSeats, ReservedSeats: c.ReservedSeats,
		AvailableSeats: c.AvailableSeats(), IsFullyBooked: c.IsFullyBooked(),
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func toConcertDetailResponse(c *concert.Concert) ConcertDetailResponse {
	rs := make([]ReservationResponse, len(c.Reservations))
	for i, r := range c.Reservations {
		rs[i] = toReservationResponse(r)
	}
	return ConcertDetailResponse{ConcertResponse: toConcertResponse(c), Reservations: rs}
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, UserID: r.UserID, ConcertID: r.ConcertID,
		Status: string(r.Status), CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func toReservationDetailResponse(d *application.ReservationDetail) ReservationResponse {
	resp := toReservationResponse(d.Reservation)
	if d.Concert != nil {
		c := toConcertResponse(d.Concert)
		resp.Concert = &c
	}
	if d.User != nil {
		u := toUserResponse(d.User)
		resp.User = &u
	}
	return resp
}

func toReservationDetailResponses(ds []*application.ReservationDetail) []ReservationResponse {
	resp := make([]ReservationResponse, len(ds))
	for i, d := range ds {
		resp[i] = toReservationDetailResponse(d)
	}
	return resp
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}

func toUserDetailResponse(d *application.UserDetail) UserDetailResponse {
	return UserDetailResponse{
		UserResponse: toUserResponse(d.User),
		Reservations: toReservationDetailResponses(d.Reservations),
	}
}
