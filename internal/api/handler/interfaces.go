package handler

import (
	"context"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

// ConcertServiceInterface はコンサートサービスのインターフェース
type ConcertServiceInterface interface {
	Create(ctx context.Context, input application.CreateConcertInput) (*concert.Concert, error)
	FindAll(ctx context.Context) ([]*concert.Concert, error)
	FindOne(ctx context.Context, id int64) (*concert.Concert, error)
	Remove(ctx context.Context, id int64) error
	Availability(ctx context.Context, id int64) (*concert.Availability, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	Create(ctx context.Context, input application.CreateReservationInput) (*application.ReservationDetail, error)
	FindAll(ctx context.Context) ([]*application.ReservationDetail, error)
	FindByUser(ctx context.Context, userID int64) ([]*application.ReservationDetail, error)
	Cancel(ctx context.Context, input application.CancelReservationInput) (*application.ReservationDetail, error)
}

// UserServiceInterface はユーザーサービスのインターフェース
type UserServiceInterface interface {
	Create(ctx context.Context, input application.CreateUserInput) (*user.User, error)
	FindAll(ctx context.Context) ([]*application.UserDetail, error)
	FindOne(ctx context.Context, id int64) (*application.UserDetail, error)
	Remove(ctx context.Context, id int64) error
}

var (
	_ ConcertServiceInterface     = (*application.ConcertService)(nil)
	_ ReservationServiceInterface = (*application.ReservationService)(nil)
	_ UserServiceInterface        = (*application.UserService)(nil)
)
