package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

// MockConcertService はConcertServiceInterfaceのモック
type MockConcertService struct {
	mock.Mock
}

func (m *MockConcertService) Create(ctx context.Context, input application.CreateConcertInput) (*concert.Concert, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*concert.Concert), args.Error(1)
}

func (m *MockConcertService) FindAll(ctx context.Context) ([]*concert.Concert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*concert.Concert), args.Error(1)
}

func (m *MockConcertService) FindOne(ctx context.Context, id int64) (*concert.Concert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*concert.Concert), args.Error(1)
}

func (m *MockConcertService) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockConcertService) Availability(ctx context.Context, id int64) (*concert.Availability, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*concert.Availability), args.Error(1)
}

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Create(ctx context.Context, input application.CreateReservationInput) (*application.ReservationDetail, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.ReservationDetail), args.Error(1)
}

func (m *MockReservationService) FindAll(ctx context.Context) ([]*application.ReservationDetail, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*application.ReservationDetail), args.Error(1)
}

func (m *MockReservationService) FindByUser(ctx context.Context, userID int64) ([]*application.ReservationDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*application.ReservationDetail), args.Error(1)
}

func (m *MockReservationService) Cancel(ctx context.Context, input application.CancelReservationInput) (*application.ReservationDetail, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.ReservationDetail), args.Error(1)
}

// MockUserService はUserServiceInterfaceのモック
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, input application.CreateUserInput) (*user.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) FindAll(ctx context.Context) ([]*application.UserDetail, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*application.UserDetail), args.Error(1)
}

func (m *MockUserService) FindOne(ctx context.Context, id int64) (*application.UserDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.UserDetail), args.Error(1)
}

func (m *MockUserService) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
