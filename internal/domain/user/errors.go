package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound        = errors.New("User not found")
	ErrEmailAlreadyExists  = errors.New("Email already exists")
	ErrUserHasReservations = errors.New("Cannot delete user with reservations")
)
