package reservation

import "errors"

// Reservation ドメインのエラー定義
// メッセージはフロントエンドにそのまま表示される
var (
	ErrReservationNotFound         = errors.New("Reservation not found")
	ErrDuplicateReservation        = errors.New("User already has a reservation for this concert")
	ErrNotReservationOwner         = errors.New("You can only cancel your own reservations")
	ErrReservationAlreadyCancelled = errors.New("Reservation is already cancelled")
	ErrReservationInProgress       = errors.New("Another reservation request for this concert is in progress")
	ErrInvalidUserID               = errors.New("User ID must be a positive number")
	ErrInvalidConcertID            = errors.New("Concert ID must be a positive number")
)
