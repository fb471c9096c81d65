package concert

import "errors"

// Concert ドメインのエラー定義
var (
	ErrConcertNotFound              = errors.New("Concert not found")
	ErrConcertFullyBooked           = errors.New("Concert is fully booked")
	ErrConcertHasActiveReservations = errors.New("Cannot delete concert with active reservations")
)
