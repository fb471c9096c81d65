package reservation

import "time"

// EventType は予約ドメインイベントの種別
type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventCancelled EventType = "reservation.cancelled"
)

// Event は予約の状態変化を外部へ通知するためのペイロード
type Event struct {
	Type          EventType `json:"type"`
	ReservationID int64     `json:"reservationId"`
	UserID        int64     `json:"userId"`
	ConcertID     int64     `json:"concertId"`
	Status        Status    `json:"status"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewEvent は予約からイベントを作成する
func NewEvent(t EventType, r *Reservation) Event {
	return Event{
		Type:          t,
		ReservationID: r.ID,
		UserID:        r.UserID,
		ConcertID:     r.ConcertID,
		Status:        r.Status,
		OccurredAt:    time.Now().UTC(),
	}
}
