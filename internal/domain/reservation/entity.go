package reservation

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Reservation は予約エンティティを表す
// ユーザーとコンサートはIDで弱参照する
type Reservation struct {
	ID        int64
	UserID    int64
	ConcertID int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReservation は新しい予約を作成する（初期状態は active）
func NewReservation(userID, concertID int64) *Reservation {
	now := time.Now()
	return &Reservation{
		UserID:    userID,
		ConcertID: concertID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive は予約が有効かを返す
func (r *Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// IsOwnedBy は予約が指定ユーザーのものかを返す
func (r *Reservation) IsOwnedBy(userID int64) bool {
	return r.UserID == userID
}

// Cancel は予約をキャンセルする。cancelled は終端状態
func (r *Reservation) Cancel() error {
	if r.Status == StatusCancelled {
		return ErrReservationAlreadyCancelled
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.UserID <= 0 {
		return ErrInvalidUserID
	}
	if r.ConcertID <= 0 {
		return ErrInvalidConcertID
	}
	return nil
}

// CountActive は有効な予約の件数を返す
func CountActive(reservations []*Reservation) int {
	n := 0
	for _, r := range reservations {
		if r.IsActive() {
			n++
		}
	}
	return n
}
