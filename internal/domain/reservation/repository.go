package reservation

import (
	"context"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
// 一覧系はすべて created_at の降順で返す
type Repository interface {
	// Create は有効な予約を作成する（トランザクション必須）
	// 同じユーザー・コンサートの有効な予約が既にあれば ErrDuplicateReservation
	Create(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id int64) (*Reservation, error)

	// FindActive はユーザー・コンサートの有効な予約を取得する
	FindActive(ctx context.Context, userID, concertID int64) (*Reservation, error)

	// List は全予約を取得する
	List(ctx context.Context) ([]*Reservation, error)

	// ListByUserID はユーザーの全予約を取得する
	ListByUserID(ctx context.Context, userID int64) ([]*Reservation, error)

	// ListByConcertIDs は複数コンサートの全予約を取得する
	ListByConcertIDs(ctx context.Context, concertIDs []int64) ([]*Reservation, error)

	// CountByUserID はユーザーの予約件数を返す（状態は問わない）
	CountByUserID(ctx context.Context, userID int64) (int, error)

	// CountActiveByConcertID はトランザクション内でコンサートの有効な予約数を返す
	CountActiveByConcertID(ctx context.Context, tx transaction.Tx, concertID int64) (int, error)

	// Cancel は有効な予約のみを cancelled に更新する（トランザクション必須）
	// 既にキャンセル済みなら ErrReservationAlreadyCancelled
	Cancel(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// DeleteByConcertID はコンサートの全予約を削除し、削除件数を返す（トランザクション必須）
	DeleteByConcertID(ctx context.Context, tx transaction.Tx, concertID int64) (int, error)
}
