package concert

import (
	"context"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
)

// Repository はコンサートリポジトリのインターフェース
type Repository interface {
	// Create は新しいコンサートを作成する
	Create(ctx context.Context, c *Concert) error

	// GetByID はIDからコンサートを取得する
	GetByID(ctx context.Context, id int64) (*Concert, error)

	// GetByIDForUpdate はトランザクション内で行ロックを取得してコンサートを取得する
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*Concert, error)

	// GetByIDs は複数IDのコンサートをまとめて取得する。存在しないIDは無視する
	GetByIDs(ctx context.Context, ids []int64) ([]*Concert, error)

	// List はコンサート一覧を作成日時の降順で取得する
	List(ctx context.Context) ([]*Concert, error)

	// Delete はコンサートを削除する（トランザクション必須）
	Delete(ctx context.Context, tx transaction.Tx, id int64) error

	// IncrementReservedSeats は空席がある場合のみ予約数を1増やす（トランザクション必須）
	// 満席なら ErrConcertFullyBooked
	IncrementReservedSeats(ctx context.Context, tx transaction.Tx, id int64) error

	// DecrementReservedSeats は予約数を1減らす。0未満にはしない（トランザクション必須）
	DecrementReservedSeats(ctx context.Context, tx transaction.Tx, id int64) error

	// SyncReservedSeats は予約数を有効な予約の件数に揃え、修正したコンサートのIDを返す
	SyncReservedSeats(ctx context.Context) ([]int64, error)
}
