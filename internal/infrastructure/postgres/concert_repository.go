package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
)

const concertColumns = `id, name, description, total_seats, reserved_seats, created_at, updated_at`

// concertRow はDBの行を表す構造体
type concertRow struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	Description   string    `db:"description"`
	TotalSeats    int       `db:"total_seats"`
	ReservedSeats int       `db:"reserved_seats"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *concertRow) toEntity() *concert.Concert {
	return &concert.Concert{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		TotalSeats:    r.TotalSeats,
		ReservedSeats: r.ReservedSeats,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ConcertRepository はコンサートリポジトリのPostgreSQL実装
type ConcertRepository struct {
	db *sqlx.DB
}

var _ concert.Repository = (*ConcertRepository)(nil)

// NewConcertRepository はConcertRepositoryを作成する
func NewConcertRepository(db *sqlx.DB) *ConcertRepository {
	return &ConcertRepository{db: db}
}

// Create は新しいコンサートを作成する
func (r *ConcertRepository) Create(ctx context.Context, c *concert.Concert) error {
	query := `
		INSERT INTO concerts (name, description, total_seats, reserved_seats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Description, c.TotalSeats, c.ReservedSeats, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("コンサートの作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからコンサートを取得する
func (r *ConcertRepository) GetByID(ctx context.Context, id int64) (*concert.Concert, error) {
	var row concertRow
	query := `SELECT ` + concertColumns + ` FROM concerts WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, concert.ErrConcertNotFound
		}
		return nil, fmt.Errorf("コンサートの取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate は行ロックを取得してコンサートを取得する
func (r *ConcertRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*concert.Concert, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	var row concertRow
	query := `SELECT ` + concertColumns + ` FROM concerts WHERE id = $1 FOR UPDATE`
	if err := sqlTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, concert.ErrConcertNotFound
		}
		return nil, fmt.Errorf("コンサートのロック取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDs は複数IDのコンサートを取得する
func (r *ConcertRepository) GetByIDs(ctx context.Context, ids []int64) ([]*concert.Concert, error) {
	if len(ids) == 0 {
		return []*concert.Concert{}, nil
	}
	var rows []concertRow
	query := `SELECT ` + concertColumns + ` FROM concerts WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("コンサートの取得に失敗しました: %w", err)
	}
	return toConcerts(rows), nil
}

// List はコンサート一覧を新しい順に取得する
func (r *ConcertRepository) List(ctx context.Context) ([]*concert.Concert, error) {
	var rows []concertRow
	query := `SELECT ` + concertColumns + ` FROM concerts ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("コンサート一覧の取得に失敗しました: %w", err)
	}
	return toConcerts(rows), nil
}

// Delete はコンサートを削除する
func (r *ConcertRepository) Delete(ctx context.Context, tx transaction.Tx, id int64) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx, `DELETE FROM concerts WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return concert.ErrConcertHasActiveReservations
		}
		return fmt.Errorf("コンサートの削除に失敗しました: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return concert.ErrConcertNotFound
	}
	return nil
}

// IncrementReservedSeats は空席がある場合のみ予約数を1増やす
// 条件付きUPDATEで容量チェックと加算を1文にまとめる
func (r *ConcertRepository) IncrementReservedSeats(ctx context.Context, tx transaction.Tx, id int64) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `
		UPDATE concerts
		SET reserved_seats = reserved_seats + 1, updated_at = NOW()
		WHERE id = $1 AND reserved_seats < total_seats
	`
	result, err := sqlTx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("予約数の加算に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("予約数の加算に失敗しました: %w", err)
	}
	if rows == 0 {
		// 満席か存在しないかを判別する
		var exists bool
		if err := sqlTx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM concerts WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("コンサートの確認に失敗しました: %w", err)
		}
		if !exists {
			return concert.ErrConcertNotFound
		}
		return concert.ErrConcertFullyBooked
	}
	return nil
}

// DecrementReservedSeats は予約数を1減らす。0未満にはしない
func (r *ConcertRepository) DecrementReservedSeats(ctx context.Context, tx transaction.Tx, id int64) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `
		UPDATE concerts
		SET reserved_seats = GREATEST(reserved_seats - 1, 0), updated_at = NOW()
		WHERE id = $1
	`
	result, err := sqlTx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("予約数の減算に失敗しました: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return concert.ErrConcertNotFound
	}
	return nil
}

// SyncReservedSeats は予約数を有効な予約の件数に揃える
func (r *ConcertRepository) SyncReservedSeats(ctx context.Context) ([]int64, error) {
	query := `
		UPDATE concerts c
		SET reserved_seats = LEAST(a.active, c.total_seats), updated_at = NOW()
		FROM (
			SELECT c2.id, COUNT(r.id) AS active
			FROM concerts c2
			LEFT JOIN reservations r ON r.concert_id = c2.id AND r.status = 'active'
			GROUP BY c2.id
		) a
		WHERE c.id = a.id AND c.reserved_seats <> LEAST(a.active, c.total_seats)
		RETURNING c.id
	`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("予約数の同期に失敗しました: %w", err)
	}
	return ids, nil
}

func toConcerts(rows []concertRow) []*concert.Concert {
	out := make([]*concert.Concert, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out
}
