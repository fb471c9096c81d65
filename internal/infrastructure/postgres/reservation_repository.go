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
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

const fkReservationsConcert = "reservations_concert_id_fkey"

const reservationColumns = `id, user_id, concert_id, status, created_at, updated_at`

type reservationRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ConcertID int64     `db:"concert_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID:        r.ID,
		UserID:    r.UserID,
		ConcertID: r.ConcertID,
		Status:    reservation.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ReservationRepository は予約リポジトリのPostgreSQL実装
type ReservationRepository struct{ db *sqlx.DB }

var _ reservation.Repository = (*ReservationRepository)(nil)

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create は予約を作成する。部分ユニークインデックス違反は重複予約として扱う
func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO reservations (user_id, concert_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := sqlTx.QueryRowContext(ctx, query,
		res.UserID, res.ConcertID, string(res.Status), res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		if isUniqueViolation(err) {
			return reservation.ErrDuplicateReservation
		}
		if isForeignKeyViolation(err) {
			return missingReference(err)
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// missingReference は外部キー違反を参照先の NotFound に変換する
func missingReference(err error) error {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Constraint == fkReservationsConcert {
		return concert.ErrConcertNotFound
	}
	return user.ErrUserNotFound
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) FindActive(ctx context.Context, userID, concertID int64) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 AND concert_id = $2 AND status = 'active'`
	if err := r.db.GetContext(ctx, &row, query, userID, concertID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("有効な予約の取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) List(ctx context.Context) ([]*reservation.Reservation, error) {
	return r.selectMany(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY created_at DESC, id DESC`)
}

func (r *ReservationRepository) ListByUserID(ctx context.Context, userID int64) ([]*reservation.Reservation, error) {
	return r.selectMany(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *ReservationRepository) ListByConcertIDs(ctx context.Context, concertIDs []int64) ([]*reservation.Reservation, error) {
	if len(concertIDs) == 0 {
		return []*reservation.Reservation{}, nil
	}
	return r.selectMany(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE concert_id = ANY($1) ORDER BY created_at DESC, id DESC`, pq.Array(concertIDs))
}

func (r *ReservationRepository) selectMany(ctx context.Context, query string, args ...any) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	out := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

func (r *ReservationRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reservations WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("予約数の取得に失敗: %w", err)
	}
	return n, nil
}

func (r *ReservationRepository) CountActiveByConcertID(ctx context.Context, tx transaction.Tx, concertID int64) (int, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := sqlTx.GetContext(ctx, &n, `SELECT COUNT(*) FROM reservations WHERE concert_id = $1 AND status = 'active'`, concertID); err != nil {
		return 0, fmt.Errorf("有効な予約数の取得に失敗: %w", err)
	}
	return n, nil
}

// Cancel は有効な予約のみを更新する。更新行がなければ状態を確認して返す
func (r *ReservationRepository) Cancel(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE reservations SET status = 'cancelled', updated_at = $1 WHERE id = $2 AND status = 'active'`
	result, err := sqlTx.ExecContext(ctx, query, res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("予約キャンセルに失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("予約キャンセルに失敗: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := sqlTx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = $1)`, res.ID); err != nil {
			return fmt.Errorf("予約の確認に失敗: %w", err)
		}
		if !exists {
			return reservation.ErrReservationNotFound
		}
		return reservation.ErrReservationAlreadyCancelled
	}
	return nil
}

func (r *ReservationRepository) DeleteByConcertID(ctx context.Context, tx transaction.Tx, concertID int64) (int, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return 0, err
	}
	result, err := sqlTx.ExecContext(ctx, `DELETE FROM reservations WHERE concert_id = $1`, concertID)
	if err != nil {
		return 0, fmt.Errorf("予約削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
