package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

type fixture struct {
	store        *Store
	txm          *TxManager
	concerts     *ConcertRepository
	reservations *ReservationRepository
	users        *UserRepository
}

func newFixture() *fixture {
	s := NewStore()
	return &fixture{
		store:        s,
		txm:          NewTxManager(s),
		concerts:     NewConcertRepository(s),
		reservations: NewReservationRepository(s),
		users:        NewUserRepository(s),
	}
}

func (f *fixture) seed(t *testing.T, totalSeats int) (*concert.Concert, *user.User) {
	t.Helper()
	ctx := context.Background()
	c := concert.NewConcert("ライブ", "説明", totalSeats)
	require.NoError(t, f.concerts.Create(ctx, c))
	u := user.NewUser("山田太郎", "taro@example.com", false)
	require.NoError(t, f.users.Create(ctx, u))
	return c, u
}

func TestTx_CommitAndRollback(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c, u := f.seed(t, 10)

	t.Run("ロールバックした変更は捨てられる", func(t *testing.T) {
		err := transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
			require.NoError(t, f.concerts.IncrementReservedSeats(ctx, tx, c.ID))
			require.NoError(t, f.reservations.Create(ctx, tx, reservation.NewReservation(u.ID, c.ID)))
			return errors.New("中断")
		})
		require.Error(t, err)

		got, err := f.concerts.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.ReservedSeats)
		list, _ := f.reservations.List(ctx)
		assert.Empty(t, list)
	})

	t.Run("コミットした変更は反映される", func(t *testing.T) {
		res := reservation.NewReservation(u.ID, c.ID)
		err := transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
			if err := f.concerts.IncrementReservedSeats(ctx, tx, c.ID); err != nil {
				return err
			}
			return f.reservations.Create(ctx, tx, res)
		})
		require.NoError(t, err)
		assert.NotZero(t, res.ID)

		got, _ := f.concerts.GetByID(ctx, c.ID)
		assert.Equal(t, 1, got.ReservedSeats)
	})

	t.Run("終了済みトランザクションは使えない", func(t *testing.T) {
		tx, err := f.txm.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.NoError(t, tx.Rollback())
		assert.ErrorIs(t, tx.Commit(), ErrInvalidTx)
		assert.ErrorIs(t, f.concerts.IncrementReservedSeats(ctx, tx, c.ID), ErrInvalidTx)
	})
}

func TestConcertRepository_IncrementDecrement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c, _ := f.seed(t, 1)

	run := func(fn func(tx transaction.Tx) error) error {
		return transaction.Run(ctx, f.txm, fn)
	}

	require.NoError(t, run(func(tx transaction.Tx) error { return f.concerts.IncrementReservedSeats(ctx, tx, c.ID) }))
	err := run(func(tx transaction.Tx) error { return f.concerts.IncrementReservedSeats(ctx, tx, c.ID) })
	assert.ErrorIs(t, err, concert.ErrConcertFullyBooked)

	require.NoError(t, run(func(tx transaction.Tx) error { return f.concerts.DecrementReservedSeats(ctx, tx, c.ID) }))
	// 0未満にはならない
	require.NoError(t, run(func(tx transaction.Tx) error { return f.concerts.DecrementReservedSeats(ctx, tx, c.ID) }))

	got, _ := f.concerts.GetByID(ctx, c.ID)
	assert.Equal(t, 0, got.ReservedSeats)

	err = run(func(tx transaction.Tx) error { return f.concerts.IncrementReservedSeats(ctx, tx, 999) })
	assert.ErrorIs(t, err, concert.ErrConcertNotFound)
}

func TestConcertRepository_IncrementIsAtomic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c, _ := f.seed(t, 5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
				return f.concerts.IncrementReservedSeats(ctx, tx, c.ID)
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	got, _ := f.concerts.GetByID(ctx, c.ID)
	assert.Equal(t, 5, got.ReservedSeats)
}

func TestReservationRepository(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c, u := f.seed(t, 10)

	create := func(res *reservation.Reservation) error {
		return transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
			return f.reservations.Create(ctx, tx, res)
		})
	}

	first := reservation.NewReservation(u.ID, c.ID)
	require.NoError(t, create(first))

	t.Run("有効な予約の重複は拒否される", func(t *testing.T) {
		assert.ErrorIs(t, create(reservation.NewReservation(u.ID, c.ID)), reservation.ErrDuplicateReservation)
	})

	t.Run("存在しないユーザー・コンサートは拒否される", func(t *testing.T) {
		assert.ErrorIs(t, create(reservation.NewReservation(999, c.ID)), user.ErrUserNotFound)
		assert.ErrorIs(t, create(reservation.NewReservation(u.ID, 999)), concert.ErrConcertNotFound)
	})

	t.Run("FindActiveで有効な予約を取得できる", func(t *testing.T) {
		got, err := f.reservations.FindActive(ctx, u.ID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)

		_, err = f.reservations.FindActive(ctx, u.ID, 999)
		assert.ErrorIs(t, err, reservation.ErrReservationNotFound)
	})

	t.Run("キャンセルは一度だけ成功する", func(t *testing.T) {
		require.NoError(t, first.Cancel())
		cancel := func() error {
			return transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
				return f.reservations.Cancel(ctx, tx, first)
			})
		}
		require.NoError(t, cancel())
		assert.ErrorIs(t, cancel(), reservation.ErrReservationAlreadyCancelled)

		got, _ := f.reservations.GetByID(ctx, first.ID)
		assert.Equal(t, reservation.StatusCancelled, got.Status)
	})

	t.Run("キャンセル後は再予約でき、新しい順に並ぶ", func(t *testing.T) {
		second := reservation.NewReservation(u.ID, c.ID)
		require.NoError(t, create(second))

		list, err := f.reservations.ListByUserID(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)

		n, _ := f.reservations.CountByUserID(ctx, u.ID)
		assert.Equal(t, 2, n)
	})

	t.Run("コンサート単位で削除できる", func(t *testing.T) {
		var deleted int
		err := transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
			active, err := f.reservations.CountActiveByConcertID(ctx, tx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, active)
			deleted, err = f.reservations.DeleteByConcertID(ctx, tx, c.ID)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)

		list, _ := f.reservations.ListByConcertIDs(ctx, []int64{c.ID})
		assert.Empty(t, list)
	})
}

func TestConcertRepository_SyncReservedSeats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c, u := f.seed(t, 10)

	require.NoError(t, transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
		return f.reservations.Create(ctx, tx, reservation.NewReservation(u.ID, c.ID))
	}))

	fixed, err := f.concerts.SyncReservedSeats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID}, fixed)

	got, _ := f.concerts.GetByID(ctx, c.ID)
	assert.Equal(t, 1, got.ReservedSeats)

	fixed, err = f.concerts.SyncReservedSeats(ctx)
	require.NoError(t, err)
	assert.Empty(t, fixed)
}

func TestUserRepository(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c, u := f.seed(t, 10)

	t.Run("メール重複は大文字小文字を区別せず拒否", func(t *testing.T) {
		err := f.users.Create(ctx, user.NewUser("別人", "TARO@example.com", false))
		assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)
	})

	t.Run("予約があるユーザーは削除できない", func(t *testing.T) {
		require.NoError(t, transaction.Run(ctx, f.txm, func(tx transaction.Tx) error {
			return f.reservations.Create(ctx, tx, reservation.NewReservation(u.ID, c.ID))
		}))
		assert.ErrorIs(t, f.users.Delete(ctx, u.ID), user.ErrUserHasReservations)
	})

	t.Run("予約がないユーザーは削除できる", func(t *testing.T) {
		other := user.NewUser("佐藤花子", "hanako@example.com", false)
		require.NoError(t, f.users.Create(ctx, other))
		require.NoError(t, f.users.Delete(ctx, other.ID))

		_, err := f.users.GetByID(ctx, other.ID)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
		assert.ErrorIs(t, f.users.Delete(ctx, other.ID), user.ErrUserNotFound)
	})

	t.Run("GetByIDsは存在しないIDを無視する", func(t *testing.T) {
		got, err := f.users.GetByIDs(ctx, []int64{u.ID, 999})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, u.ID, got[0].ID)
	})
}
