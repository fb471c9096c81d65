package memory

import (
	"context"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
)

// ConcertRepository はコンサートリポジトリのメモリ実装
type ConcertRepository struct {
	store *Store
}

var _ concert.Repository = (*ConcertRepository)(nil)

func NewConcertRepository(store *Store) *ConcertRepository {
	return &ConcertRepository{store: store}
}

func concertCopy(c concert.Concert) *concert.Concert {
	c.Reservations = nil
	return &c
}

func concertOrder(c *concert.Concert) (int64, int64) {
	return c.CreatedAt.UnixNano(), c.ID
}

func (r *ConcertRepository) Create(ctx context.Context, c *concert.Concert) error {
	return r.store.write(func(st *state) error {
		st.concertSeq++
		c.ID = st.concertSeq
		st.concerts[c.ID] = *concertCopy(*c)
		return nil
	})
}

func (r *ConcertRepository) GetByID(ctx context.Context, id int64) (*concert.Concert, error) {
	var (
		out *concert.Concert
		err error
	)
	r.store.read(func(st *state) {
		out, err = getConcert(st, id)
	})
	return out, err
}

func getConcert(st *state, id int64) (*concert.Concert, error) {
	c, ok := st.concerts[id]
	if !ok {
		return nil, concert.ErrConcertNotFound
	}
	return concertCopy(c), nil
}

func (r *ConcertRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*concert.Concert, error) {
	st, err := unwrap(r.store, tx)
	if err != nil {
		return nil, err
	}
	return getConcert(st, id)
}

func (r *ConcertRepository) GetByIDs(ctx context.Context, ids []int64) ([]*concert.Concert, error) {
	var out []*concert.Concert
	r.store.read(func(st *state) {
		for _, id := range ids {
			if c, ok := st.concerts[id]; ok {
				out = append(out, concertCopy(c))
			}
		}
	})
	return out, nil
}

func (r *ConcertRepository) List(ctx context.Context) ([]*concert.Concert, error) {
	out := []*concert.Concert{}
	r.store.read(func(st *state) {
		for _, c := range st.concerts {
			out = append(out, concertCopy(c))
		}
	})
	sortNewestFirst(out, concertOrder)
	return out, nil
}

func (r *ConcertRepository) Delete(ctx context.Context, tx transaction.Tx, id int64) error {
	st, err := unwrap(r.store, tx)
	if err != nil {
		return err
	}
	if _, ok := st.concerts[id]; !ok {
		return concert.ErrConcertNotFound
	}
	delete(st.concerts, id)
	return nil
}

func (r *ConcertRepository) IncrementReservedSeats(ctx context.Context, tx transaction.Tx, id int64) error {
	st, err := unwrap(r.store, tx)
	if err != nil {
		return err
	}
	c, ok := st.concerts[id]
	if !ok {
		return concert.ErrConcertNotFound
	}
	if c.ReservedSeats >= c.TotalSeats {
		return concert.ErrConcertFullyBooked
	}
	c.ReservedSeats++
	st.concerts[id] = c
	return nil
}

func (r *ConcertRepository) DecrementReservedSeats(ctx context.Context, tx transaction.Tx, id int64) error {
	st, err := unwrap(r.store, tx)
	if err != nil {
		return err
	}
	c, ok := st.concerts[id]
	if !ok {
		return concert.ErrConcertNotFound
	}
	if c.ReservedSeats > 0 {
		c.ReservedSeats--
	}
	st.concerts[id] = c
	return nil
}

func (r *ConcertRepository) SyncReservedSeats(ctx context.Context) ([]int64, error) {
	var fixed []int64
	err := r.store.write(func(st *state) error {
		active := map[int64]int{}
		for _, res := range st.reservations {
			if res.Status == reservation.StatusActive {
				active[res.ConcertID]++
			}
		}
		for id, c := range st.concerts {
			if c.ReservedSeats != active[id] {
				c.ReservedSeats = active[id]
				st.concerts[id] = c
				fixed = append(fixed, id)
			}
		}
		return nil
	})
	return fixed, err
}
