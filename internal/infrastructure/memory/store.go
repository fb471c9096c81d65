package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/concert"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

var ErrInvalidTx = errors.New("memory: トランザクションが不正です")

// state はストア全体のスナップショット
type state struct {
	users        map[int64]user.User
	concerts     map[int64]concert.Concert
	reservations map[int64]reservation.Reservation

	userSeq        int64
	concertSeq     int64
	reservationSeq int64
}

func newState() *state {
	return &state{
		users:        map[int64]user.User{},
		concerts:     map[int64]concert.Concert{},
		reservations: map[int64]reservation.Reservation{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:          make(map[int64]user.User, len(s.users)),
		concerts:       make(map[int64]concert.Concert, len(s.concerts)),
		reservations:   make(map[int64]reservation.Reservation, len(s.reservations)),
		userSeq:        s.userSeq,
		concertSeq:     s.concertSeq,
		reservationSeq: s.reservationSeq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.concerts {
		c.concerts[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	return c
}

// Store はプロセス内の永続化層
// トランザクションは書き込みロックを保持したままスナップショットを編集し、
// コミット時に差し替える。ロールバックはスナップショットを捨てるだけ
type Store struct {
	mu    sync.RWMutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Tx は Store のトランザクション
type Tx struct {
	store *Store
	work  *state
	done  bool
}

func (t *Tx) Commit() error {
	if t.done {
		return ErrInvalidTx
	}
	t.store.state = t.work
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

// TxManager は Store のトランザクションマネージャー
type TxManager struct {
	store *Store
}

var _ transaction.Manager = (*TxManager)(nil)

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin は書き込みロックを取得してトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.store.mu.Lock()
	return &Tx{store: m.store, work: m.store.state.clone()}, nil
}

func unwrap(store *Store, tx transaction.Tx) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t.done || t.store != store {
		return nil, ErrInvalidTx
	}
	return t.work, nil
}

// sortNewestFirst は作成日時の降順、同時刻はIDの降順に並べる
func sortNewestFirst[T any](items []*T, createdAt func(*T) (int64, int64)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := createdAt(items[i])
		tj, idj := createdAt(items[j])
		if ti == tj {
			return idi > idj
		}
		return ti > tj
	})
}
