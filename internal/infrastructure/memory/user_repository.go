package memory

import (
	"context"
	"strings"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/user"
)

// UserRepository はユーザーリポジトリのメモリ実装
type UserRepository struct {
	store *Store
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.store.write(func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return user.ErrEmailAlreadyExists
			}
		}
		st.userSeq++
		u.ID = st.userSeq
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var (
		out *user.User
		err error
	)
	r.store.read(func(st *state) {
		u, ok := st.users[id]
		if !ok {
			err = user.ErrUserNotFound
			return
		}
		out = &u
	})
	return out, err
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*user.User, error) {
	var out []*user.User
	r.store.read(func(st *state) {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				u := u
				out = append(out, &u)
			}
		}
	})
	return out, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	out := []*user.User{}
	r.store.read(func(st *state) {
		for _, u := range st.users {
			u := u
			out = append(out, &u)
		}
	})
	sortNewestFirst(out, func(u *user.User) (int64, int64) { return u.CreatedAt.UnixNano(), u.ID })
	return out, nil
}

// Delete はユーザーを削除する。予約が残っていれば外部キー相当で拒否する
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.store.write(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return user.ErrUserNotFound
		}
		for _, res := range st.reservations {
			if res.UserID == id {
				return user.ErrUserHasReservations
			}
		}
		delete(st.users, id)
		return nil
	})
}
