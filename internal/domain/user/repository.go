package user

import "context"

// Repository はユーザーリポジトリのインターフェース
type Repository interface {
	// Create は新しいユーザーを作成する。メール重複は ErrEmailAlreadyExists
	Create(ctx context.Context, u *User) error

	// GetByID はIDからユーザーを取得する
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByIDs は複数IDのユーザーをまとめて取得する。存在しないIDは無視する
	GetByIDs(ctx context.Context, ids []int64) ([]*User, error)

	// List はユーザー一覧を作成日時の降順で取得する
	List(ctx context.Context) ([]*User, error)

	// Delete はユーザーを削除する
	Delete(ctx context.Context, id int64) error
}
