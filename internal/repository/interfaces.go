// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/dinodex/internal/model"
)

// ItemRepository はアイテムデータの永続化インターフェース。
// 全操作は単一アイテムに対してアトミックに実行される。
type ItemRepository interface {
	// Create はアイテムを作成する。IDが既に存在する場合はmodel.ErrDuplicateIDを返す。
	Create(ctx context.Context, item *model.Item) error

	// FindByID は指定IDのアイテムを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Item, error)

	// List は全アイテムのスナップショットを返す。
	// 並び順はストア定義であり、並行書き込みがある場合は呼び出しごとに安定しない。
	List(ctx context.Context) ([]*model.Item, error)

	// Update は指定IDのアイテムのname、weight、dietを置き換える。
	// IDとowner_idは変更しない。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, fields model.ItemFields) (*model.Item, error)

	// Delete は指定IDのアイテムを削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。
	// 見つからない、または期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// SetIdentity はセッションにログイン識別子を設定する。
	// 既存の識別子は上書きされる（再ログインは置き換えであり、マージしない）。
	SetIdentity(ctx context.Context, id, userID, userName string) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
