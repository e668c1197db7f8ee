package item

import "github.com/hitoshi/dinodex/internal/model"

// AuthorizeMutation は解決済みのセッション識別子がアイテムを変更できるかを判定する。
//
// owner_idが未設定のアイテムは誰でも変更できる（匿名作成されたアイテムは
// 恒久的に保護されない）。
// owner_idが設定されている場合、callerUserIDが完全一致する場合のみ許可する。
// callerUserIDが空（未ログイン）の場合は不一致として拒否する。
func AuthorizeMutation(item *model.Item, callerUserID string) error {
	if !item.Owned() {
		return nil
	}
	if callerUserID == "" || callerUserID != item.OwnerID {
		return model.ErrNotOwner
	}
	return nil
}
