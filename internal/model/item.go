package model

// Item はカタログに登録された恐竜を表す。
// IDは作成時に確定し、以降変更されない。
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Weight  int    `json:"weight"`
	Diet    string `json:"diet"`
	OwnerID string `json:"owner_id,omitempty"`
}

// Owned はアイテムに所有者が設定されているかを返す。
// 所有者なし（匿名作成）のアイテムは誰でも変更・削除できる。
func (i *Item) Owned() bool {
	return i.OwnerID != ""
}

// ItemFields は更新時に置き換え可能なフィールドの集合を表す。
// IDとOwnerIDは含まない。作成後に変更されることはない。
type ItemFields struct {
	Name   string
	Weight int
	Diet   string
}
