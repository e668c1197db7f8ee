package repository

import (
	"context"
	"sync"

	"github.com/hitoshi/dinodex/internal/model"
)

// MemoryItemRepo はプロセス内メモリを使用したアイテムリポジトリ。
// sync.RWMutexにより読み取りは並行、書き込みは排他で実行される。
// DATABASE_URL未設定時のデフォルトストアとして使用する。
type MemoryItemRepo struct {
	mu    sync.RWMutex
	items map[string]model.Item
	order []string // 挿入順を保持するIDのリスト
}

// NewMemoryItemRepo はMemoryItemRepoを生成する。
func NewMemoryItemRepo() *MemoryItemRepo {
	return &MemoryItemRepo{
		items: make(map[string]model.Item),
	}
}

// Create はアイテムを作成する。IDが既に存在する場合はmodel.ErrDuplicateIDを返す。
func (r *MemoryItemRepo) Create(ctx context.Context, item *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return model.ErrDuplicateID
	}

	r.items[item.ID] = *item
	r.order = append(r.order, item.ID)
	return nil
}

// FindByID は指定IDのアイテムを取得する。見つからない場合はnilを返す。
func (r *MemoryItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, nil
	}

	// 呼び出し側の変更がストアに波及しないようコピーを返す
	copied := item
	return &copied, nil
}

// List は全アイテムのスナップショットを挿入順で返す。
func (r *MemoryItemRepo) List(ctx context.Context) ([]*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Item, 0, len(r.items))
	for _, id := range r.order {
		item, exists := r.items[id]
		if !exists {
			continue
		}
		copied := item
		result = append(result, &copied)
	}
	return result, nil
}

// Update は指定IDのアイテムのname、weight、dietを置き換える。
// IDとowner_idは変更しない。見つからない場合はnilを返す。
func (r *MemoryItemRepo) Update(ctx context.Context, id string, fields model.ItemFields) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return nil, nil
	}

	item.Name = fields.Name
	item.Weight = fields.Weight
	item.Diet = fields.Diet
	r.items[id] = item

	copied := item
	return &copied, nil
}

// Delete は指定IDのアイテムを削除する。削除した場合はtrueを返す。
func (r *MemoryItemRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return false, nil
	}

	delete(r.items, id)
	for i, orderedID := range r.order {
		if orderedID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// compile-time interface check
var _ ItemRepository = (*MemoryItemRepo)(nil)
