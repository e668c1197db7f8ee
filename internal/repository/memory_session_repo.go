package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/dinodex/internal/model"
)

// MemorySessionRepo はプロセス内メモリを使用したセッションリポジトリ。
// 同一トークンへの変更は排他、異なるトークンの解決は並行に実行される。
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

// NewMemorySessionRepo はMemorySessionRepoを生成する。
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]model.Session),
	}
}

// Create はセッションを作成する。
func (r *MemorySessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = *session
	return nil
}

// FindByID は指定IDのセッションを取得する。
// 見つからない、または期限切れの場合はnilを返す。
func (r *MemorySessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists || session.Expired(time.Now()) {
		return nil, nil
	}

	copied := session
	return &copied, nil
}

// SetIdentity はセッションにログイン識別子を設定する。
// 既存の識別子は上書きされる。
func (r *MemorySessionRepo) SetIdentity(ctx context.Context, id, userID, userName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists {
		return fmt.Errorf("session not found: %s", id)
	}

	session.UserID = userID
	session.UserName = userName
	r.sessions[id] = session
	return nil
}

// DeleteByID は指定IDのセッションを削除する。
// 削除後に同じトークンを解決すると新しい匿名セッションが発行される。
func (r *MemorySessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *MemorySessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var deleted int64
	for id, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// compile-time interface check
var _ SessionRepository = (*MemorySessionRepo)(nil)
