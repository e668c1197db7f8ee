// Package item はアイテムのCRUD操作と所有権による認可判定を提供する。
package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/dinodex/internal/model"
	"github.com/hitoshi/dinodex/internal/repository"
)

// Service はアイテムに関するビジネスロジックを提供する。
// 変更系操作は所有権チェックを通過した場合のみストアに委譲する。
type Service struct {
	repo repository.ItemRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.ItemRepository) *Service {
	return &Service{repo: repo}
}

// Create はアイテムを作成する。
// idが空の場合は新しいUUIDを生成する。ownerIDはセッションの識別子から
// 設定され、未ログインの場合は空（匿名作成）となる。
func (s *Service) Create(ctx context.Context, id string, fields model.ItemFields, ownerID string) (*model.Item, error) {
	if id == "" {
		id = uuid.New().String()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewInvalidRequestError("idはUUID形式で指定してください")
	}

	if fields.Name == "" {
		return nil, model.NewInvalidRequestError("nameは必須です")
	}
	if fields.Weight < 0 {
		return nil, model.NewInvalidRequestError("weightは0以上で指定してください")
	}

	item := &model.Item{
		ID:      id,
		Name:    fields.Name,
		Weight:  fields.Weight,
		Diet:    fields.Diet,
		OwnerID: ownerID,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if errors.Is(err, model.ErrDuplicateID) {
			return nil, model.NewDuplicateItemIDError(id)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

// List は全アイテムのスナップショットを返す。認可は不要。
func (s *Service) List(ctx context.Context) ([]*model.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// Get は指定IDのアイテムを返す。見つからない場合はnilを返す。認可は不要。
func (s *Service) Get(ctx context.Context, id string) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// Update はアイテムのname、weight、dietを置き換える。
//
// 所有権チェック（FindByID）と更新は別々のストア操作であり、その間に
// 並行する削除が入り得る。その場合ストアを壊さず、not foundとして扱う。
func (s *Service) Update(ctx context.Context, id string, fields model.ItemFields, callerUserID string) (*model.Item, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find item for update: %w", err)
	}
	if current == nil {
		return nil, model.NewItemNotFoundError(id)
	}

	if err := AuthorizeMutation(current, callerUserID); err != nil {
		return nil, model.NewNotOwnerError()
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	if updated == nil {
		// チェックと更新の間に削除された
		return nil, model.NewItemNotFoundError(id)
	}

	return updated, nil
}

// Delete はアイテムを削除する。所有権チェックはUpdateと同じ規則に従う。
func (s *Service) Delete(ctx context.Context, id, callerUserID string) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find item for delete: %w", err)
	}
	if current == nil {
		return model.NewItemNotFoundError(id)
	}

	if err := AuthorizeMutation(current, callerUserID); err != nil {
		return model.NewNotOwnerError()
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if !deleted {
		// チェックと削除の間に別リクエストが先に削除した
		return model.NewItemNotFoundError(id)
	}

	return nil
}
