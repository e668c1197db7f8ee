package item

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/hitoshi/dinodex/internal/model"
	"github.com/hitoshi/dinodex/internal/repository"
)

// --- モック定義 ---

type mockItemRepo struct {
	createFn   func(ctx context.Context, item *model.Item) error
	findByIDFn func(ctx context.Context, id string) (*model.Item, error)
	listFn     func(ctx context.Context) ([]*model.Item, error)
	updateFn   func(ctx context.Context, id string, fields model.ItemFields) (*model.Item, error)
	deleteFn   func(ctx context.Context, id string) (bool, error)
}

func (m *mockItemRepo) Create(ctx context.Context, item *model.Item) error {
	if m.createFn != nil {
		return m.createFn(ctx, item)
	}
	return nil
}

func (m *mockItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockItemRepo) List(ctx context.Context) ([]*model.Item, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockItemRepo) Update(ctx context.Context, id string, fields model.ItemFields) (*model.Item, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, nil
}

func (m *mockItemRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

// --- compile-time interface check ---
var _ repository.ItemRepository = (*mockItemRepo)(nil)

// --- テスト ---

func TestCreate_EmptyID_GeneratesUUID(t *testing.T) {
	ctx := context.Background()

	var created *model.Item
	repo := &mockItemRepo{
		createFn: func(ctx context.Context, item *model.Item) error {
			created = item
			return nil
		},
	}
	svc := NewService(repo)

	item, err := svc.Create(ctx, "", model.ItemFields{Name: "Tyrannosaurus", Weight: 7000, Diet: "carnivorous"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := uuid.Parse(item.ID); err != nil {
		t.Errorf("generated ID is not a UUID: %q", item.ID)
	}
	if created == nil || created.ID != item.ID {
		t.Error("item was not passed to the store")
	}
}

func TestCreate_ClientSuppliedID_IsKept(t *testing.T) {
	ctx := context.Background()
	repo := &mockItemRepo{}
	svc := NewService(repo)

	id := "11111111-1111-1111-1111-111111111111"
	item, err := svc.Create(ctx, id, model.ItemFields{Name: "Stegosaurus", Diet: "herbivorous"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if item.ID != id {
		t.Errorf("ID = %q, want %q", item.ID, id)
	}
}

func TestCreate_InvalidID_ReturnsValidationError(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockItemRepo{})

	_, err := svc.Create(ctx, "not-a-uuid", model.ItemFields{Name: "Raptor"}, "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
	}
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockItemRepo{})

	tests := []struct {
		name   string
		fields model.ItemFields
	}{
		{"empty name", model.ItemFields{Name: "", Weight: 100, Diet: "carnivorous"}},
		{"negative weight", model.ItemFields{Name: "Raptor", Weight: -1, Diet: "carnivorous"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "", tt.fields, "")

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeInvalidRequest {
				t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
			}
		})
	}
}

func TestCreate_DuplicateID_ReturnsConflictError(t *testing.T) {
	ctx := context.Background()
	repo := &mockItemRepo{
		createFn: func(ctx context.Context, item *model.Item) error {
			return model.ErrDuplicateID
		},
	}
	svc := NewService(repo)

	_, err := svc.Create(ctx, "11111111-1111-1111-1111-111111111111", model.ItemFields{Name: "Raptor"}, "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateItemID {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateItemID)
	}
}

func TestCreate_SetsOwnerFromSession(t *testing.T) {
	ctx := context.Background()

	var created *model.Item
	repo := &mockItemRepo{
		createFn: func(ctx context.Context, item *model.Item) error {
			created = item
			return nil
		},
	}
	svc := NewService(repo)

	if _, err := svc.Create(ctx, "", model.ItemFields{Name: "Raptor"}, "user-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.OwnerID != "user-1" {
		t.Errorf("owner_id = %q, want %q", created.OwnerID, "user-1")
	}
}

func TestGet_NotFound_ReturnsNil(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockItemRepo{})

	item, err := svc.Get(ctx, "99999999-9999-9999-9999-999999999999")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item != nil {
		t.Errorf("expected nil, got %+v", item)
	}
}

func TestUpdate_NotFound_ReturnsNotFoundError(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockItemRepo{})

	_, err := svc.Update(ctx, "99999999-9999-9999-9999-999999999999", model.ItemFields{Name: "Ghost"}, "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeItemNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeItemNotFound)
	}
}

func TestUpdate_NotOwner_ReturnsNotOwnerError(t *testing.T) {
	ctx := context.Background()

	updateCalled := false
	repo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Item, error) {
			return &model.Item{ID: id, Name: "Raptor", OwnerID: "user-1"}, nil
		},
		updateFn: func(ctx context.Context, id string, fields model.ItemFields) (*model.Item, error) {
			updateCalled = true
			return nil, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Update(ctx, "11111111-1111-1111-1111-111111111111", model.ItemFields{Name: "Stolen"}, "user-2")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeNotOwner {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeNotOwner)
	}
	// 認可拒否時はストアに到達しないこと
	if updateCalled {
		t.Error("store Update should not be called when authorization fails")
	}
}

func TestUpdate_UnownedItem_AnonymousCallerSucceeds(t *testing.T) {
	ctx := context.Background()

	repo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Item, error) {
			return &model.Item{ID: id, Name: "Raptor"}, nil
		},
		updateFn: func(ctx context.Context, id string, fields model.ItemFields) (*model.Item, error) {
			return &model.Item{ID: id, Name: fields.Name, Weight: fields.Weight, Diet: fields.Diet}, nil
		},
	}
	svc := NewService(repo)

	updated, err := svc.Update(ctx, "11111111-1111-1111-1111-111111111111", model.ItemFields{Name: "Renamed", Weight: 42, Diet: "omnivorous"}, "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q, want %q", updated.Name, "Renamed")
	}
}

func TestUpdate_DeletedBetweenCheckAndUpdate_ReturnsNotFound(t *testing.T) {
	ctx := context.Background()

	// 所有権チェック時は存在するが、更新時には並行削除で消えているケース
	repo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Item, error) {
			return &model.Item{ID: id, Name: "Raptor"}, nil
		},
		updateFn: func(ctx context.Context, id string, fields model.ItemFields) (*model.Item, error) {
			return nil, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Update(ctx, "11111111-1111-1111-1111-111111111111", model.ItemFields{Name: "Renamed"}, "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeItemNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeItemNotFound)
	}
}

func TestDelete_Owner_Succeeds(t *testing.T) {
	ctx := context.Background()

	var deletedID string
	repo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Item, error) {
			return &model.Item{ID: id, Name: "Raptor", OwnerID: "user-1"}, nil
		},
		deleteFn: func(ctx context.Context, id string) (bool, error) {
			deletedID = id
			return true, nil
		},
	}
	svc := NewService(repo)

	id := "11111111-1111-1111-1111-111111111111"
	if err := svc.Delete(ctx, id, "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deletedID != id {
		t.Errorf("deleted ID = %q, want %q", deletedID, id)
	}
}

func TestDelete_NotOwner_ReturnsNotOwnerError(t *testing.T) {
	ctx := context.Background()

	repo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Item, error) {
			return &model.Item{ID: id, Name: "Raptor", OwnerID: "user-1"}, nil
		},
	}
	svc := NewService(repo)

	err := svc.Delete(ctx, "11111111-1111-1111-1111-111111111111", "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeNotOwner {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeNotOwner)
	}
}

func TestDelete_DeletedBetweenCheckAndDelete_ReturnsNotFound(t *testing.T) {
	ctx := context.Background()

	repo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Item, error) {
			return &model.Item{ID: id, Name: "Raptor"}, nil
		},
		deleteFn: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo)

	err := svc.Delete(ctx, "11111111-1111-1111-1111-111111111111", "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeItemNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeItemNotFound)
	}
}
