package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/dinodex/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意性制約違反のエラーコード。
const pqUniqueViolation = "23505"

// PostgresItemRepo はPostgreSQLを使用したアイテムリポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

// Create はアイテムを作成する。IDが既に存在する場合はmodel.ErrDuplicateIDを返す。
func (r *PostgresItemRepo) Create(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO items (id, name, weight, diet, owner_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.Name, item.Weight, item.Diet, nullString(item.OwnerID),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return model.ErrDuplicateID
		}
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// FindByID は指定IDのアイテムを取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	item := &model.Item{}
	var ownerID sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, weight, diet, owner_id FROM items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.Name, &item.Weight, &item.Diet, &ownerID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	item.OwnerID = nullStringValue(ownerID)
	return item, nil
}

// List は全アイテムのスナップショットを返す。並び順はID順。
func (r *PostgresItemRepo) List(ctx context.Context) ([]*model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, weight, diet, owner_id FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*model.Item{}
	for rows.Next() {
		item := &model.Item{}
		var ownerID sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Weight, &item.Diet, &ownerID); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.OwnerID = nullStringValue(ownerID)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

// Update は指定IDのアイテムのname、weight、dietを置き換える。
// IDとowner_idは変更しない。見つからない場合はnilを返す。
func (r *PostgresItemRepo) Update(ctx context.Context, id string, fields model.ItemFields) (*model.Item, error) {
	item := &model.Item{}
	var ownerID sql.NullString

	err := r.db.QueryRowContext(ctx,
		`UPDATE items SET name = $2, weight = $3, diet = $4
		 WHERE id = $1
		 RETURNING id, name, weight, diet, owner_id`,
		id, fields.Name, fields.Weight, fields.Diet,
	).Scan(&item.ID, &item.Name, &item.Weight, &item.Diet, &ownerID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	item.OwnerID = nullStringValue(ownerID)
	return item, nil
}

// Delete は指定IDのアイテムを削除する。削除した場合はtrueを返す。
func (r *PostgresItemRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM items WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はNULLを空文字列に変換する。
func nullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
