// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrDuplicateID は作成時にIDが既に存在する場合に返されるセンチネルエラー。
var ErrDuplicateID = errors.New("item id already exists")

// ErrNotOwner は所有者以外がアイテムを変更しようとした場合に返されるセンチネルエラー。
var ErrNotOwner = errors.New("caller is not the owner of the item")

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, item, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeItemNotFound    = "ITEM_NOT_FOUND"
	ErrCodeDuplicateItemID = "DUPLICATE_ITEM_ID"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeNotOwner        = "NOT_OWNER"
	ErrCodeAuthFailed      = "AUTH_FAILED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewItemNotFoundError はアイテム未検出エラーを生成する。
func NewItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定されたアイテムが見つかりません: %s", itemID),
		Category: "item",
		Action:   "アイテムIDを確認してください。",
	}
}

// NewDuplicateItemIDError はID重複エラーを生成する。
// 新しいIDで再試行すれば回復できる。
func NewDuplicateItemIDError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateItemID,
		Message:  fmt.Sprintf("同じIDのアイテムが既に存在します: %s", itemID),
		Category: "item",
		Action:   "別のIDで再度作成してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewNotOwnerError は所有者不一致エラーを生成する。
func NewNotOwnerError() *APIError {
	return &APIError{
		Code:     ErrCodeNotOwner,
		Message:  "このアイテムを変更する権限がありません。",
		Category: "auth",
		Action:   "アイテムを作成したアカウントでログインしてください。",
	}
}

// NewAuthFailedError は認証失敗エラーを生成する。
// 内部原因（state不一致、トークン交換失敗など）はログにのみ記録し、
// レスポンスには反映しない。
func NewAuthFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "再度ログインをお試しください。",
	}
}
