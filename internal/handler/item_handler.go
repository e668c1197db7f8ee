// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dinodex/internal/metrics"
	"github.com/hitoshi/dinodex/internal/middleware"
	"github.com/hitoshi/dinodex/internal/model"
)

// ItemServiceInterface はアイテムハンドラーが必要とするサービスインターフェース。
type ItemServiceInterface interface {
	// Create はアイテムを作成する。idが空の場合は新しいIDを生成する。
	Create(ctx context.Context, id string, fields model.ItemFields, ownerID string) (*model.Item, error)
	// List は全アイテムのスナップショットを返す。
	List(ctx context.Context) ([]*model.Item, error)
	// Get は指定IDのアイテムを返す。見つからない場合はnilを返す。
	Get(ctx context.Context, id string) (*model.Item, error)
	// Update はアイテムのname、weight、dietを置き換える。
	Update(ctx context.Context, id string, fields model.ItemFields, callerUserID string) (*model.Item, error)
	// Delete はアイテムを削除する。
	Delete(ctx context.Context, id, callerUserID string) error
}

// ItemHandler はアイテムCRUDのHTTPハンドラー。
type ItemHandler struct {
	service  ItemServiceInterface
	recorder metrics.Recorder
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(service ItemServiceInterface, recorder metrics.Recorder) *ItemHandler {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &ItemHandler{
		service:  service,
		recorder: recorder,
	}
}

// itemRequest はアイテム作成・更新リクエストのボディ。
// idは作成時のみ有効で、省略するとサーバー側で生成される。
type itemRequest struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Diet   string `json:"diet"`
}

// CreateItem はアイテムを作成する。
// POST /items
// ログイン済みセッションの場合、作成されるアイテムのowner_idに
// セッションのuser_idが設定される。未ログインの場合は所有者なしで作成される。
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	item, err := h.service.Create(r.Context(), req.ID, model.ItemFields{
		Name:   req.Name,
		Weight: req.Weight,
		Diet:   req.Diet,
	}, callerUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.RecordItemMutation("create")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

// ListItems は全アイテムの一覧を取得する。認可は不要。
// GET /items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// GetItem はアイテム詳細を取得する。認可は不要。
// GET /items/:id
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if item == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewItemNotFoundError(id))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// UpdateItem はアイテムのname、weight、dietを置き換える。
// PUT /items/:id
// 所有者が設定されているアイテムは、所有者のセッションからのみ更新できる。
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	item, err := h.service.Update(r.Context(), id, model.ItemFields{
		Name:   req.Name,
		Weight: req.Weight,
		Diet:   req.Diet,
	}, callerUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.RecordItemMutation("update")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// DeleteItem はアイテムを削除する。所有権の規則はUpdateItemと同じ。
// DELETE /items/:id
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id, callerUserID(r.Context())); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.RecordItemMutation("delete")

	w.WriteHeader(http.StatusNoContent)
}

// callerUserID はリクエストコンテキストのセッションからユーザーIDを取得する。
// 未ログインまたはセッションなしの場合は空文字列を返す。
func callerUserID(ctx context.Context) string {
	session, err := middleware.SessionFromContext(ctx)
	if err != nil {
		return ""
	}
	return session.UserID
}

// apiErrorResponse はAPIエラーレスポンスのボディ。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeItemNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateItemID:
		return http.StatusConflict
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeNotOwner, model.ErrCodeAuthFailed:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
