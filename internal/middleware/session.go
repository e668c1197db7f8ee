// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/dinodex/internal/model"
)

// sessionCookieName はセッショントークンを保持するCookieの名前。
const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionStore はセッションの解決に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// SessionConfig はセッションミドルウェアの設定。
type SessionConfig struct {
	MaxAge       int // セッション有効期間（秒）
	CookieDomain string
	CookieSecure bool
}

// NewSessionMiddleware はCookieからセッションを解決するミドルウェアを返す。
//
// Cookieが存在しない、または未知・期限切れのトークンを指す場合は
// 新しい匿名セッションを発行してCookieを設定する。同じトークンに対する
// 解決は冪等であり、常にセッションがコンテキストに注入された状態で
// 後続ハンドラーが実行される。
func NewSessionMiddleware(store SessionStore, config SessionConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session *model.Session

			cookie, err := r.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				session, err = store.FindByID(r.Context(), cookie.Value)
				if err != nil {
					slog.Error("failed to resolve session",
						slog.String("error", err.Error()),
					)
					WriteInternalServerError(w)
					return
				}
			}

			// 未知・期限切れ・Cookieなしの場合は匿名セッションを新規発行する
			if session == nil {
				session, err = createAnonymousSession(r.Context(), store, config)
				if err != nil {
					slog.Error("failed to create session",
						slog.String("error", err.Error()),
					)
					WriteInternalServerError(w)
					return
				}

				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookieName,
					Value:    session.ID,
					Path:     "/",
					Domain:   config.CookieDomain,
					MaxAge:   config.MaxAge,
					HttpOnly: true,
					Secure:   config.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// createAnonymousSession は識別子なしの新しいセッションを作成して永続化する。
func createAnonymousSession(ctx context.Context, store SessionStore, config SessionConfig) (*model.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        token,
		ExpiresAt: now.Add(time.Duration(config.MaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.Session, error) {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok || session == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return session, nil
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// generateSessionToken は暗号的に安全なセッショントークンを生成する。
func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
