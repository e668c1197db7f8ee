package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/dinodex/internal/metrics"
	"github.com/hitoshi/dinodex/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// データベース使用時は*sql.DBをそのまま渡す。インメモリ構成ではnilでよい。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionStore      middleware.SessionStore
	SessionConfig     middleware.SessionConfig
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// アイテム
	ItemService ItemServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Session → Logging → RateLimit(General)
//
// /health と /metrics はセッション解決の外に配置する。
// 変更系エンドポイント（POST/PUT/DELETE）には変更系レート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, recorder)
	itemHandler := NewItemHandler(deps.ItemService, recorder)

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- セッション不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- セッション解決を伴うルート ---

	r.Group(func(r chi.Router) {
		r.Use(metrics.NewHTTPMiddleware(recorder))
		r.Use(middleware.NewSessionMiddleware(deps.SessionStore, deps.SessionConfig))
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/", indexHandler)

		// OAuthログインフロー
		r.Get("/auth/login", authHandler.Login)
		r.Get("/auth/login/callback", authHandler.Callback)
		r.Get("/logout", authHandler.Logout)

		// アイテムCRUD
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.ListItems)
			r.With(deps.RateLimiter.MutationMiddleware()).Post("/", itemHandler.CreateItem)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", itemHandler.GetItem)
				r.With(deps.RateLimiter.MutationMiddleware()).Put("/", itemHandler.UpdateItem)
				r.With(deps.RateLimiter.MutationMiddleware()).Delete("/", itemHandler.DeleteItem)
			})
		})
	})

	return r
}

// indexHandler はサービス情報とログイン状態を返す。
// GET /
func indexHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"service": "dinodex",
	}
	if session, err := middleware.SessionFromContext(r.Context()); err == nil && session.Authenticated() {
		resp["user_id"] = session.UserID
		resp["user_name"] = session.UserName
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// newHealthHandler はヘルスチェックハンドラーを生成する。
// checkerがnilの場合（インメモリ構成）は常に200を返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
