package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/dinodex/internal/auth"
	"github.com/hitoshi/dinodex/internal/metrics"
	"github.com/hitoshi/dinodex/internal/middleware"
	"github.com/hitoshi/dinodex/internal/model"
)

// oauthStateCookie はログイン開始時に発行するCSRFトークンのCookie名。
// 単一のログイン試行に限り有効で、コールバック処理時に必ず破棄される。
const oauthStateCookie = "oauth_state"

// oauthStateMaxAge はstate Cookieの有効期間（秒）。
const oauthStateMaxAge = 600 // 10分

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	BeginLogin() (redirectURL, csrfToken string, err error)
	CompleteLogin(ctx context.Context, sessionID, code, stateFromCallback, expectedCsrfToken string) (*model.Identity, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL      string
	CookieDomain string
	CookieSecure bool
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	config   AuthHandlerConfig
	recorder metrics.Recorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, recorder metrics.Recorder) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &AuthHandler{
		service:  service,
		config:   config,
		recorder: recorder,
	}
}

// Login はOAuthログインフローを開始する。
// GET /auth/login
// CSRFトークンを単一使用のCookieに保存し、プロバイダーへ303でリダイレクトする。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	redirectURL, state, err := h.service.BeginLogin()
	if err != nil {
		slog.Error("failed to begin login", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/login/callback?code=xxx&state=yyy
//
// state不一致・トークン交換失敗・ユーザー情報取得失敗はいずれも単一の
// 不透明な401として返す。内部原因はログとメトリクスにのみ残る。
// 失敗時にセッションが部分的に認証済みになることはない。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		slog.Error("session missing in callback", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// 発行済みCSRFトークンをCookieから読み取る。
	// Cookieは結果にかかわらずここで破棄し、トークンの再利用を防ぐ。
	var expectedState string
	if cookie, cookieErr := r.Cookie(oauthStateCookie); cookieErr == nil {
		expectedState = cookie.Value
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	_, err = h.service.CompleteLogin(r.Context(), session.ID, code, state, expectedState)
	if err != nil {
		reason := loginFailureReason(err)
		h.recorder.RecordLoginFailure(reason)
		slog.Warn("oauth callback failed",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthFailedError())
		return
	}

	h.recorder.RecordLoginSuccess()
	http.Redirect(w, r, h.config.BaseURL, http.StatusSeeOther)
}

// Logout はセッションを破棄し、Cookieをクリアする。
// GET /logout
// 破棄後に同じCookieでアクセスすると新しい匿名セッションが発行される。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, err := middleware.SessionFromContext(r.Context()); err == nil {
		if logoutErr := h.service.Logout(r.Context(), session.ID); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.BaseURL, http.StatusSeeOther)
}

// loginFailureReason はログイン失敗エラーをメトリクス用の原因ラベルに変換する。
func loginFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, auth.ErrTokenExchange):
		return "token_exchange"
	case errors.Is(err, auth.ErrUserInfoFetch):
		return "user_info_fetch"
	default:
		return "internal"
	}
}
