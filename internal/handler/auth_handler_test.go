package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/dinodex/internal/auth"
	"github.com/hitoshi/dinodex/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	beginLoginFn    func() (string, string, error)
	completeLoginFn func(ctx context.Context, sessionID, code, stateFromCallback, expectedCsrfToken string) (*model.Identity, error)
	logoutFn        func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) BeginLogin() (string, string, error) {
	if m.beginLoginFn != nil {
		return m.beginLoginFn()
	}
	return "", "", nil
}

func (m *mockAuthService) CompleteLogin(ctx context.Context, sessionID, code, stateFromCallback, expectedCsrfToken string) (*model.Identity, error) {
	if m.completeLoginFn != nil {
		return m.completeLoginFn(ctx, sessionID, code, stateFromCallback, expectedCsrfToken)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

// --- compile-time interface check ---
var _ AuthServiceInterface = (*mockAuthService)(nil)

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		BaseURL: "http://localhost:8080",
	}
}

// findCookie はレスポンスから指定名のCookieを探すヘルパー。
func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- GET /auth/login テスト ---

func TestAuthHandler_Login_RedirectsToProviderWithStateCookie(t *testing.T) {
	svc := &mockAuthService{
		beginLoginFn: func() (string, string, error) {
			return "https://accounts.google.com/o/oauth2/auth?state=csrf-token-123", "csrf-token-123", nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req = withSession(req, "", "")
	w := httptest.NewRecorder()

	h.Login(w, req)

	// 303でプロバイダーへリダイレクトすること
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	location := w.Header().Get("Location")
	if location != "https://accounts.google.com/o/oauth2/auth?state=csrf-token-123" {
		t.Errorf("Location = %q", location)
	}

	// CSRFトークンがCookieに保存されること
	cookie := findCookie(t, w, "oauth_state")
	if cookie == nil {
		t.Fatal("oauth_state cookie not set")
	}
	if cookie.Value != "csrf-token-123" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "csrf-token-123")
	}
	if !cookie.HttpOnly {
		t.Error("oauth_state cookie should be HttpOnly")
	}
}

// --- GET /auth/login/callback テスト ---

func TestAuthHandler_Callback_Success_RedirectsToBaseURL(t *testing.T) {
	var gotExpectedState string
	svc := &mockAuthService{
		completeLoginFn: func(ctx context.Context, sessionID, code, state, expected string) (*model.Identity, error) {
			if sessionID != "test-session-token" {
				t.Errorf("sessionID = %q, want %q", sessionID, "test-session-token")
			}
			if code != "auth-code" {
				t.Errorf("code = %q, want %q", code, "auth-code")
			}
			gotExpectedState = expected
			return &model.Identity{ID: "user-1", DisplayName: "Alice"}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/login/callback?code=auth-code&state=csrf-token-123", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "csrf-token-123"})
	req = withSession(req, "", "")
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if got := w.Header().Get("Location"); got != "http://localhost:8080" {
		t.Errorf("Location = %q, want %q", got, "http://localhost:8080")
	}
	if gotExpectedState != "csrf-token-123" {
		t.Errorf("expected state from cookie = %q, want %q", gotExpectedState, "csrf-token-123")
	}

	// state Cookieは成功時も破棄されること
	cookie := findCookie(t, w, "oauth_state")
	if cookie == nil {
		t.Fatal("oauth_state cookie should be cleared")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("oauth_state cookie MaxAge = %d, want negative", cookie.MaxAge)
	}
}

func TestAuthHandler_Callback_StateMismatch_Returns401(t *testing.T) {
	svc := &mockAuthService{
		completeLoginFn: func(ctx context.Context, sessionID, code, state, expected string) (*model.Identity, error) {
			return nil, auth.ErrStateMismatch
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/login/callback?code=auth-code&state=evil-state", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "issued-state"})
	req = withSession(req, "", "")
	w := httptest.NewRecorder()

	h.Callback(w, req)

	// 内部原因にかかわらず不透明な401を返すこと
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeAuthFailed {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeAuthFailed)
	}
	// レスポンスに内部原因が漏れないこと
	if errResp["message"] != "認証に失敗しました。" {
		t.Errorf("message should be opaque, got %q", errResp["message"])
	}
}

func TestAuthHandler_Callback_MissingStateCookie_Returns401(t *testing.T) {
	svc := &mockAuthService{
		completeLoginFn: func(ctx context.Context, sessionID, code, state, expected string) (*model.Identity, error) {
			if expected != "" {
				t.Errorf("expected state = %q, want empty when cookie is missing", expected)
			}
			return nil, auth.ErrStateMismatch
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/login/callback?code=auth-code&state=some-state", nil)
	req = withSession(req, "", "")
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandler_Callback_TokenExchangeFailure_Returns401(t *testing.T) {
	svc := &mockAuthService{
		completeLoginFn: func(ctx context.Context, sessionID, code, state, expected string) (*model.Identity, error) {
			return nil, auth.ErrTokenExchange
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/login/callback?code=bad-code&state=csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "csrf-token"})
	req = withSession(req, "", "")
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthHandler_Callback_NoSession_Returns500(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), nil)

	// セッションミドルウェアを通過していないリクエスト
	req := httptest.NewRequest(http.MethodGet, "/auth/login/callback?code=x&state=y", nil)
	w := httptest.NewRecorder()

	h.Callback(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// --- GET /logout テスト ---

func TestAuthHandler_Logout_DeletesSessionAndClearsCookie(t *testing.T) {
	var deletedSessionID string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			deletedSessionID = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req = withSession(req, "user-1", "Alice")
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if deletedSessionID != "test-session-token" {
		t.Errorf("deleted session = %q, want %q", deletedSessionID, "test-session-token")
	}

	cookie := findCookie(t, w, "session_id")
	if cookie == nil {
		t.Fatal("session_id cookie should be cleared")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("session_id cookie MaxAge = %d, want negative", cookie.MaxAge)
	}
}

func TestAuthHandler_Logout_ServiceFailure_StillClearsCookie(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			return context.DeadlineExceeded
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req = withSession(req, "user-1", "Alice")
	w := httptest.NewRecorder()

	h.Logout(w, req)

	// 失敗してもCookieはクリアし、リダイレクトは成立すること
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if findCookie(t, w, "session_id") == nil {
		t.Error("session_id cookie should be cleared even when logout fails")
	}
}
