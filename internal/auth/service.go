// Package auth はOAuth認可コードフローによるログインとセッション識別子の管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/dinodex/internal/model"
	"github.com/hitoshi/dinodex/internal/repository"
)

// ログインフローの失敗種別。
// ハンドラーはこれらを単一の不透明な認証失敗としてブラウザに返し、
// 内部原因はログにのみ記録する。
var (
	// ErrStateMismatch はコールバックのstateが発行したCSRFトークンと一致しない場合のエラー。
	ErrStateMismatch = errors.New("oauth state mismatch")
	// ErrTokenExchange は認可コードのトークン交換に失敗した場合のエラー。
	ErrTokenExchange = errors.New("token exchange failed")
	// ErrUserInfoFetch はユーザー情報の取得に失敗した場合のエラー。
	ErrUserInfoFetch = errors.New("user info fetch failed")
)

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー識別子を取得する。
	ExchangeCode(ctx context.Context, code string) (*model.Identity, error)
}

// Service はログインフローのビジネスロジックを提供する。
//
// 状態遷移: 未認証 → BeginLogin → 認可待ち → CompleteLogin成功 → 認証済み。
// CompleteLoginが失敗した場合は未認証に戻り、セッション識別子は設定されない。
type Service struct {
	oauth    OAuthProvider
	sessions repository.SessionRepository
}

// NewService はServiceを生成する。
func NewService(oauth OAuthProvider, sessions repository.SessionRepository) *Service {
	return &Service{
		oauth:    oauth,
		sessions: sessions,
	}
}

// BeginLogin はログインフローを開始する。
// 新しいCSRFトークンを生成し、プロバイダーへのリダイレクトURLとともに返す。
// 呼び出し側はトークンを保持し、コールバックのstateと比較する。
func (s *Service) BeginLogin() (redirectURL, csrfToken string, err error) {
	csrfToken, err = generateToken()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return s.oauth.GetLoginURL(csrfToken), csrfToken, nil
}

// CompleteLogin はOAuthコールバックを処理し、セッションに識別子を設定する。
// stateFromCallbackが発行済みトークンと一致しない場合はErrStateMismatchを返す。
// トークン交換・ユーザー情報取得の失敗時はセッションを変更しない。
func (s *Service) CompleteLogin(ctx context.Context, sessionID, code, stateFromCallback, expectedCsrfToken string) (*model.Identity, error) {
	if expectedCsrfToken == "" || stateFromCallback != expectedCsrfToken {
		return nil, ErrStateMismatch
	}

	identity, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 再ログインは既存の識別子を上書きする（マージしない）
	if err := s.sessions.SetIdentity(ctx, sessionID, identity.ID, identity.DisplayName); err != nil {
		return nil, fmt.Errorf("failed to set session identity: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", identity.ID),
	)

	return identity, nil
}

// Logout はセッションを破棄する。
// 破棄後に同じCookieを解決すると識別子なしの新しいセッションが発行される。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// generateToken は暗号的に安全なランダムトークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
