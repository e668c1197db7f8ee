package model

import "time"

// Session はブラウザのCookieに紐づくサーバーサイドのセッションを表す。
// UserIDが空文字列の場合は匿名セッション。
type Session struct {
	ID        string
	UserID    string
	UserName  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated はセッションにログイン済みの識別子が紐づいているかを返す。
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// Expired はセッションが有効期限切れかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Identity は外部IdPから取得した安定したユーザー識別子を表す。
// アクセストークンは取得後すぐに破棄され、Identityのみがセッションに残る。
type Identity struct {
	ID          string
	DisplayName string
}
