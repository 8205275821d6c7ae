// Package model はドメインモデルを定義する。
package model

import "time"

// User はポータルの利用者を表す。
// Permは権限レベル。60以上はスーパーユーザーとして扱う。
type User struct {
	ID           string
	Phone        string
	Name         string
	PasswordHash string
	Perm         int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
