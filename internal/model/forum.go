package model

import "time"

// ForumTopic はフォーラムのトピック。
type ForumTopic struct {
	ID         string
	UserID     string
	Title      string
	PostCount  int
	LastPostAt *time.Time
	CreatedAt  time.Time
}

// ForumPost はトピックへの投稿。Contentはサニタイズ済みHTML。
type ForumPost struct {
	ID         string
	TopicID    string
	UserID     string
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// Feedback は問い合わせフォームからの投稿。
type Feedback struct {
	ID        string
	Username  string
	Email     string
	Message   string
	CreatedAt time.Time
}
