package model

import "time"

// Visitor はCookieで識別される訪問者（visitorsテーブル）。
type Visitor struct {
	ID        string
	Device    string
	FirstSeen time.Time
	LastSeen  time.Time
	Views     int64 // 記録済みの閲覧数
}

// VisitorView は訪問者の閲覧履歴の1件（visitor_viewsテーブル）。
type VisitorView struct {
	ID        int64
	VisitorID string
	Types     PageType
	ObjectID  string
	Path      string
	Title     string
	CreatedAt time.Time
}
