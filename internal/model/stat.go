package model

// PageType はページビュー統計のキーとなるページ種別。
type PageType int16

const (
	PageTypeHome       PageType = 1
	PageTypeInfo       PageType = 10
	PageTypeItem       PageType = 20
	PageTypeForum      PageType = 30
	PageTypeForumTopic PageType = 31
	PageTypeImage      PageType = 40
)

// StatPage はstat_pagesテーブルの1行を表す。
// (Types, ObjectID)で一意。パラメータを持たないページのObjectIDは空文字列。
type StatPage struct {
	ID       int64
	Types    PageType
	ObjectID string
	View     int64   // 閲覧数
	Height   float64 // クライアント申告のスクロール量の累計
	Seconds  int64   // 滞在秒数の累計
	NowU     int64   // ユニーク訪問数（単調増加）
}

// Valid は既知のページ種別かどうかを返す。
func (t PageType) Valid() bool {
	switch t {
	case PageTypeHome, PageTypeInfo, PageTypeItem, PageTypeForum, PageTypeForumTopic, PageTypeImage:
		return true
	default:
		return false
	}
}
