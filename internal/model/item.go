package model

import "time"

// ItemKind はポータル上の掲載物の種別。
type ItemKind int16

const (
	ItemKindWork    ItemKind = 1
	ItemKindService ItemKind = 2
	ItemKindWiki    ItemKind = 3
	ItemKindBlog    ItemKind = 4
	ItemKindStore   ItemKind = 5
)

// ItemKinds はトップページに並べる順序の種別一覧。
var ItemKinds = []ItemKind{ItemKindWork, ItemKindService, ItemKindWiki, ItemKindBlog, ItemKindStore}

// Label は表示用の種別名を返す。
func (k ItemKind) Label() string {
	switch k {
	case ItemKindWork:
		return "Работы"
	case ItemKindService:
		return "Услуги"
	case ItemKindWiki:
		return "Статьи"
	case ItemKindBlog:
		return "Блог"
	case ItemKindStore:
		return "Товары"
	default:
		return "Объекты"
	}
}

// Valid は既知の種別かどうかを返す。
func (k ItemKind) Valid() bool {
	return k >= ItemKindWork && k <= ItemKindStore
}

// Item は掲載物（作品・サービス・記事・ブログ・商品）を表す。
// Descriptionはサニタイズ済みHTML。
type Item struct {
	ID          string
	UserID      string
	CategoryID  *string
	Kind        ItemKind
	Title       string
	Description string
	Link        string
	IsActive    bool
	View        int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemInput は掲載物の作成・更新フォームの値。
type ItemInput struct {
	CategoryID  *string
	Kind        ItemKind
	Title       string
	Description string
	Link        string
	IsActive    bool
}

// Category は掲載物のカテゴリ。
type Category struct {
	ID          string
	Name        string
	Description string
	Position    int
	CreatedAt   time.Time
}

// File は掲載物に添付された画像・ファイル。
// Positionはギャラリー内の並び順。
type File struct {
	ID          string
	UserID      string
	ItemID      string
	Src         string
	Description string
	Position    int
	CreatedAt   time.Time
}

// ImageNeighbors は画像ページの前後ナビゲーション。
type ImageNeighbors struct {
	Prev *File
	Next *File
}
